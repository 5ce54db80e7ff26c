package deals

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/dealkeeper/internal/common"
	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_WithCap(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+deals`).
		WithArgs("d-1", "Free coffee", "one per visit", sql.NullInt32{Int32: 3, Valid: true}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cap := int32(3)
	deal := &models.Deal{ID: "d-1", Title: "Free coffee", Description: "one per visit", UsageCap: &cap}
	if err := repo.Create(context.Background(), deal); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_Unlimited(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+deals`).
		WithArgs("d-2", "BOGO", "", sql.NullInt32{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deal := &models.Deal{ID: "d-2", Title: "BOGO"}
	if err := repo.Create(context.Background(), deal); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "title", "description", "usage_cap"}).
		AddRow("d-1", "Free coffee", "one per visit", int32(3))
	mock.ExpectQuery(`SELECT\s+id,\s*title,\s*description,\s*usage_cap\s+FROM\s+deals\s+WHERE\s+id`).
		WithArgs("d-1").
		WillReturnRows(rows)

	deal, err := repo.GetByID(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if deal.UsageCap == nil || *deal.UsageCap != 3 {
		t.Fatalf("unexpected usage cap: %+v", deal.UsageCap)
	}
}

func TestGetByID_UnlimitedCap(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "title", "description", "usage_cap"}).
		AddRow("d-2", "BOGO", "", nil)
	mock.ExpectQuery(`FROM\s+deals\s+WHERE\s+id`).
		WithArgs("d-2").
		WillReturnRows(rows)

	deal, err := repo.GetByID(context.Background(), "d-2")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if deal.UsageCap != nil {
		t.Fatalf("want nil usage cap, got %v", *deal.UsageCap)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+deals\s+WHERE\s+id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "title", "description", "usage_cap"}).
		AddRow("d-2", "BOGO", "", nil).
		AddRow("d-1", "Free coffee", "one per visit", int32(3))
	mock.ExpectQuery(`FROM\s+deals\s+ORDER\s+BY\s+title`).
		WillReturnRows(rows)

	deals, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(deals) != 2 {
		t.Fatalf("unexpected deals: %+v", deals)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+deals`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "ghost"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
