// Package credentials provides a PostgreSQL-backed repository for user
// credential records.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dealkeeper/internal/common"
	"github.com/dmitrijs2005/dealkeeper/internal/dbx"
	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new credential record. A username collision yields
// common.ErrorDuplicateUsername.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, role, password_hash)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.UserName, string(user.Role), user.PasswordHash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorDuplicateUsername
		}
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	return nil
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	query := `
		SELECT id, username, role, password_hash, created_at FROM users
		WHERE username = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userName))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, role, password_hash, created_at FROM users
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var role string
	if err := row.Scan(&user.ID, &user.UserName, &role, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	user.Role = models.Role(role)
	return user, nil
}

// Update rewrites username, role and password hash for an existing record.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET username = $2, role = $3, password_hash = $4
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, user.ID, user.UserName, string(user.Role), user.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorDuplicateUsername
		}
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes a credential record by id. Deleting an absent id yields
// common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// List returns a page of users whose username matches the filter.
// The filter uses '*' as a wildcard ("al*" matches "alice") and is
// case-insensitive; an empty filter matches everyone.
func (r *PostgresRepository) List(ctx context.Context, offset, limit int, userNameFilter string) ([]*models.User, error) {
	pattern := strings.ReplaceAll(userNameFilter, "*", "%")
	if pattern == "" {
		pattern = "%"
	}

	query := `
		SELECT id, username, role, password_hash, created_at FROM users
		WHERE username ILIKE $1
		ORDER BY username
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, pattern, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		var role string
		if err := rows.Scan(&user.ID, &user.UserName, &role, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
		}
		user.Role = models.Role(role)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}

	return users, nil
}
