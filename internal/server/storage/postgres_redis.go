package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/dealkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/deals"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/redemptions"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/sessions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
)

// PostgresRedisManager keeps relational state (credentials, deals,
// redemptions) in PostgreSQL and the session ledger in Redis.
type PostgresRedisManager struct {
	db          *sql.DB
	redisClient *redis.Client

	credentials credentials.Repository
	deals       deals.Repository
	redemptions redemptions.Repository
	sessions    *sessions.RedisRepository
}

func (m *PostgresRedisManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRedisManager) Credentials() credentials.Repository {
	return m.credentials
}

func (m *PostgresRedisManager) Deals() deals.Repository {
	return m.deals
}

func (m *PostgresRedisManager) Redemptions() redemptions.Repository {
	return m.redemptions
}

func (m *PostgresRedisManager) Sessions() sessions.Repository {
	return m.sessions
}

func (m *PostgresRedisManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func (m *PostgresRedisManager) Health(ctx context.Context) map[string]error {
	return map[string]error{
		"postgres": m.db.PingContext(ctx),
		"redis":    m.sessions.Ping(ctx),
	}
}

func (m *PostgresRedisManager) Close() error {
	if err := m.redisClient.Close(); err != nil {
		_ = m.db.Close()
		return err
	}
	return m.db.Close()
}

// NewPostgresRedisManager opens both backends, builds the repositories and
// applies pending migrations.
func NewPostgresRedisManager(dsn, redisAddr, redisPassword string, redisDB int) (Manager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	m := &PostgresRedisManager{
		db:          db,
		redisClient: redisClient,
		credentials: credentials.NewPostgresRepository(db),
		deals:       deals.NewPostgresRepository(db),
		redemptions: redemptions.NewPostgresRepository(db),
		sessions:    sessions.NewRedisRepository(redisClient),
	}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
