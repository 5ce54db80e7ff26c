// Package storage wires the persistent backends (PostgreSQL and Redis)
// and hands out repositories. Components receive their store handles
// through constructors; nothing holds global connection state.
package storage

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/deals"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/redemptions"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/sessions"
)

type Manager interface {
	RunMigrations(ctx context.Context) error
	Conn() *sql.DB
	Credentials() credentials.Repository
	Deals() deals.Repository
	Redemptions() redemptions.Repository
	Sessions() sessions.Repository

	// Health pings every backend and reports failures per backend name.
	Health(ctx context.Context) map[string]error

	Close() error
}
