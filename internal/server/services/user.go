// Package services contains server-side business logic. This file
// implements UserService: registration, credential verification, session
// issue/revoke, and account management.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dealkeeper/internal/common"
	"github.com/dmitrijs2005/dealkeeper/internal/dbx"
	"github.com/dmitrijs2005/dealkeeper/internal/server/auth"
	"github.com/dmitrijs2005/dealkeeper/internal/server/config"
	"github.com/dmitrijs2005/dealkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/redemptions"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/sessions"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthResult bundles a user with a freshly minted, already-activated token.
type AuthResult struct {
	User  *models.User
	Token string
}

// UserUpdate lists the mutable account fields; empty fields are left as-is.
type UserUpdate struct {
	UserName string
	Role     models.Role
	Password string
}

// UserService owns credential records and the session lifecycle.
type UserService struct {
	db         *sql.DB
	creds      credentials.Repository
	sessions   sessions.Repository
	jwtSecret  []byte
	bcryptCost int
}

// NewUserService constructs a UserService using repositories and server
// config. db is only used for multi-repository transactions.
func NewUserService(db *sql.DB, creds credentials.Repository, sess sessions.Repository, cfg *config.Config) *UserService {
	return &UserService{
		db:         db,
		creds:      creds,
		sessions:   sess,
		jwtSecret:  []byte(cfg.SecretKey),
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a new user and logs it in. Plaintext passwords are
// hashed with bcrypt and never stored.
func (s *UserService) Register(ctx context.Context, username, password string, role models.Role) (*AuthResult, error) {
	if username == "" || password == "" || !role.Valid() {
		return nil, common.ErrorValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		Role:         role,
		PasswordHash: hash,
	}

	if err := s.creds.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user)
}

// Login verifies credentials and mints a session token. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.creds.GetByUserName(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
			return nil, common.ErrorInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return nil, common.ErrorInvalidCredentials
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return result, nil
}

// issueSession signs a token for user and activates its signature in the
// session ledger. Register, Login and Update all go through here; an
// earlier token of the same user stays active until its own logout.
func (s *UserService) issueSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorInternal
	}

	sig := auth.TokenSignature(token)
	if sig == "" {
		return nil, common.ErrorInternal
	}

	if err := s.sessions.Activate(ctx, user.ID, sig); err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Logout deactivates the token's session. It succeeds even when the
// session is already gone: the caller proved authentication to get here,
// and a second logout must be a no-op.
func (s *UserService) Logout(ctx context.Context, token string) error {
	sig := auth.TokenSignature(token)
	if sig == "" {
		return nil
	}
	return s.sessions.Deactivate(ctx, sig)
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.creds.GetByID(ctx, id)
}

// Update applies the non-empty fields of upd and mints a fresh token
// carrying the new claims. Old tokens keep their (now stale) claims and
// stay active until logged out.
func (s *UserService) Update(ctx context.Context, id string, upd UserUpdate) (*AuthResult, error) {
	user, err := s.creds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.UserName != "" {
		user.UserName = upd.UserName
	}
	if upd.Role != "" {
		if !upd.Role.Valid() {
			return nil, common.ErrorValidation
		}
		user.Role = upd.Role
	}
	if upd.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(upd.Password), s.bcryptCost)
		if err != nil {
			return nil, common.ErrorInternal
		}
		user.PasswordHash = hash
	}

	if err := s.creds.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user)
}

// List returns one page of users plus a flag telling whether more pages
// follow. Page numbering starts at zero; filter supports '*' wildcards.
func (s *UserService) List(ctx context.Context, page, limit int, filter string) ([]*models.User, bool, error) {
	if limit <= 0 {
		limit = 10
	}
	if page < 0 {
		page = 0
	}

	// fetch one extra row to detect a next page
	users, err := s.creds.List(ctx, page*limit, limit+1, filter)
	if err != nil {
		return nil, false, err
	}

	more := len(users) > limit
	if more {
		users = users[:limit]
	}

	return users, more, nil
}

// Delete removes the account and its redemption records in one
// transaction. Live sessions of the deleted user are not swept here;
// their ledger entries remain until an explicit logout.
func (s *UserService) Delete(ctx context.Context, id string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := redemptions.NewPostgresRepository(tx).DeleteForUser(ctx, id); err != nil {
			return err
		}
		return credentials.NewPostgresRepository(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error deleting user: %w", err)
	}
	return nil
}
