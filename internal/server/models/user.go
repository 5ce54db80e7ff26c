// Package models holds the persisted entities shared by repositories and
// services.
package models

import "time"

// Role is the single role a user acts as. Tokens embed it verbatim.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is a credential record. PasswordHash is a bcrypt hash and never
// leaves the credentials repository/service boundary.
type User struct {
	ID           string
	UserName     string
	Role         Role
	PasswordHash []byte
	CreatedAt    time.Time
}
