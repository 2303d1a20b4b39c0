package model

import (
	"strings"
	"time"
)

// User is an account that can sign in. Roles is loaded separately from the
// roles_users join table; PasswordHash is never rendered.
type User struct {
	ID           int64      `json:"id" db:"id"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     *string    `json:"last_name" db:"last_name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password"`
	Active       bool       `json:"active" db:"active"`
	ConfirmedAt  *time.Time `json:"confirmed_at" db:"confirmed_at"`
	RoleSet      `json:"roles" db:"-"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Active
}

func (u *User) FullName() string {
	if u.LastName == nil || *u.LastName == "" {
		return u.FirstName
	}
	return strings.TrimSpace(u.FirstName + " " + *u.LastName)
}
