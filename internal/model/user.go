package model

import "nananom-farms/site/internal/store"

const (
	RoleAdmin   = "admin"
	RoleSupport = "support"

	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	PasswordHash  string `json:"-"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	LoginAttempts int64  `json:"login_attempts"`
	LockedUntil   string `json:"locked_until,omitempty"`
	LastLogin     string `json:"last_login,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func UserFromRecord(r store.Record) User {
	return User{
		ID:            r.ID(),
		Username:      r.String("username"),
		PasswordHash:  r.String("password_hash"),
		Email:         r.String("email"),
		FirstName:     r.String("first_name"),
		LastName:      r.String("last_name"),
		Role:          r.String("role"),
		Status:        r.String("status"),
		LoginAttempts: r.Int("login_attempts"),
		LockedUntil:   r.String("locked_until"),
		LastLogin:     r.String("last_login"),
		CreatedAt:     r.String("created_at"),
		UpdatedAt:     r.String("updated_at"),
	}
}
