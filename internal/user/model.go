package user

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}
