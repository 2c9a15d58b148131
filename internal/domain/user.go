package domain

import (
	"context"
	"time"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type AuthResult struct {
	Authenticated bool   `json:"authenticated"`
	UserID        int64  `json:"user_id"`
	Token         string `json:"token,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

type UserUseCase interface {
	RegisterUser(ctx context.Context, name, email, phone, password string) (*User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*AuthResult, error)
	GetUserProfile(ctx context.Context, id int64) (*User, error)
}
