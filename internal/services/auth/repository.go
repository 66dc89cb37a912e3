package auth

import (
	"context"
	"errors"
)

// ErrDuplicate is returned when trying to create a user whose email or
// username already exists.
var ErrDuplicate = errors.New("user already exists")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UsersRepo defines the interface for user repository operations
type UsersRepo interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
}
