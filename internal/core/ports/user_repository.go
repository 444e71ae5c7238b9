package ports

import (
	"context"

	"github.com/authsvc/auth-api/internal/core/domain"
)

// UserRepository is the credential store. Implementations must enforce email
// uniqueness themselves and report a violation as domain.ErrEmailTaken.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Insert persists user and returns it with the store-assigned ID.
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
}

// RegistrationLock serialises concurrent registrations of the same email.
type RegistrationLock interface {
	// Acquire reports whether the lock was taken and, if so, the token that
	// identifies this holder.
	Acquire(ctx context.Context, email string) (token string, ok bool, err error)
	// Release frees the lock only while it is still held under token.
	Release(ctx context.Context, email, token string) error
}
