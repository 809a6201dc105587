package repository

import (
	"context"

	"github.com/and161185/health-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to user accounts.
type UserRepository interface {
	// Create inserts a new user; errs.ErrDuplicateEmail if the normalized email is taken.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateName changes the display name and returns the updated user.
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*model.User, error)
}
