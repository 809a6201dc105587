package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/model"
	"github.com/and161185/health-keeper/internal/repository"
)

// userDoc is the stored form of model.User.
type userDoc struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (d userDoc) model() *model.User {
	return &model.User{ID: d.ID, Name: d.Name, Email: d.Email, PasswordHash: d.PasswordHash, CreatedAt: d.CreatedAt}
}

// UserRepo implements repository.UserRepository on the users collection.
type UserRepo struct {
	c *Collection[userDoc]
}

var _ repository.UserRepository = (*UserRepo)(nil)

// NewUserRepo constructs a user repository.
func NewUserRepo(store repository.Persistence) *UserRepo {
	return &UserRepo{c: NewCollection[userDoc](store, repository.CollectionUsers, 0)}
}

// Create appends u; the email uniqueness check runs inside the same commit cycle.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	email := model.NormalizeEmail(u.Email)
	return r.c.Update(ctx, func(users []userDoc) ([]userDoc, error) {
		for _, x := range users {
			if x.Email == email {
				return nil, errs.ErrDuplicateEmail
			}
			if x.ID == u.ID {
				return nil, fmt.Errorf("user %s: %w", u.ID, errs.ErrVersionConflict)
			}
		}
		return append(users, userDoc{
			ID:           u.ID,
			Name:         u.Name,
			Email:        email,
			PasswordHash: u.PasswordHash,
			CreatedAt:    u.CreatedAt,
		}), nil
	})
}

// GetByID loads a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	users, err := r.c.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, x := range users {
		if x.ID == id {
			return x.model(), nil
		}
	}
	return nil, errs.ErrNotFound
}

// GetByEmail loads a user by case-insensitive email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	users, err := r.c.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, x := range users {
		if x.Email == email {
			return x.model(), nil
		}
	}
	return nil, errs.ErrNotFound
}

// UpdateName sets the display name of an existing user.
func (r *UserRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) (*model.User, error) {
	var out *model.User
	err := r.c.Update(ctx, func(users []userDoc) ([]userDoc, error) {
		for i := range users {
			if users[i].ID == id {
				users[i].Name = name
				out = users[i].model()
				return users, nil
			}
		}
		return nil, errs.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
