// Package service contains application services for accounts and diagnosis records.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/limiter"
	"github.com/and161185/health-keeper/internal/model"
	"github.com/and161185/health-keeper/internal/repository"
)

// PasswordHasher produces and checks self-describing password digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// CredentialService defines account operations.
type CredentialService interface {
	// Register creates a new account with a hashed password.
	Register(ctx context.Context, name, email, password string) (model.User, error)
	// Login checks credentials, applying rate-limiting by (email, ip).
	Login(ctx context.Context, email, password, ip string) (model.User, error)
	// FindByID resolves a user id.
	FindByID(ctx context.Context, id uuid.UUID) (model.User, error)
	// UpdateName changes the display name of the given account.
	UpdateName(ctx context.Context, id uuid.UUID, name string) (model.User, error)
}

// CredentialStore implements CredentialService on top of a UserRepository.
type CredentialStore struct {
	users  repository.UserRepository
	hasher PasswordHasher
	lim    limiter.Limiter
	now    func() time.Time

	dummyOnce sync.Once
	dummy     string
}

var _ CredentialService = (*CredentialStore)(nil)

// NewCredentialStore constructs a CredentialStore. A nil limiter disables rate limiting.
func NewCredentialStore(users repository.UserRepository, hasher PasswordHasher, lim limiter.Limiter) *CredentialStore {
	if lim == nil {
		lim = limiter.Nop{}
	}
	return &CredentialStore{users: users, hasher: hasher, lim: lim, now: time.Now}
}

// Register validates input, hashes the password and persists the account.
func (s *CredentialStore) Register(ctx context.Context, name, email, password string) (model.User, error) {
	name = strings.TrimSpace(name)
	email = model.NormalizeEmail(email)
	switch {
	case name == "":
		return model.User{}, fmt.Errorf("%w: name is required", errs.ErrValidation)
	case email == "":
		return model.User{}, fmt.Errorf("%w: email is required", errs.ErrValidation)
	case password == "":
		return model.User{}, fmt.Errorf("%w: password is required", errs.ErrValidation)
	}

	// Cheap pre-check so a duplicate does not pay for hashing. Create re-checks atomically.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.User{}, errs.ErrDuplicateEmail
	} else if !errors.Is(err, errs.ErrNotFound) {
		return model.User{}, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.User{}, err
	}

	u := &model.User{
		ID:           uid,
		Name:         name,
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.User{}, err
	}
	return *u, nil
}

// Login authenticates with rate limiting by (email, ip).
// Unknown email and wrong password are indistinguishable to the caller.
func (s *CredentialStore) Login(ctx context.Context, email, password, ip string) (model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return model.User{}, fmt.Errorf("%w: email and password are required", errs.ErrValidation)
	}
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.User{}, err
	}
	if !allowed {
		return model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if s.hasher.Verify(password, u.PasswordHash) {
			_ = s.lim.Success(ctx, email, ipHash)
			return *u, nil
		}
	case errors.Is(err, errs.ErrNotFound):
		// burn the same hashing cost as a real verify
		s.hasher.Verify(password, s.dummyDigest())
	default:
		return model.User{}, err
	}

	if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
		return model.User{}, errs.ErrRateLimited
	}
	return model.User{}, errs.ErrInvalidCredentials
}

// FindByID returns errs.ErrNotFound when the id does not resolve.
func (s *CredentialStore) FindByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	if id == uuid.Nil {
		return model.User{}, errs.ErrNotFound
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	return *u, nil
}

// UpdateName renames the account. Email is untouched.
func (s *CredentialStore) UpdateName(ctx context.Context, id uuid.UUID, name string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	if id == uuid.Nil {
		return model.User{}, errs.ErrNotFound
	}
	u, err := s.users.UpdateName(ctx, id, name)
	if err != nil {
		return model.User{}, err
	}
	return *u, nil
}

func (s *CredentialStore) dummyDigest() string {
	s.dummyOnce.Do(func() {
		d, err := s.hasher.Hash("health-keeper:no-such-user")
		if err == nil {
			s.dummy = d
		}
	})
	return s.dummy
}
