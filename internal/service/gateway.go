package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/model"
)

// TokenVerifier checks a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(raw string) (uuid.UUID, error)
}

// AuthGateway resolves bearer tokens to principals.
type AuthGateway struct {
	tokens TokenVerifier
	users  UserFinder
}

// NewAuthGateway constructs an AuthGateway.
func NewAuthGateway(tokens TokenVerifier, users UserFinder) *AuthGateway {
	return &AuthGateway{tokens: tokens, users: users}
}

// Authenticate verifies raw and loads the user it names.
// Every failure wraps errs.ErrUnauthorized; the cause stays in the chain for logging.
func (g *AuthGateway) Authenticate(ctx context.Context, raw string) (model.User, error) {
	id, err := g.tokens.Verify(raw)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("%w: %w", errs.ErrUnauthorized, err)
	}
	u, err := g.users.FindByID(ctx, id)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: principal %s: %w", errs.ErrUnauthorized, id, err)
	}
	return u, nil
}
