// Package httpapi exposes the health-keeper HTTP/JSON API on echo.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/and161185/health-keeper/internal/model"
	"github.com/and161185/health-keeper/internal/service"
)

// TokenIssuer issues access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (model.Tokens, error)
}

// Authenticator resolves a raw bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, error)
}

// Server wires services into HTTP handlers.
type Server struct {
	creds  service.CredentialService
	diag   service.DiagnosisService
	gw     Authenticator
	tokens TokenIssuer
	log    *zap.Logger
	health func(context.Context) error
}

// New constructs the HTTP server with injected services.
func New(creds service.CredentialService, diag service.DiagnosisService, gw Authenticator, tokens TokenIssuer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{creds: creds, diag: diag, gw: gw, tokens: tokens, log: log}
}

// WithHealthCheck makes /healthz report the result of fn (e.g. a DB ping).
func (s *Server) WithHealthCheck(fn func(context.Context) error) *Server {
	s.health = fn
	return s
}

// Handler builds the echo instance with middleware and routes.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(echomw.RequestID())
	e.Use(RequestLogger(s.log))
	e.Use(Recover(s.log))
	e.Use(echomw.BodyLimit("1M"))

	e.GET("/healthz", s.healthz)

	a := e.Group("/auth")
	a.POST("/register", s.register)
	a.POST("/login", s.login)
	a.GET("/me", s.me, RequireAuth(s.gw))
	a.PATCH("/me", s.rename, RequireAuth(s.gw))

	d := e.Group("/diagnosis")
	d.GET("/categories", s.categories)
	d.POST("/predict", s.predict, RequireAuth(s.gw))
	d.GET("/history", s.history, RequireAuth(s.gw))

	return e
}

func (s *Server) healthz(c echo.Context) error {
	if s.health != nil {
		if err := s.health(c.Request().Context()); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
