// Package client is a typed HTTP client for the health-keeper API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/and161185/health-keeper/internal/convert"
	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/model"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("server: %d %s", e.Status, e.Message)
}

// Is lets callers match API failures against the shared sentinels.
func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusBadRequest:
		return target == errs.ErrValidation
	case http.StatusUnauthorized:
		return target == errs.ErrUnauthorized
	case http.StatusNotFound:
		return target == errs.ErrNotFound
	case http.StatusConflict:
		return target == errs.ErrDuplicateEmail
	case http.StatusTooManyRequests:
		return target == errs.ErrRateLimited
	}
	return false
}

// Client calls the health-keeper HTTP API. It is safe for concurrent use.
type Client struct {
	http *resty.Client
}

// New constructs a client for baseURL (e.g. http://localhost:8080).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: hc}
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, name, email, password string) (convert.AuthResponse, error) {
	var out convert.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", "",
		convert.RegisterRequest{Name: name, Email: email, Password: password}, &out)
	return out, err
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (convert.AuthResponse, error) {
	var out convert.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "",
		convert.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

// Me returns the profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (convert.UserView, error) {
	var out convert.UserResponse
	err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out)
	return out.User, err
}

// Rename changes the caller's display name.
func (c *Client) Rename(ctx context.Context, token, name string) (convert.UserView, error) {
	var out convert.UserResponse
	err := c.do(ctx, http.MethodPatch, "/auth/me", token, convert.RenameRequest{Name: name}, &out)
	return out.User, err
}

// Categories lists the categories accepted by Predict.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out convert.CategoriesResponse
	err := c.do(ctx, http.MethodGet, "/diagnosis/categories", "", nil, &out)
	return out.Categories, err
}

// Predict submits answers for assessment; the result is stored server-side.
func (c *Client) Predict(ctx context.Context, token, category string, answers model.Answers) (convert.PredictResponse, error) {
	var out convert.PredictResponse
	err := c.do(ctx, http.MethodPost, "/diagnosis/predict", token,
		convert.PredictRequest{Category: category, InputAnswers: answers}, &out)
	return out, err
}

// History returns the caller's records, oldest first.
func (c *Client) History(ctx context.Context, token string) ([]convert.RecordView, error) {
	var out convert.HistoryResponse
	err := c.do(ctx, http.MethodGet, "/diagnosis/history", token, nil, &out)
	return out.Records, err
}

// Health returns nil when the server reports ok.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, result any) error {
	var apiErr convert.ErrorResponse
	req := c.http.R().SetContext(ctx).SetError(&apiErr)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

// IsAPIError reports whether err carries a server response with the given status.
func IsAPIError(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}
