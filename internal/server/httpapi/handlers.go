package httpapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/and161185/health-keeper/internal/convert"
	"github.com/and161185/health-keeper/internal/errs"
)

// --- Auth ---

func (s *Server) register(c echo.Context) error {
	var req convert.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	u, err := s.creds.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	return c.JSON(http.StatusCreated, convert.ToAuthResponse(tok, u))
}

func (s *Server) login(c echo.Context) error {
	var req convert.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	u, err := s.creds.Login(c.Request().Context(), req.Email, req.Password, c.RealIP())
	if err != nil {
		return err
	}
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	return c.JSON(http.StatusOK, convert.ToAuthResponse(tok, u))
}

func (s *Server) me(c echo.Context) error {
	p, ok := PrincipalFromCtx(c.Request().Context())
	if !ok {
		return errs.ErrUnauthorized
	}
	u, err := s.creds.FindByID(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.UserResponse{User: convert.ToUserView(u)})
}

func (s *Server) rename(c echo.Context) error {
	p, ok := PrincipalFromCtx(c.Request().Context())
	if !ok {
		return errs.ErrUnauthorized
	}
	var req convert.RenameRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	u, err := s.creds.UpdateName(c.Request().Context(), p.ID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.UserResponse{User: convert.ToUserView(u)})
}

// --- Diagnosis ---

func (s *Server) predict(c echo.Context) error {
	p, ok := PrincipalFromCtx(c.Request().Context())
	if !ok {
		return errs.ErrUnauthorized
	}
	var req convert.PredictRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	rec, err := s.diag.Submit(c.Request().Context(), p.ID, req.Category, req.InputAnswers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToPredictResponse(rec))
}

func (s *Server) history(c echo.Context) error {
	p, ok := PrincipalFromCtx(c.Request().Context())
	if !ok {
		return errs.ErrUnauthorized
	}
	recs, err := s.diag.History(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.HistoryResponse{Records: convert.ToRecordViews(recs)})
}

func (s *Server) categories(c echo.Context) error {
	return c.JSON(http.StatusOK, convert.ToCategoriesResponse(s.diag.Categories()))
}

// bindJSON decodes the request body; malformed input is a validation error.
func bindJSON(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return fmt.Errorf("%w: malformed request body", errs.ErrValidation)
	}
	return nil
}
