package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	pkgcrypto "github.com/and161185/health-keeper/internal/crypto"
	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/model"
	"github.com/and161185/health-keeper/internal/repository/docstore"
	"github.com/and161185/health-keeper/internal/repository/memory"
	"github.com/and161185/health-keeper/internal/risk"
	"github.com/and161185/health-keeper/internal/server/httpapi"
	"github.com/and161185/health-keeper/internal/service"
	"github.com/and161185/health-keeper/internal/token"
)

func startServer(t *testing.T) *Client {
	t.Helper()
	store := memory.New()
	creds := service.NewCredentialStore(docstore.NewUserRepo(store),
		pkgcrypto.NewArgon2Hasher(pkgcrypto.Params{Time: 1, Memory: 1024}), nil)
	records := service.NewRecordStore(docstore.NewRecordRepo(store), creds)
	tokens := token.NewService([]byte("client-test"), time.Hour)
	srv := httpapi.New(creds,
		service.NewDiagnosisService(risk.NewRandomAssessor(nil, nil), records),
		service.NewAuthGateway(tokens, creds), tokens, zaptest.NewLogger(t))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL, 5*time.Second)
}

func TestClient_EndToEnd(t *testing.T) {
	t.Parallel()
	c := startServer(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	require.Contains(t, cats, "renal")

	reg, err := c.Register(ctx, "Ann", "ann@x.com", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, reg.Token)

	_, err = c.Register(ctx, "Ann", "ANN@x.com", "pw")
	require.ErrorIs(t, err, errs.ErrDuplicateEmail)
	require.True(t, IsAPIError(err, http.StatusConflict))

	login, err := c.Login(ctx, "ann@x.com", "pw")
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, login.User.ID)

	_, err = c.Login(ctx, "ann@x.com", "bad")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	me, err := c.Me(ctx, login.Token)
	require.NoError(t, err)
	require.Equal(t, "Ann", me.Name)

	me, err = c.Rename(ctx, login.Token, "Anna")
	require.NoError(t, err)
	require.Equal(t, "Anna", me.Name)

	pr, err := c.Predict(ctx, login.Token, "metabolic", model.Answers{"bmi": model.Number(31.5), "diabetic": model.Bool(false)})
	require.NoError(t, err)
	require.NotEmpty(t, pr.RecordID)

	_, err = c.Predict(ctx, login.Token, "metabolic", model.Answers{})
	require.ErrorIs(t, err, errs.ErrValidation)

	hist, err := c.History(ctx, login.Token)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, pr.RecordID, hist[0].ID)

	_, err = c.History(ctx, "")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestClient_ErrorWithoutBody(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(ts.Close)

	err := New(ts.URL, time.Second).Health(context.Background())
	require.ErrorIs(t, err, errs.ErrRateLimited)
	require.Contains(t, err.Error(), "Too Many Requests")
}

func TestClient_TransportError(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	err := New(url, time.Second).Health(context.Background())
	require.Error(t, err)
	require.False(t, IsAPIError(err, http.StatusNotFound))
}
