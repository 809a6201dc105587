package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	pkgcrypto "github.com/and161185/health-keeper/internal/crypto"
	"github.com/and161185/health-keeper/internal/repository/docstore"
	"github.com/and161185/health-keeper/internal/repository/memory"
	"github.com/and161185/health-keeper/internal/risk"
	"github.com/and161185/health-keeper/internal/service"
	"github.com/and161185/health-keeper/internal/token"
)

var testKey = []byte("httpapi-test-key")

type testEnv struct {
	e      *echo.Echo
	tokens *token.Service
	creds  *service.CredentialStore
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	store := memory.New()
	creds := service.NewCredentialStore(
		docstore.NewUserRepo(store),
		pkgcrypto.NewArgon2Hasher(pkgcrypto.Params{Time: 1, Memory: 1024}),
		nil,
	)
	records := service.NewRecordStore(docstore.NewRecordRepo(store), creds)
	diag := service.NewDiagnosisService(risk.NewRandomAssessor(nil, nil), records)
	tokens := token.NewService(testKey, time.Hour)
	gw := service.NewAuthGateway(tokens, creds)

	srv := New(creds, diag, gw, tokens, zaptest.NewLogger(t))
	return testEnv{e: srv.Handler(), tokens: tokens, creds: creds}
}

func (env testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
}
