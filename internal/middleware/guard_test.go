package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/auth"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier map[string]auth.Identity

var errBackend = errors.New("revocation store down")

func (f fakeVerifier) Verify(_ context.Context, token string) (auth.Identity, error) {
	switch token {
	case "expired":
		return auth.Identity{}, auth.ErrExpiredToken
	case "broken":
		return auth.Identity{}, errBackend
	}
	id, ok := f[token]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return id, nil
}

var verifier = fakeVerifier{
	"user-token":  {UserID: "u1", Role: auth.RoleUser},
	"admin-token": {UserID: "a1", Role: auth.RoleAdmin},
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	id, err := Authenticate(ctx, verifier, "admin-token")
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())

	for _, raw := range []string{"", "nope", "expired"} {
		_, err := Authenticate(ctx, verifier, raw)
		assert.ErrorIs(t, err, ErrUnauthenticated, raw)
	}

	_, err = Authenticate(ctx, verifier, "expired")
	assert.ErrorIs(t, err, auth.ErrExpiredToken)

	_, err = Authenticate(ctx, verifier, "broken")
	assert.ErrorIs(t, err, errBackend)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize(auth.Identity{UserID: "a", Role: auth.RoleAdmin}, auth.RoleAdmin))
	assert.ErrorIs(t, Authorize(auth.Identity{UserID: "u", Role: auth.RoleUser}, auth.RoleAdmin), ErrForbidden)
}

func serve(t *testing.T, h http.Handler, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestGuards(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, has := GetIdentity(r.Context()); !has {
			t.Error("identity expected in context")
		}
		w.WriteHeader(http.StatusOK)
	})
	withAuth := AuthContext(verifier, logger.Nop())

	authOnly := withAuth(RequireAuth(ok))
	adminOnly := withAuth(RequireRole(auth.RoleAdmin)(ok))

	tests := []struct {
		name  string
		h     http.Handler
		token string
		want  int
	}{
		{"auth: no cookie", authOnly, "", http.StatusUnauthorized},
		{"auth: invalid", authOnly, "nope", http.StatusUnauthorized},
		{"auth: expired", authOnly, "expired", http.StatusUnauthorized},
		{"auth: backend failure", authOnly, "broken", http.StatusInternalServerError},
		{"auth: user", authOnly, "user-token", http.StatusOK},
		{"admin: anonymous", adminOnly, "", http.StatusUnauthorized},
		{"admin: user", adminOnly, "user-token", http.StatusForbidden},
		{"admin: admin", adminOnly, "admin-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(t, tt.h, tt.token))
		})
	}
}

func TestAuthContext_BackendFailureIsServerError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})

	called := false
	h := AuthContext(verifier, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	// una ruta pública tampoco sigue como anónima si el verificador falla
	req := httptest.NewRequest(http.MethodGet, "/api/pets", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "broken"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"internal error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "session verification failed")
	assert.Contains(t, buf.String(), errBackend.Error())

	// token inválido: sigue anónimo
	called = false
	assert.Equal(t, http.StatusOK, serve(t, h, "nope"))
	assert.True(t, called)
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})

	h := chimw.RequestID(RequestLogger(log)(Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))))

	req := httptest.NewRequest(http.MethodGet, "/api/pets", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"internal error"}`, rec.Body.String())

	var panicLine, accessLine map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		switch entry["msg"] {
		case "panic recovered":
			panicLine = entry
		case "request":
			accessLine = entry
		}
	}
	require.NotNil(t, panicLine)
	assert.Equal(t, "boom", panicLine["panic"])
	assert.Equal(t, "req-1", panicLine["request_id"])
	assert.NotEmpty(t, panicLine["stack"])
	require.NotNil(t, accessLine)
	assert.EqualValues(t, http.StatusInternalServerError, accessLine["status"])
}

func TestRecover_WithoutRequestLogger(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"internal error"}`, rec.Body.String())
}

func TestRecover_HandlerErrorsPassThrough(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusInternalServerError, "db down")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"db down"}`, rec.Body.String())
}

func TestRecover_AbortHandlerRepanics(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), req)
	})
}
