package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/auth"
)

// SessionCookieName es la cookie HttpOnly donde viaja el token de sesión.
const SessionCookieName = "token"

type ctxKey string

const identityKey ctxKey = "identity"

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Authenticate verifica la credencial cruda. Errores de token (faltante,
// inválido, vencido) salen como ErrUnauthenticated; cualquier otro es una falla.
func Authenticate(ctx context.Context, verifier auth.SessionVerifier, raw string) (auth.Identity, error) {
	if raw == "" {
		return auth.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, auth.ErrMissingToken)
	}

	id, err := verifier.Verify(ctx, raw)
	if err != nil {
		if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
			return auth.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		return auth.Identity{}, err
	}
	return id, nil
}

// Authorize exige un rol exacto.
func Authorize(id auth.Identity, role auth.Role) error {
	if id.Role != role {
		return ErrForbidden
	}
	return nil
}

// AuthContext:
// - Lee la cookie de sesión y, si verifica, guarda la identidad en el ctx.
// - Sin cookie o con token inválido el request sigue anónimo; RequireAuth decide.
// - Si el verificador falla (p. ej. el store de revocación no responde) corta con 500.
func AuthContext(verifier auth.SessionVerifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := Authenticate(r.Context(), verifier, c.Value)
			if err != nil {
				if !errors.Is(err, ErrUnauthenticated) {
					logger.FromContext(r.Context(), log).Error("session verification failed", map[string]any{"error": err})
					writeMessage(w, http.StatusInternalServerError, "internal error")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			ctx = logger.IntoContext(ctx, logger.FromContext(ctx, log).With(map[string]any{"user_id": id.UserID}))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	if !ok || id.UserID == "" {
		return auth.Identity{}, false
	}
	return id, true
}

// WithIdentity es para tests de handlers que no pasan por AuthContext.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
