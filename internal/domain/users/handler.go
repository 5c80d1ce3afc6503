package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pawfect-match/internal/middleware"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/platform/schema"
	"pawfect-match/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// SessionManager emite y revoca las credenciales de sesión.
type SessionManager interface {
	Issue(userID string, role auth.Role) (token string, expiresAt time.Time, err error)
	Revoke(ctx context.Context, token string) error
}

type HandlerDeps struct {
	Sessions     SessionManager
	CookieSecure bool
	// LoginLimiter envuelve solo /login (rate limit por IP). Opcional.
	LoginLimiter func(http.Handler) http.Handler
	Logger       logger.Logger
}

func RegisterRoutes(r chi.Router, svc *Service, deps HandlerDeps) {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	r.Route("/users", func(ur chi.Router) {
		ur.Post("/register", registerHandler(svc, deps.Logger))

		login := http.Handler(loginHandler(svc, deps))
		if deps.LoginLimiter != nil {
			login = deps.LoginLimiter(login)
		}
		ur.Method(http.MethodPost, "/login", login)

		ur.With(middleware.RequireAuth).Get("/me", meHandler(svc, deps.Logger))
		ur.Post("/logout", logoutHandler(deps))
	})
}

type registerRequest struct {
	Name     string `json:"name" jsonschema:"minLength=1,maxLength=100"`
	Email    string `json:"email" jsonschema:"minLength=3,maxLength=254"`
	// el límite de bcrypt (bytes) lo aplica Register con ErrPasswordTooLong;
	// maxLength solo acota el body
	Password string `json:"password" jsonschema:"minLength=1,maxLength=1024"`
}

type loginRequest struct {
	Email    string `json:"email" jsonschema:"minLength=1,maxLength=254"`
	Password string `json:"password" jsonschema:"minLength=1,maxLength=128"`
}

type profileResponse struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type lockedResponse struct {
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

type invalidCredentialsResponse struct {
	Message      string `json:"message"`
	AttemptsLeft int    `json:"attempts_left"`
}

type loginResponse struct {
	Message string          `json:"message"`
	User    profileResponse `json:"user"`
}

// registerHandler godoc
// @Summary Registrar usuario
// @Description El rol es admin solo si el email coincide con el email de administrador configurado.
// @Tags users
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} messageResponse
// @Failure 400 {object} messageResponse "input inválido o password débil"
// @Failure 409 {object} messageResponse "email ya registrado"
// @Router /users/register [post]
func registerHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := schema.Decode(r.Body, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		_, err := svc.Register(r.Context(), RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, messageResponse{Message: "User registered successfully"})
	}
}

// loginHandler godoc
// @Summary Login
// @Description Setea la cookie de sesión HttpOnly `token`. Tras 3 intentos fallidos la cuenta queda bloqueada 1 hora.
// @Tags users
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 401 {object} invalidCredentialsResponse
// @Failure 403 {object} lockedResponse "cuenta bloqueada"
// @Failure 404 {object} messageResponse "usuario inexistente"
// @Failure 429 {object} messageResponse "rate limit"
// @Router /users/login [post]
func loginHandler(svc *Service, deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := schema.Decode(r.Body, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		u, err := svc.VerifyCredentials(r.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(w, r, deps.Logger, err)
			return
		}

		token, exp, err := deps.Sessions.Issue(u.ID, u.Role)
		if err != nil {
			logger.FromContext(r.Context(), deps.Logger).Error("issue session failed", map[string]any{"error": err})
			writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    token,
			Path:     "/",
			Expires:  exp,
			MaxAge:   int(time.Until(exp).Seconds()),
			HttpOnly: true,
			Secure:   deps.CookieSecure,
			SameSite: http.SameSiteStrictMode,
		})

		writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", User: toProfileResponse(u.Profile())})
	}
}

// meHandler godoc
// @Summary Usuario actual
// @Tags users
// @Produce json
// @Success 200 {object} profileResponse
// @Failure 401 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /users/me [get]
func meHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := middleware.GetIdentity(r.Context())

		p, err := svc.GetByID(r.Context(), id.UserID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

func logoutHandler(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(middleware.SessionCookieName); err == nil && c.Value != "" {
			err := deps.Sessions.Revoke(r.Context(), c.Value)
			// un token ya inválido o vencido no tiene nada que revocar
			if err != nil && !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrExpiredToken) {
				logger.FromContext(r.Context(), deps.Logger).Error("revoke session failed", map[string]any{"error": err})
				writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
				return
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   deps.CookieSecure,
			SameSite: http.SameSiteStrictMode,
		})
		writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var locked *LockedError
	var invalid *InvalidCredentialsError

	switch {
	case errors.As(err, &locked):
		w.Header().Set("Retry-After", strconv.Itoa(locked.Seconds()))
		writeJSON(w, http.StatusForbidden, lockedResponse{
			Message:           locked.Error(),
			RetryAfterSeconds: locked.Seconds(),
		})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnauthorized, invalidCredentialsResponse{
			Message:      invalid.Error(),
			AttemptsLeft: invalid.AttemptsLeft,
		})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "User not found"})
	case errors.Is(err, ErrDuplicateEmail):
		writeJSON(w, http.StatusConflict, messageResponse{Message: err.Error()})
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrWeakPassword), errors.Is(err, ErrPasswordTooLong):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
	default:
		logger.FromContext(r.Context(), log).Error("users: unexpected error", map[string]any{"error": err})
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
	}
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: ve.Error()})
		return
	}
	writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid json"})
}

func toProfileResponse(p Profile) profileResponse {
	return profileResponse{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
