package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	_ "pawfect-match/docs"
	"pawfect-match/internal/domain/adoptions"
	"pawfect-match/internal/domain/pets"
	"pawfect-match/internal/domain/users"
	"pawfect-match/internal/middleware"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/platform/metrics"
	"pawfect-match/internal/platform/ratelimit"
	"pawfect-match/internal/ports/auth"
	"pawfect-match/internal/ports/blob"
	"pawfect-match/internal/ports/tx"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Sessions verifica, emite y revoca sesiones (jwtsession.Issuer).
type Sessions interface {
	auth.SessionVerifier
	users.SessionManager
}

// Pinger reporta si el storage responde (para /health). Opcional.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger logger.Logger

	Users     users.Repository
	Pets      pets.Repository
	Adoptions adoptions.Repository
	Tx        tx.Transactor
	Health    Pinger

	Blobs blob.Store
	// Uploads sirve los blobs locales bajo UploadsPrefix. nil si el blob store es remoto.
	Uploads       http.Handler
	UploadsPrefix string

	Sessions     Sessions
	CookieSecure bool
	AdminEmail   string
	HashCost     int

	// Opcionales
	Metrics      *metrics.Metrics
	LoginLimiter *ratelimit.Limiter
	CORSOrigins  []string
}

// NewRouter arma servicios y rutas. Devuelve error solo por configuración inválida.
func NewRouter(d Deps) (http.Handler, error) {
	if d.Users == nil || d.Pets == nil || d.Adoptions == nil {
		return nil, errors.New("router: repositories are required")
	}
	if d.Sessions == nil {
		return nil, errors.New("router: sessions are required")
	}
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}

	cors, err := middleware.CORS(d.CORSOrigins)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover)
	r.Use(middleware.SecureHeaders)
	r.Use(cors)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.AuthContext(d.Sessions, log))

	r.Get("/health", healthHandler(d.Health))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if d.Uploads != nil {
		prefix := d.UploadsPrefix
		if prefix == "" {
			prefix = "/uploads"
		}
		r.Method(http.MethodGet, prefix+"/*", d.Uploads)
	}

	// Services por módulo
	var (
		loginObs      users.LoginObserver
		cascadeObs    pets.CascadeObserver
		transitionObs adoptions.TransitionObserver
	)
	if d.Metrics != nil {
		loginObs, cascadeObs, transitionObs = d.Metrics, d.Metrics, d.Metrics
	}

	usersSvc := users.NewService(d.Users, users.Options{
		AdminEmail: d.AdminEmail,
		HashCost:   d.HashCost,
		Logger:     log,
		Observer:   loginObs,
	})
	petsSvc := pets.NewService(d.Pets, pets.Options{
		Blobs:    d.Blobs,
		Tx:       d.Tx,
		Purger:   d.Adoptions,
		Logger:   log,
		Observer: cascadeObs,
	})
	adoptionsSvc := adoptions.NewService(d.Adoptions, petsSvc, usersSvc, adoptions.Options{
		Tx:       d.Tx,
		Logger:   log,
		Observer: transitionObs,
	})

	var loginLimiter func(http.Handler) http.Handler
	if d.LoginLimiter != nil {
		loginLimiter = d.LoginLimiter.Middleware
	}

	// Rutas por módulo
	r.Route("/api", func(api chi.Router) {
		users.RegisterRoutes(api, usersSvc, users.HandlerDeps{
			Sessions:     d.Sessions,
			CookieSecure: d.CookieSecure,
			LoginLimiter: loginLimiter,
			Logger:       log,
		})
		pets.RegisterRoutes(api, petsSvc, log)
		adoptions.RegisterRoutes(api, adoptionsSvc, log)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	})

	return r, nil
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				logger.FromContext(r.Context(), nil).Warn("health check failed", map[string]any{"error": err})
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
