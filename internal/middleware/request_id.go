package middleware

import (
	"fmt"
	"net/http"
	"time"

	"pawfect-match/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger monta chi/middleware.RequestLogger con un LogFormatter propio:
// cada request lleva un logger con request_id (de chi/middleware.RequestID) en el
// ctx y al terminar se escribe una línea de access log. Los panics que
// chimw.Recoverer entrega a la LogEntry salen por el mismo logger.
func RequestLogger(base logger.Logger) func(http.Handler) http.Handler {
	withEntry := chimw.RequestLogger(&logFormatter{base: base})
	return func(next http.Handler) http.Handler {
		return withEntry(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if e, ok := chimw.GetLogEntry(r).(*logEntry); ok {
				r = r.WithContext(logger.IntoContext(r.Context(), e.l))
			}
			next.ServeHTTP(w, r)
		}))
	}
}

type logFormatter struct {
	base logger.Logger
}

func (f *logFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	return &logEntry{
		l:      f.base.With(map[string]any{"request_id": chimw.GetReqID(r.Context())}),
		method: r.Method,
		path:   r.URL.Path,
		remote: r.RemoteAddr,
	}
}

type logEntry struct {
	l      logger.Logger
	method string
	path   string
	remote string
}

func (e *logEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	if status == 0 {
		status = http.StatusOK
	}
	fields := map[string]any{
		"method":      e.method,
		"path":        e.path,
		"status":      status,
		"bytes":       bytes,
		"duration_ms": elapsed.Milliseconds(),
		"remote":      e.remote,
	}
	if status >= http.StatusInternalServerError {
		e.l.Warn("request", fields)
		return
	}
	e.l.Debug("request", fields)
}

func (e *logEntry) Panic(v any, stack []byte) {
	e.l.Error("panic recovered", map[string]any{
		"panic": fmt.Sprint(v),
		"stack": string(stack),
	})
}
