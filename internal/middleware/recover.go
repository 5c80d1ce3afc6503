package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover es chimw.Recoverer con cuerpo JSON: el panic se loguea por la
// LogEntry del request (ver RequestLogger) y el 500 vacío de chi sale como
// {"message":"internal error"}. http.ErrAbortHandler se re-lanza igual que en chi.
func Recover(next http.Handler) http.Handler {
	recoverer := chimw.Recoverer(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := &panicEntry{LogEntry: chimw.GetLogEntry(r)}
		pw := &panicWriter{ResponseWriter: w, entry: entry}
		recoverer.ServeHTTP(pw, chimw.WithLogEntry(r, entry))
	})
}

// panicEntry marca el panic y delega en la LogEntry de afuera. Sin
// RequestLogger montado cae en el stack de chi por stderr.
type panicEntry struct {
	chimw.LogEntry
	panicked bool
}

func (e *panicEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra any) {
	if e.LogEntry != nil {
		e.LogEntry.Write(status, bytes, header, elapsed, extra)
	}
}

func (e *panicEntry) Panic(v any, stack []byte) {
	e.panicked = true
	if e.LogEntry != nil {
		e.LogEntry.Panic(v, stack)
		return
	}
	chimw.PrintPrettyStack(v)
}

type panicWriter struct {
	http.ResponseWriter
	entry       *panicEntry
	wroteHeader bool
}

func (w *panicWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if w.entry.panicked && code == http.StatusInternalServerError {
		writeMessage(w.ResponseWriter, code, "internal error")
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *panicWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *panicWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
