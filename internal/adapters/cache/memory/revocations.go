// Package memory guarda la lista de tokens revocados en memoria del proceso.
// Sirve para una sola instancia; con varias réplicas usar el adapter redis.
package memory

import (
	"context"
	"sync"
	"time"
)

type Revocations struct {
	mu    sync.RWMutex
	until map[string]time.Time
	now   func() time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{
		until: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (r *Revocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	// limpieza oportunista de entradas vencidas
	for id, u := range r.until {
		if !now.Before(u) {
			delete(r.until, id)
		}
	}
	if now.Before(until) {
		r.until[tokenID] = until
	}
	return nil
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.until[tokenID]
	return ok && r.now().Before(u), nil
}

func (r *Revocations) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.until)
}
