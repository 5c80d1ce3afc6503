package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pawfect-match/internal/domain/adoptions"
	"pawfect-match/internal/ports/storage"
)

type pairKey struct {
	userID string
	petID  string
}

type requestEntry struct {
	seq int64
	req adoptions.Request
}

// AdoptionRepo aplica el mismo índice único (user_id, pet_id) que las bases.
type AdoptionRepo struct {
	mu     sync.RWMutex
	byID   map[string]requestEntry
	byPair map[pairKey]string
	seq    int64
}

func NewAdoptionRepo() *AdoptionRepo {
	return &AdoptionRepo{
		byID:   make(map[string]requestEntry),
		byPair: make(map[pairKey]string),
	}
}

func (r *AdoptionRepo) Create(ctx context.Context, req adoptions.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(req.ID) == "" {
		return errors.New("request id required")
	}
	key := pairKey{req.UserID, req.PetID}
	if _, exists := r.byPair[key]; exists {
		return storage.ErrDuplicate
	}
	if _, exists := r.byID[req.ID]; exists {
		return storage.ErrDuplicate
	}

	r.seq++
	r.byID[req.ID] = requestEntry{seq: r.seq, req: req}
	r.byPair[key] = req.ID
	return nil
}

func (r *AdoptionRepo) GetByID(ctx context.Context, id string) (adoptions.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return adoptions.Request{}, storage.ErrNotFound
	}
	return e.req, nil
}

func (r *AdoptionRepo) FindByUserAndPet(ctx context.Context, userID, petID string) (adoptions.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPair[pairKey{userID, petID}]
	if !ok {
		return adoptions.Request{}, storage.ErrNotFound
	}
	return r.byID[id].req, nil
}

func (r *AdoptionRepo) UpdateStatus(ctx context.Context, id string, status adoptions.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	e.req.Status = status
	e.req.UpdatedAt = at
	r.byID[id] = e
	return nil
}

func (r *AdoptionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byPair, pairKey{e.req.UserID, e.req.PetID})
	return nil
}

func (r *AdoptionRepo) DeleteByPet(ctx context.Context, petID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, e := range r.byID {
		if e.req.PetID != petID {
			continue
		}
		delete(r.byID, id)
		delete(r.byPair, pairKey{e.req.UserID, e.req.PetID})
		n++
	}
	return n, nil
}

func (r *AdoptionRepo) ListByUser(ctx context.Context, userID string) ([]adoptions.Request, error) {
	return r.list(func(req adoptions.Request) bool { return req.UserID == userID }), nil
}

func (r *AdoptionRepo) ListAll(ctx context.Context) ([]adoptions.Request, error) {
	return r.list(func(adoptions.Request) bool { return true }), nil
}

func (r *AdoptionRepo) list(keep func(adoptions.Request) bool) []adoptions.Request {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]requestEntry, 0)
	for _, e := range r.byID {
		if keep(e.req) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]adoptions.Request, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.req)
	}
	return out
}
