package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pawfect-match/internal/domain/pets"
	"pawfect-match/internal/ports/storage"
)

type petEntry struct {
	seq int64
	pet pets.Pet
}

type PetRepo struct {
	mu     sync.RWMutex
	byID   map[string]petEntry
	byCode map[string]string
	seq    int64
}

func NewPetRepo() *PetRepo {
	return &PetRepo{
		byID:   make(map[string]petEntry),
		byCode: make(map[string]string),
	}
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return storage.ErrDuplicate
	}
	if _, exists := r.byCode[p.Code]; exists {
		return storage.ErrDuplicate
	}

	r.seq++
	r.byID[p.ID] = petEntry{seq: r.seq, pet: p}
	r.byCode[p.Code] = p.ID
	return nil
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, storage.ErrNotFound
	}
	return e.pet, nil
}

// Update no toca code ni adopted (ver pets.Repository).
func (r *PetRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[p.ID]
	if !ok {
		return storage.ErrNotFound
	}
	e.pet.Name = p.Name
	e.pet.Breed = p.Breed
	e.pet.Age = p.Age
	e.pet.Description = p.Description
	e.pet.Image = p.Image
	e.pet.UpdatedAt = p.UpdatedAt
	r.byID[p.ID] = e
	return nil
}

func (r *PetRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return storage.ErrNotFound
	}
	// byCode conserva el code: nunca se reutiliza
	delete(r.byID, id)
	return nil
}

func (r *PetRepo) MarkAdopted(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	e.pet.Adopted = true
	r.byID[id] = e
	return nil
}

func (r *PetRepo) ListAll(ctx context.Context) ([]pets.Pet, error) {
	return r.list(func(pets.Pet) bool { return true }), nil
}

func (r *PetRepo) ListAvailable(ctx context.Context) ([]pets.Pet, error) {
	return r.list(func(p pets.Pet) bool { return !p.Adopted }), nil
}

func (r *PetRepo) list(keep func(pets.Pet) bool) []pets.Pet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]petEntry, 0, len(r.byID))
	for _, e := range r.byID {
		if keep(e.pet) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]pets.Pet, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.pet)
	}
	return out
}
