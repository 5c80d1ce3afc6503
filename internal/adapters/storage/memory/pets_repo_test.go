package memory

import (
	"context"
	"errors"
	"testing"

	"pawfect-match/internal/domain/pets"
	"pawfect-match/internal/ports/storage"
)

func TestPetRepo_CodeNeverReused(t *testing.T) {
	repo := NewPetRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, pets.Pet{ID: "p1", Code: "PET-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Create(ctx, pets.Pet{ID: "p2", Code: "PET-1"}); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("deleted code must stay reserved, got %v", err)
	}
}

func TestPetRepo_UpdateKeepsAdopted(t *testing.T) {
	repo := NewPetRepo()
	ctx := context.Background()

	_ = repo.Create(ctx, pets.Pet{ID: "p1", Code: "PET-1", Name: "Rex"})
	_ = repo.MarkAdopted(ctx, "p1")
	if err := repo.Update(ctx, pets.Pet{ID: "p1", Code: "PET-X", Name: "Max", Adopted: false}); err != nil {
		t.Fatalf("update: %v", err)
	}

	p, _ := repo.GetByID(ctx, "p1")
	if !p.Adopted || p.Code != "PET-1" || p.Name != "Max" {
		t.Fatalf("update must only touch editable fields, got %+v", p)
	}

	avail, _ := repo.ListAvailable(ctx)
	if len(avail) != 0 {
		t.Fatalf("adopted pet must not be available")
	}
}
