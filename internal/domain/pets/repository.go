package pets

import "context"

type Repository interface {
	// Create devuelve storage.ErrDuplicate si el code ya existe.
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	// Update escribe solo los campos editables (name, breed, age,
	// description, image, updated_at); nunca id, code ni adopted.
	Update(ctx context.Context, p Pet) error
	Delete(ctx context.Context, id string) error
	MarkAdopted(ctx context.Context, id string) error

	// Orden de creación.
	ListAll(ctx context.Context) ([]Pet, error)
	ListAvailable(ctx context.Context) ([]Pet, error)
}
