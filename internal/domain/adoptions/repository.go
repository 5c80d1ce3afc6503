package adoptions

import (
	"context"
	"time"
)

type Repository interface {
	// Create devuelve storage.ErrDuplicate si ya existe una solicitud para
	// (user, pet). El índice único es la garantía real ante carreras.
	Create(ctx context.Context, r Request) error
	GetByID(ctx context.Context, id string) (Request, error)
	FindByUserAndPet(ctx context.Context, userID, petID string) (Request, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByPet(ctx context.Context, petID string) (int64, error)

	// Orden de creación.
	ListByUser(ctx context.Context, userID string) ([]Request, error)
	ListAll(ctx context.Context) ([]Request, error)
}
