package users

import "context"

// Repository es implementado por los adapters de storage.
// Create devuelve storage.ErrDuplicate si el email ya existe (índice único).
type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdateLoginState(ctx context.Context, id string, st LoginState) error
}
