package pets

import (
	"context"
	"errors"
)

// RequestPurger borra las solicitudes de adopción de una mascota.
// Lo implementa el repositorio de adoptions; vive acá para evitar el ciclo
// pets <-> adoptions.
type RequestPurger interface {
	DeleteByPet(ctx context.Context, petID string) (int64, error)
}

type CascadeObserver interface {
	ObserveCascade(deleted int64)
}

var ErrCascadeIncomplete = errors.New("pet deleted but related adoption requests were not removed")

// CascadeError: la mascota ya se borró pero falló el borrado de sus
// solicitudes. Distinto de un error sin cambios.
type CascadeError struct {
	PetID string
	Err   error
}

func (e *CascadeError) Error() string {
	return ErrCascadeIncomplete.Error() + " (pet " + e.PetID + "): " + e.Err.Error()
}

func (e *CascadeError) Unwrap() error { return e.Err }

func (e *CascadeError) Is(target error) bool { return target == ErrCascadeIncomplete }
