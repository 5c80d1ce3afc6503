// Package memory implementa los repositorios en memoria (dev y tests).
//
// No hay transacciones: Transactor es tx.Direct (no atómico), así que el
// borrado en cascada y la aprobación reportan fallos parciales con errores
// tipados en vez de deshacerlos.
package memory

import (
	"context"

	"pawfect-match/internal/ports/tx"
)

type Store struct {
	Users     *UserRepo
	Pets      *PetRepo
	Adoptions *AdoptionRepo
}

func NewStore() *Store {
	return &Store{
		Users:     NewUserRepo(),
		Pets:      NewPetRepo(),
		Adoptions: NewAdoptionRepo(),
	}
}

func (s *Store) Transactor() tx.Transactor { return tx.Direct{} }

func (s *Store) Close() error { return nil }

func (s *Store) Ping(context.Context) error { return nil }
