// Package storage define los errores que todo adapter de persistencia debe devolver.
//
// Los adapters (memory/postgres/mongo) traducen los errores del driver a estos;
// los servicios de dominio los traducen a sus propios errores.
package storage

import "errors"

var (
	// ErrNotFound reemplaza pgx.ErrNoRows / mongo.ErrNoDocuments.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate es una violación de índice único.
	ErrDuplicate = errors.New("duplicate: entity already exists")
)
