package blob

import (
	"context"
	"io"
)

// Object es un archivo subido (imagen de mascota). El core nunca interpreta los bytes.
type Object struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store guarda bytes y devuelve una ruta recuperable (ej. "/uploads/1700000000-rex.jpg").
type Store interface {
	Put(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, ref string) error
}
