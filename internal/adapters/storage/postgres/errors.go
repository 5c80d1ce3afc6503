package postgres

import (
	"errors"

	"pawfect-match/internal/ports/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mapError traduce errores de pgx a los de ports/storage.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return errors.Join(storage.ErrDuplicate, err)
		case pgerrcode.InvalidTextRepresentation:
			// id que no es un uuid: para el caller es simplemente inexistente
			return storage.ErrNotFound
		case pgerrcode.ForeignKeyViolation:
			return errors.Join(storage.ErrNotFound, err)
		}
	}
	return err
}

func affected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
