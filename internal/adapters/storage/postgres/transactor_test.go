package postgres

import (
	"context"
	"errors"
	"testing"

	"pawfect-match/internal/domain/pets"
	"pawfect-match/internal/ports/storage"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactor_CommitsCascadeInOneTx(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM pets WHERE id`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM adoption_requests WHERE pet_id`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	var purged int64
	err := store.Transactor().InTransaction(context.Background(), func(ctx context.Context) error {
		if err := store.Pets.Delete(ctx, "p1"); err != nil {
			return err
		}
		n, err := store.Adoptions.DeleteByPet(ctx, "p1")
		purged = n
		return err
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, purged)
	assert.True(t, store.Transactor().Atomic())
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)
	boom := errors.New("purge failed")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM pets WHERE id`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM adoption_requests WHERE pet_id`).
		WithArgs("p1").
		WillReturnError(boom)
	mock.ExpectRollback()

	err := store.Transactor().InTransaction(context.Background(), func(ctx context.Context) error {
		if err := store.Pets.Delete(ctx, "p1"); err != nil {
			return err
		}
		_, err := store.Adoptions.DeleteByPet(ctx, "p1")
		return err
	})
	require.ErrorIs(t, err, boom)
}

func TestTransactor_NestedJoinsOuter(t *testing.T) {
	mock := newMock(t)
	tr := NewTransactor(mock)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := tr.InTransaction(context.Background(), func(ctx context.Context) error {
		return tr.InTransaction(ctx, func(ctx context.Context) error { return nil })
	})
	require.NoError(t, err)
}

// El servicio de pets con un transactor atómico: si la cascada falla no hay CascadeError.
func TestPetService_DeleteAtomicWithPostgres(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)
	svc := pets.NewService(store.Pets, pets.Options{Tx: store.Transactor(), Purger: store.Adoptions})

	mock.ExpectQuery(`SELECT .* FROM pets WHERE id`).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows(petCols).
			AddRow("p1", "PET-01", "Rex", "Lab", "2", "d", "", false, testNow, testNow))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM pets WHERE id`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM adoption_requests WHERE pet_id`).
		WithArgs("p1").
		WillReturnError(errors.New("lost connection"))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), "p1")
	require.Error(t, err)
	var ce *pets.CascadeError
	assert.False(t, errors.As(err, &ce), "atomic backend must not report a partial cascade")
	assert.False(t, errors.Is(err, storage.ErrNotFound))
}
