package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"pawfect-match/internal/domain/adoptions"
	"pawfect-match/internal/domain/pets"
	"pawfect-match/internal/domain/users"
	"pawfect-match/internal/ports/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		mock.Close()
	})
	return mock
}

var petCols = []string{"id", "code", "name", "breed", "age", "description", "image", "adopted", "created_at", "updated_at"}

func TestPetRepo_GetByID(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      pets.Pet
		wantErr   error
	}{
		{
			name: "found",
			id:   "p1",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM pets WHERE id`).
					WithArgs("p1").
					WillReturnRows(pgxmock.NewRows(petCols).
						AddRow("p1", "PET-01", "Rex", "Lab", "2", "good boy", "", false, testNow, testNow))
			},
			want: pets.Pet{ID: "p1", Code: "PET-01", Name: "Rex", Breed: "Lab", Age: "2", Description: "good boy", CreatedAt: testNow, UpdatedAt: testNow},
		},
		{
			name: "no rows",
			id:   "p2",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM pets WHERE id`).
					WithArgs("p2").
					WillReturnRows(pgxmock.NewRows(petCols))
			},
			wantErr: storage.ErrNotFound,
		},
		{
			name: "not a uuid",
			id:   "garbage",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM pets WHERE id`).
					WithArgs("garbage").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation})
			},
			wantErr: storage.ErrNotFound,
		},
		{
			name:      "blank id skips the query",
			id:        "  ",
			setupMock: func(mock pgxmock.PgxPoolIface) {},
			wantErr:   storage.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			got, err := NewPetRepo(mock).GetByID(context.Background(), tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPetRepo_CreateDuplicateCode(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO pets`).
		WithArgs("p1", "PET-01", "Rex", "Lab", "2", "d", "", false, testNow, testNow).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "pets_code_key"})

	err := NewPetRepo(mock).Create(context.Background(), pets.Pet{
		ID: "p1", Code: "PET-01", Name: "Rex", Breed: "Lab", Age: "2", Description: "d",
		CreatedAt: testNow, UpdatedAt: testNow,
	})
	require.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestPetRepo_UpdateAndMarkAdopted(t *testing.T) {
	mock := newMock(t)
	repo := NewPetRepo(mock)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE pets`).
		WithArgs("p1", "Rex", "Lab", "3", "older", "img.png", testNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE pets SET adopted = TRUE`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE pets SET adopted = TRUE`).
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.Update(ctx, pets.Pet{ID: "p1", Name: "Rex", Breed: "Lab", Age: "3", Description: "older", Image: "img.png", UpdatedAt: testNow}))
	require.NoError(t, repo.MarkAdopted(ctx, "p1"))
	require.ErrorIs(t, repo.MarkAdopted(ctx, "gone"), storage.ErrNotFound)
}

func TestPetRepo_ListAvailable(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM pets WHERE NOT adopted ORDER BY seq`).
		WillReturnRows(pgxmock.NewRows(petCols).
			AddRow("p1", "PET-01", "Rex", "Lab", "2", "d", "", false, testNow, testNow).
			AddRow("p3", "PET-03", "Tom", "Cat", "1", "d", "", false, testNow, testNow))

	got, err := NewPetRepo(mock).ListAvailable(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p3", got[1].ID)
}

var userCols = []string{"id", "name", "email", "password_hash", "role", "login_attempts", "lock_until", "created_at", "updated_at"}

func TestUserRepo_GetByEmail(t *testing.T) {
	mock := newMock(t)
	lock := testNow.Add(time.Hour)
	mock.ExpectQuery(`FROM users WHERE email`).
		WithArgs("alice@mail.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow("u1", "Alice", "alice@mail.com", "hash", "user", 3, &lock, testNow, testNow))

	u, err := NewUserRepo(mock).GetByEmail(context.Background(), "alice@mail.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, 3, u.LoginAttempts)
	require.NotNil(t, u.LockUntil)
	assert.True(t, u.LockUntil.Equal(lock))
	assert.Equal(t, "user", string(u.Role))
}

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u1", "Ana", "a@mail.com", pgxmock.AnyArg(), "user",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	err := NewUserRepo(mock).Create(context.Background(), users.User{ID: "u1", Name: "Ana", Email: "a@mail.com", Role: "user"})
	require.ErrorIs(t, err, storage.ErrDuplicate)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "users_email_key", pgErr.ConstraintName)
}

func TestUserRepo_UpdateLoginState(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`UPDATE users`).
		WithArgs("u1", 0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE users`).
		WithArgs("u2", 1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewUserRepo(mock)
	require.NoError(t, repo.UpdateLoginState(context.Background(), "u1", users.LoginState{}))
	require.ErrorIs(t, repo.UpdateLoginState(context.Background(), "u2", users.LoginState{Attempts: 1}), storage.ErrNotFound)
}

var requestCols = []string{"id", "user_id", "pet_id", "message", "status", "created_at", "updated_at"}

func TestAdoptionRepo_CreateDuplicatePair(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO adoption_requests`).
		WithArgs("r1", "u1", "p1", "hi", "pending", testNow, testNow).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "adoption_requests_user_pet_key"})

	err := NewAdoptionRepo(mock).Create(context.Background(), adoptions.Request{
		ID: "r1", UserID: "u1", PetID: "p1", Message: "hi", Status: adoptions.StatusPending,
		CreatedAt: testNow, UpdatedAt: testNow,
	})
	require.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestAdoptionRepo_FindByUserAndPet(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM adoption_requests WHERE user_id = \$1 AND pet_id = \$2`).
		WithArgs("u1", "p1").
		WillReturnRows(pgxmock.NewRows(requestCols).
			AddRow("r1", "u1", "p1", "", "approved", testNow, testNow))

	got, err := NewAdoptionRepo(mock).FindByUserAndPet(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, adoptions.StatusApproved, got.Status)
}

func TestAdoptionRepo_DeleteByPetCountsRows(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM adoption_requests WHERE pet_id`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := NewAdoptionRepo(mock).DeleteByPet(context.Background(), "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestAdoptionRepo_ListByUserScanError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM adoption_requests WHERE user_id`).
		WithArgs("u1").
		WillReturnError(errors.New("connection refused"))

	_, err := NewAdoptionRepo(mock).ListByUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
