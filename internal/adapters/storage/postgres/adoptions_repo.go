package postgres

import (
	"context"
	"strings"
	"time"

	"pawfect-match/internal/domain/adoptions"
	"pawfect-match/internal/ports/storage"
)

type AdoptionRepo struct {
	db DB
}

func NewAdoptionRepo(db DB) *AdoptionRepo {
	return &AdoptionRepo{db: db}
}

const requestColumns = `id, user_id, pet_id, message, status, created_at, updated_at`

// Create: el índice único (user_id, pet_id) resuelve las carreras.
func (r *AdoptionRepo) Create(ctx context.Context, req adoptions.Request) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO adoption_requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		req.ID,
		req.UserID,
		req.PetID,
		req.Message,
		string(req.Status),
		req.CreatedAt,
		req.UpdatedAt,
	)
	return mapError(err)
}

func (r *AdoptionRepo) GetByID(ctx context.Context, id string) (adoptions.Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return adoptions.Request{}, storage.ErrNotFound
	}
	return r.one(ctx, `SELECT `+requestColumns+` FROM adoption_requests WHERE id = $1`, id)
}

func (r *AdoptionRepo) FindByUserAndPet(ctx context.Context, userID, petID string) (adoptions.Request, error) {
	return r.one(ctx, `SELECT `+requestColumns+` FROM adoption_requests WHERE user_id = $1 AND pet_id = $2`, userID, petID)
}

func (r *AdoptionRepo) UpdateStatus(ctx context.Context, id string, status adoptions.Status, at time.Time) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE adoption_requests SET status = $2, updated_at = $3 WHERE id = $1
	`, id, string(status), at)
	if err != nil {
		return mapError(err)
	}
	return affected(tag)
}

func (r *AdoptionRepo) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM adoption_requests WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return affected(tag)
}

// DeleteByPet implementa pets.RequestPurger.
func (r *AdoptionRepo) DeleteByPet(ctx context.Context, petID string) (int64, error) {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM adoption_requests WHERE pet_id = $1`, petID)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *AdoptionRepo) ListByUser(ctx context.Context, userID string) ([]adoptions.Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM adoption_requests WHERE user_id = $1 ORDER BY seq ASC`, userID)
}

func (r *AdoptionRepo) ListAll(ctx context.Context) ([]adoptions.Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM adoption_requests ORDER BY seq ASC`)
}

func (r *AdoptionRepo) one(ctx context.Context, query string, args ...any) (adoptions.Request, error) {
	var req adoptions.Request
	if err := conn(ctx, r.db).QueryRow(ctx, query, args...).Scan(requestFields(&req)...); err != nil {
		return adoptions.Request{}, mapError(err)
	}
	return req, nil
}

func (r *AdoptionRepo) list(ctx context.Context, query string, args ...any) ([]adoptions.Request, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]adoptions.Request, 0)
	for rows.Next() {
		var req adoptions.Request
		if err := rows.Scan(requestFields(&req)...); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func requestFields(req *adoptions.Request) []any {
	return []any{
		&req.ID,
		&req.UserID,
		&req.PetID,
		&req.Message,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	}
}
