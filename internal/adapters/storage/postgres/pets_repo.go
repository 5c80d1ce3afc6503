package postgres

import (
	"context"
	"strings"

	"pawfect-match/internal/domain/pets"
	"pawfect-match/internal/ports/storage"
)

type PetRepo struct {
	db DB
}

func NewPetRepo(db DB) *PetRepo {
	return &PetRepo{db: db}
}

const petColumns = `id, code, name, breed, age, description, image, adopted, created_at, updated_at`

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		p.ID,
		p.Code,
		p.Name,
		p.Breed,
		p.Age,
		p.Description,
		p.Image,
		p.Adopted,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return mapError(err)
}

// Update no toca id, code ni adopted.
func (r *PetRepo) Update(ctx context.Context, p pets.Pet) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE pets
		SET
			name = $2,
			breed = $3,
			age = $4,
			description = $5,
			image = $6,
			updated_at = $7
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Breed,
		p.Age,
		p.Description,
		p.Image,
		p.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return affected(tag)
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, storage.ErrNotFound
	}

	var p pets.Pet
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id).Scan(petFields(&p)...)
	if err != nil {
		return pets.Pet{}, mapError(err)
	}
	return p, nil
}

func (r *PetRepo) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return affected(tag)
}

func (r *PetRepo) MarkAdopted(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE pets SET adopted = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return affected(tag)
}

func (r *PetRepo) ListAll(ctx context.Context) ([]pets.Pet, error) {
	return r.list(ctx, `SELECT `+petColumns+` FROM pets ORDER BY seq ASC`)
}

func (r *PetRepo) ListAvailable(ctx context.Context) ([]pets.Pet, error) {
	return r.list(ctx, `SELECT `+petColumns+` FROM pets WHERE NOT adopted ORDER BY seq ASC`)
}

func (r *PetRepo) list(ctx context.Context, query string, args ...any) ([]pets.Pet, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		var p pets.Pet
		if err := rows.Scan(petFields(&p)...); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func petFields(p *pets.Pet) []any {
	return []any{
		&p.ID,
		&p.Code,
		&p.Name,
		&p.Breed,
		&p.Age,
		&p.Description,
		&p.Image,
		&p.Adopted,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}
