package mongo

import (
	"context"
	"time"

	"pawfect-match/internal/domain/pets"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type petDoc struct {
	ID          string    `bson:"_id"`
	Code        string    `bson:"code"`
	Name        string    `bson:"name"`
	Breed       string    `bson:"breed"`
	Age         string    `bson:"age"`
	Description string    `bson:"description"`
	Image       string    `bson:"image"`
	Adopted     bool      `bson:"adopted"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toPetDoc(p pets.Pet) petDoc {
	return petDoc{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Breed:       p.Breed,
		Age:         p.Age,
		Description: p.Description,
		Image:       p.Image,
		Adopted:     p.Adopted,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d petDoc) toDomain() pets.Pet {
	return pets.Pet{
		ID:          d.ID,
		Code:        d.Code,
		Name:        d.Name,
		Breed:       d.Breed,
		Age:         d.Age,
		Description: d.Description,
		Image:       d.Image,
		Adopted:     d.Adopted,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type PetRepo struct {
	col *mongo.Collection
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.col.InsertOne(ctx, toPetDoc(p))
	return wrapError(err)
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	d, err := findOne[petDoc](ctx, r.col, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return pets.Pet{}, err
	}
	return d.toDomain(), nil
}

// Update no toca code ni adopted.
func (r *PetRepo) Update(ctx context.Context, p pets.Pet) error {
	return updateByID(ctx, r.col, p.ID, bson.D{
		{Key: "name", Value: p.Name},
		{Key: "breed", Value: p.Breed},
		{Key: "age", Value: p.Age},
		{Key: "description", Value: p.Description},
		{Key: "image", Value: p.Image},
		{Key: "updated_at", Value: p.UpdatedAt},
	})
}

func (r *PetRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}

func (r *PetRepo) MarkAdopted(ctx context.Context, id string) error {
	return updateByID(ctx, r.col, id, bson.D{
		{Key: "adopted", Value: true},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (r *PetRepo) ListAll(ctx context.Context) ([]pets.Pet, error) {
	return r.list(ctx, bson.D{})
}

func (r *PetRepo) ListAvailable(ctx context.Context) ([]pets.Pet, error) {
	return r.list(ctx, bson.D{{Key: "adopted", Value: false}})
}

func (r *PetRepo) list(ctx context.Context, filter bson.D) ([]pets.Pet, error) {
	// code es un ULID: desempata creaciones en el mismo ms
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "code", Value: 1}})
	docs, err := findMany[petDoc](ctx, r.col, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]pets.Pet, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
