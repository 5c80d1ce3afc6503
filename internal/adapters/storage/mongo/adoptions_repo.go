package mongo

import (
	"context"
	"time"

	"pawfect-match/internal/domain/adoptions"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type requestDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	PetID     string    `bson:"pet_id"`
	Message   string    `bson:"message"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toRequestDoc(r adoptions.Request) requestDoc {
	return requestDoc{
		ID:        r.ID,
		UserID:    r.UserID,
		PetID:     r.PetID,
		Message:   r.Message,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (d requestDoc) toDomain() adoptions.Request {
	return adoptions.Request{
		ID:        d.ID,
		UserID:    d.UserID,
		PetID:     d.PetID,
		Message:   d.Message,
		Status:    adoptions.Status(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type AdoptionRepo struct {
	col *mongo.Collection
}

// Create: índice único (user_id, pet_id).
func (r *AdoptionRepo) Create(ctx context.Context, req adoptions.Request) error {
	_, err := r.col.InsertOne(ctx, toRequestDoc(req))
	return wrapError(err)
}

func (r *AdoptionRepo) GetByID(ctx context.Context, id string) (adoptions.Request, error) {
	return r.one(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *AdoptionRepo) FindByUserAndPet(ctx context.Context, userID, petID string) (adoptions.Request, error) {
	return r.one(ctx, bson.D{{Key: "user_id", Value: userID}, {Key: "pet_id", Value: petID}})
}

func (r *AdoptionRepo) UpdateStatus(ctx context.Context, id string, status adoptions.Status, at time.Time) error {
	return updateByID(ctx, r.col, id, bson.D{
		{Key: "status", Value: string(status)},
		{Key: "updated_at", Value: at},
	})
}

func (r *AdoptionRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}

func (r *AdoptionRepo) DeleteByPet(ctx context.Context, petID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.D{{Key: "pet_id", Value: petID}})
	if err != nil {
		return 0, wrapError(err)
	}
	return res.DeletedCount, nil
}

func (r *AdoptionRepo) ListByUser(ctx context.Context, userID string) ([]adoptions.Request, error) {
	return r.list(ctx, bson.D{{Key: "user_id", Value: userID}})
}

func (r *AdoptionRepo) ListAll(ctx context.Context) ([]adoptions.Request, error) {
	return r.list(ctx, bson.D{})
}

func (r *AdoptionRepo) one(ctx context.Context, filter bson.D) (adoptions.Request, error) {
	d, err := findOne[requestDoc](ctx, r.col, filter)
	if err != nil {
		return adoptions.Request{}, err
	}
	return d.toDomain(), nil
}

func (r *AdoptionRepo) list(ctx context.Context, filter bson.D) ([]adoptions.Request, error) {
	docs, err := findMany[requestDoc](ctx, r.col, filter, creationOrder())
	if err != nil {
		return nil, err
	}
	out := make([]adoptions.Request, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
