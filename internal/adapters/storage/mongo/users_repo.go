package mongo

import (
	"context"
	"time"

	"pawfect-match/internal/domain/users"
	"pawfect-match/internal/ports/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type userDoc struct {
	ID            string     `bson:"_id"`
	Name          string     `bson:"name"`
	Email         string     `bson:"email"`
	PasswordHash  string     `bson:"password_hash"`
	Role          string     `bson:"role"`
	LoginAttempts int        `bson:"login_attempts"`
	LockUntil     *time.Time `bson:"lock_until"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
}

func toUserDoc(u users.User) userDoc {
	return userDoc{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Role:          string(u.Role),
		LoginAttempts: u.LoginAttempts,
		LockUntil:     u.LockUntil,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (d userDoc) toDomain() users.User {
	return users.User{
		ID:            d.ID,
		Name:          d.Name,
		Email:         d.Email,
		PasswordHash:  d.PasswordHash,
		Role:          auth.Role(d.Role),
		LoginAttempts: d.LoginAttempts,
		LockUntil:     d.LockUntil,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type UserRepo struct {
	col *mongo.Collection
}

func (r *UserRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.col.InsertOne(ctx, toUserDoc(u))
	return wrapError(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	d, err := findOne[userDoc](ctx, r.col, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return users.User{}, err
	}
	return d.toDomain(), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	d, err := findOne[userDoc](ctx, r.col, bson.D{{Key: "email", Value: email}})
	if err != nil {
		return users.User{}, err
	}
	return d.toDomain(), nil
}

func (r *UserRepo) UpdateLoginState(ctx context.Context, id string, st users.LoginState) error {
	return updateByID(ctx, r.col, id, bson.D{
		{Key: "login_attempts", Value: st.Attempts},
		{Key: "lock_until", Value: st.LockUntil},
		{Key: "updated_at", Value: time.Now()},
	})
}
