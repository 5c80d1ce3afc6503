// Package mongo implementa los repositorios sobre MongoDB (mongo-driver v2).
//
// Las transacciones multi-documento requieren replica set; sin
// Options.Transactions el Transactor no es atómico.
package mongo

import (
	"context"
	"fmt"
	"time"

	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/tx"

	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	ColUsers            = "users"
	ColPets             = "pets"
	ColAdoptionRequests = "adoption_requests"
)

type Options struct {
	URI      string
	Database string
	// Transactions activa WithTransaction (replica set o sharded).
	Transactions bool
	Logger       logger.Logger
}

type Store struct {
	Users     *UserRepo
	Pets      *PetRepo
	Adoptions *AdoptionRepo

	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

func Open(ctx context.Context, opts Options) (*Store, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	client, err := mongo.Connect(options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	// Connect es lazy: el primer ping es el que espera al servidor
	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	b := retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(pingCtx, b, func(ctx context.Context) error {
		if err := client.Ping(ctx, nil); err != nil {
			log.Warn("mongo not ready", map[string]any{"error": err})
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(opts.Database)
	s := &Store{
		Users:        &UserRepo{col: db.Collection(ColUsers)},
		Pets:         &PetRepo{col: db.Collection(ColPets)},
		Adoptions:    &AdoptionRepo{col: db.Collection(ColAdoptionRequests)},
		client:       client,
		db:           db,
		transactions: opts.Transactions,
	}

	// los índices únicos son la garantía de unicidad: sin ellos no arrancamos
	if err := s.ensureIndexes(pingCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("mongo connected", map[string]any{"database": opts.Database, "transactions": opts.Transactions})
	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},
		{ColPets, bson.D{{Key: "code", Value: 1}}, true},
		{ColPets, bson.D{{Key: "adopted", Value: 1}, {Key: "created_at", Value: 1}}, false},
		{ColAdoptionRequests, bson.D{{Key: "user_id", Value: 1}, {Key: "pet_id", Value: 1}}, true},
		{ColAdoptionRequests, bson.D{{Key: "pet_id", Value: 1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.db.Collection(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	return nil
}

func (s *Store) Transactor() tx.Transactor {
	if !s.transactions {
		return tx.Direct{}
	}
	return Transactor{client: s.client}
}

// Transactor usa sesiones de mongo. Los repos reciben el ctx de la sesión.
type Transactor struct {
	client *mongo.Client
}

func (Transactor) Atomic() bool { return true }

func (t Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
