package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"pawfect-match/internal/adapters/blob/local"
	blobminio "pawfect-match/internal/adapters/blob/minio"
	cachemem "pawfect-match/internal/adapters/cache/memory"
	cacheredis "pawfect-match/internal/adapters/cache/redis"
	"pawfect-match/internal/adapters/storage/memory"
	"pawfect-match/internal/adapters/storage/mongo"
	"pawfect-match/internal/adapters/storage/postgres"
	"pawfect-match/internal/config"
	"pawfect-match/internal/domain/adoptions"
	"pawfect-match/internal/domain/pets"
	"pawfect-match/internal/domain/users"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/auth"
	"pawfect-match/internal/ports/blob"
	"pawfect-match/internal/ports/tx"
	"pawfect-match/internal/router"
)

// backend agrupa los repos de un driver de storage.
type backend struct {
	users     users.Repository
	pets      pets.Repository
	adoptions adoptions.Repository
	tx        tx.Transactor
	health    router.Pinger
	close     func() error
}

func openBackend(ctx context.Context, cfg config.Config, log logger.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		s := memory.NewStore()
		log.Warn("using in-memory storage, data is lost on restart", nil)
		return &backend{
			users: s.Users, pets: s.Pets, adoptions: s.Adoptions,
			tx: s.Transactor(), health: s, close: s.Close,
		}, nil

	case config.StoragePostgres:
		s, err := postgres.Open(ctx, cfg.Storage.PostgresDSN, postgres.OpenOptions{Logger: log})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		// después de Open: el ping con reintentos ya esperó a la base
		if cfg.Storage.AutoMigrate {
			if err := migrateUp(cfg.Storage.PostgresDSN, log); err != nil {
				_ = s.Close()
				return nil, err
			}
		}
		return &backend{
			users: s.Users, pets: s.Pets, adoptions: s.Adoptions,
			tx: s.Transactor(), health: s, close: s.Close,
		}, nil

	case config.StorageMongo:
		s, err := mongo.Open(ctx, mongo.Options{
			URI:          cfg.Storage.MongoURI,
			Database:     cfg.Storage.MongoDB,
			Transactions: cfg.Storage.MongoTransactions,
			Logger:       log,
		})
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		if !cfg.Storage.MongoTransactions {
			log.Warn("mongo transactions disabled, pet delete cascade is not atomic", nil)
		}
		return &backend{
			users: s.Users, pets: s.Pets, adoptions: s.Adoptions,
			tx: s.Transactor(), health: s, close: s.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func migrateUp(dsn string, log logger.Logger) error {
	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	upErr := m.Up()
	closeErr := m.Close()
	if upErr != nil {
		return fmt.Errorf("migrate up: %w", upErr)
	}
	if closeErr != nil {
		log.Warn("migrator close failed", map[string]any{"error": closeErr})
	}
	log.Info("migrations applied", nil)
	return nil
}

// blobs es el blob store y, si es local, el handler que sirve los archivos.
type blobs struct {
	store   blob.Store
	handler http.Handler
	prefix  string
}

func openBlobs(ctx context.Context, cfg config.Config, log logger.Logger) (blobs, error) {
	switch cfg.Blob.Driver {
	case config.BlobLocal:
		s, err := local.New(cfg.Blob.LocalDir, local.DefaultURLPrefix)
		if err != nil {
			return blobs{}, fmt.Errorf("local blobs: %w", err)
		}
		return blobs{store: s, handler: s.Handler(), prefix: s.Prefix()}, nil

	case config.BlobMinio:
		m := cfg.Blob.Minio
		s, err := blobminio.New(blobminio.Config{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
			PublicURL: m.PublicURL,
		}, log)
		if err != nil {
			return blobs{}, fmt.Errorf("minio: %w", err)
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return blobs{}, fmt.Errorf("minio bucket: %w", err)
		}
		return blobs{store: s}, nil
	}
	return blobs{}, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
}

// openRevocations usa redis si está configurado; si no, memoria del proceso.
func openRevocations(ctx context.Context, cfg config.Config, log logger.Logger) (auth.Revocations, func() error, error) {
	if cfg.Cache.RedisAddr == "" {
		return cachemem.NewRevocations(), func() error { return nil }, nil
	}
	r, err := cacheredis.NewRevocations(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	log.Info("session revocations backed by redis", map[string]any{"addr": cfg.Cache.RedisAddr})
	return r, r.Close, nil
}

// jwtSecret devuelve el secreto configurado. En modo dev sin secreto genera
// uno efímero: las sesiones no sobreviven un reinicio.
func jwtSecret(cfg config.Config, log logger.Logger) (string, error) {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret, nil
	}
	if !cfg.Dev {
		return "", errors.New("jwt secret is required")
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	log.Warn("JWT_SECRET not set, using an ephemeral secret (dev mode)", nil)
	return hex.EncodeToString(b), nil
}
