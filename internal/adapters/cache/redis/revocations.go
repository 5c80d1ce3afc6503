// Package redis comparte la lista de tokens revocados entre réplicas.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pawfect:revoked:"

type Revocations struct {
	client *redis.Client
}

// NewRevocations conecta y hace ping con timeout corto.
func NewRevocations(ctx context.Context, addr, password string, db int) (*Revocations, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return &Revocations{client: client}, nil
}

func NewRevocationsFromClient(client *redis.Client) *Revocations {
	return &Revocations{client: client}
}

func (r *Revocations) Close() error {
	return r.client.Close()
}

// Revoke guarda el jti con TTL hasta la expiración del token.
func (r *Revocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, key(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke: %w", err)
	}
	return nil
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis is revoked: %w", err)
	}
	return n > 0, nil
}

func key(tokenID string) string {
	return keyPrefix + tokenID
}
