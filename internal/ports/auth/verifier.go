package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMissingToken = errors.New("session token missing")
	ErrInvalidToken = errors.New("session token invalid")
	ErrExpiredToken = errors.New("session token expired")
)

// SessionVerifier verifica una credencial de sesión opaca y devuelve la identidad.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Revocations guarda los ids de token invalidados por logout hasta su expiración natural.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
