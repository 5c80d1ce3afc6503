// Package jwtsession emite y verifica tokens de sesión HS256.
package jwtsession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pawfect-match/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTTL = 24 * time.Hour

type Claims struct {
	Role auth.Role `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret      []byte
	ttl         time.Duration
	revocations auth.Revocations
	now         func() time.Time
}

// NewIssuer: revocations puede ser nil (logout solo borra la cookie).
func NewIssuer(secret string, ttl time.Duration, revocations auth.Revocations) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret:      []byte(secret),
		ttl:         ttl,
		revocations: revocations,
		now:         time.Now,
	}
}

func (i *Issuer) Issue(userID string, role auth.Role) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" || !role.Valid() {
		return "", time.Time{}, fmt.Errorf("jwtsession: invalid identity (user=%q role=%q)", userID, role)
	}

	now := i.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwtsession: sign: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (i *Issuer) Verify(ctx context.Context, token string) (auth.Identity, error) {
	claims, err := i.parse(token)
	if err != nil {
		return auth.Identity{}, err
	}

	if i.revocations != nil {
		revoked, err := i.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return auth.Identity{}, fmt.Errorf("jwtsession: check revocation: %w", err)
		}
		if revoked {
			return auth.Identity{}, fmt.Errorf("%w: revoked", auth.ErrInvalidToken)
		}
	}

	return auth.Identity{UserID: claims.Subject, Role: claims.Role, TokenID: claims.ID}, nil
}

// Revoke invalida el token hasta su expiración natural.
func (i *Issuer) Revoke(ctx context.Context, token string) error {
	claims, err := i.parse(token)
	if err != nil {
		return err
	}
	if i.revocations == nil {
		return nil
	}
	return i.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (i *Issuer) parse(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, auth.ErrMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, auth.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.ID == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: incomplete claims", auth.ErrInvalidToken)
	}
	return claims, nil
}
