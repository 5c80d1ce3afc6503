package jwtsession

import (
	"context"
	"testing"
	"time"

	"pawfect-match/internal/adapters/cache/memory"
	"pawfect-match/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func newTestIssuer(now *time.Time) *Issuer {
	i := NewIssuer(secret, 0, memory.NewRevocations())
	i.now = func() time.Time { return *now }
	return i
}

func TestIssuer_IssueVerify_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(&now)

	token, exp, err := i.Issue("user-1", auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, now.Add(DefaultTTL), exp)

	id, err := i.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, auth.RoleAdmin, id.Role)
	assert.NotEmpty(t, id.TokenID)
}

func TestIssuer_Verify_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(&now)

	token, _, err := i.Issue("user-1", auth.RoleUser)
	require.NoError(t, err)

	now = now.Add(DefaultTTL + time.Second)
	_, err = i.Verify(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestIssuer_Verify_Invalid(t *testing.T) {
	now := time.Now()
	i := newTestIssuer(&now)

	other := NewIssuer("another-secret-another-secret-xx", 0, nil)
	forged, _, err := other.Issue("user-1", auth.RoleAdmin)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Role: auth.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := map[string]string{
		"other secret": forged,
		"wrong alg":    hs512,
		"no role":      noRole,
		"garbage":      "not.a.jwt",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := i.Verify(context.Background(), tok)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}

	_, err = i.Verify(context.Background(), "")
	assert.ErrorIs(t, err, auth.ErrMissingToken)
}

func TestIssuer_Revoke(t *testing.T) {
	now := time.Now()
	i := newTestIssuer(&now)
	ctx := context.Background()

	token, _, err := i.Issue("user-1", auth.RoleUser)
	require.NoError(t, err)
	other, _, err := i.Issue("user-1", auth.RoleUser)
	require.NoError(t, err)

	require.NoError(t, i.Revoke(ctx, token))

	_, err = i.Verify(ctx, token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// otra sesión del mismo usuario sigue viva
	_, err = i.Verify(ctx, other)
	assert.NoError(t, err)

	assert.ErrorIs(t, i.Revoke(ctx, "garbage"), auth.ErrInvalidToken)
}

func TestIssuer_Issue_RejectsBadIdentity(t *testing.T) {
	now := time.Now()
	i := newTestIssuer(&now)

	_, _, err := i.Issue("", auth.RoleUser)
	assert.Error(t, err)
	_, _, err = i.Issue("u", auth.Role("root"))
	assert.Error(t, err)
}
