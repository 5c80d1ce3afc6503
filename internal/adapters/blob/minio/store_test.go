package minio

import (
	"context"
	"os"
	"strings"
	"testing"

	"pawfect-match/internal/ports/blob"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{Endpoint: "localhost:9000"}, nil)
	require.Error(t, err)
	_, err = New(Config{AccessKey: "a", SecretKey: "b"}, nil)
	require.Error(t, err)
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/pets", publicBase(Config{Endpoint: "localhost:9000"}, "pets"))
	assert.Equal(t, "https://s3.example.com/img", publicBase(Config{Endpoint: "s3.example.com", UseSSL: true}, "img"))
	assert.Equal(t, "https://cdn.example.com", publicBase(Config{PublicURL: "https://cdn.example.com/"}, "pets"))
}

func TestKeyFor(t *testing.T) {
	s, err := New(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, nil)
	require.NoError(t, err)

	key, err := s.keyFor("http://localhost:9000/pets/pets/01abc-rex.jpg")
	require.NoError(t, err)
	assert.Equal(t, "pets/01abc-rex.jpg", key)

	for _, ref := range []string{
		"/uploads/01abc-rex.jpg",
		"http://localhost:9000/pets/other/x.jpg",
		"http://localhost:9000/pets/pets/../secret",
		"http://localhost:9000/pets/pets/",
	} {
		_, err := s.keyFor(ref)
		assert.ErrorIs(t, err, ErrBadRef, ref)
	}
}

// MINIO_TEST_ENDPOINT=localhost:9000 MINIO_TEST_ACCESS_KEY=... MINIO_TEST_SECRET_KEY=...
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_TEST_ENDPOINT not set")
	}
	s, err := New(Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_TEST_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_TEST_SECRET_KEY"),
		Bucket:    "pawfect-test",
	}, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.EnsureBucket(ctx))

	body := "pngbytes"
	ref, err := s.Put(ctx, blob.Object{Filename: "rex.png", ContentType: "image/png", Size: int64(len(body)), Body: strings.NewReader(body)})
	require.NoError(t, err)
	assert.Contains(t, ref, "/pets/")

	require.NoError(t, s.Delete(ctx, ref))
}
