// Package minio guarda las imágenes en un bucket S3 compatible.
package minio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pawfect-match/internal/adapters/blob/local"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/blob"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const keyPrefix = "pets/"

var ErrBadRef = errors.New("blob ref outside bucket")

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL es la base de las URLs devueltas. Por defecto <scheme>://<endpoint>/<bucket>.
	PublicURL string
}

type Store struct {
	mc        *minio.Client
	bucket    string
	publicURL string
	log       logger.Logger
}

func New(cfg Config, log logger.Logger) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("minio access key and secret key are required")
	}
	if log == nil {
		log = logger.Nop()
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "pets"
	}
	return &Store{
		mc:        mc,
		bucket:    bucket,
		publicURL: publicBase(cfg, bucket),
		log:       log,
	}, nil
}

func publicBase(cfg Config, bucket string) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.Endpoint + "/" + bucket
}

// EnsureBucket crea el bucket si no existe.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		s.log.Info("minio bucket created", map[string]any{"bucket": s.bucket})
	}
	return nil
}

func (s *Store) Put(ctx context.Context, obj blob.Object) (string, error) {
	key := keyPrefix + local.ObjectName(obj.Filename)
	size := obj.Size
	if size <= 0 {
		size = -1
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.mc.PutObject(ctx, s.bucket, key, obj.Body, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

func (s *Store) Delete(ctx context.Context, ref string) error {
	key, err := s.keyFor(ref)
	if err != nil {
		return err
	}
	if err := s.mc.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *Store) keyFor(ref string) (string, error) {
	key, ok := strings.CutPrefix(ref, s.publicURL+"/")
	if !ok || !strings.HasPrefix(key, keyPrefix) || strings.Contains(key, "..") || len(key) == len(keyPrefix) {
		return "", ErrBadRef
	}
	return key, nil
}
