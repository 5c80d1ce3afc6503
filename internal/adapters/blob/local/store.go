// Package local guarda las imágenes en disco y las sirve bajo /uploads.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pawfect-match/internal/ports/blob"

	"github.com/oklog/ulid/v2"
)

const DefaultURLPrefix = "/uploads"

var ErrBadRef = errors.New("blob ref outside uploads")

type Store struct {
	dir    string
	prefix string
}

func New(dir, urlPrefix string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("uploads dir is required")
	}
	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{dir: dir, prefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

// Put escribe a un archivo temporal y renombra: nunca se sirve un archivo a medias.
func (s *Store) Put(ctx context.Context, obj blob.Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := ObjectName(obj.Filename)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, obj.Body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return s.prefix + "/" + name, nil
}

// Delete ignora archivos que ya no existen.
func (s *Store) Delete(ctx context.Context, ref string) error {
	name, ok := strings.CutPrefix(ref, s.prefix+"/")
	if !ok || name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		return ErrBadRef
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (s *Store) Prefix() string { return s.prefix }

// Handler sirve los archivos sin listar directorios.
func (s *Store) Handler() http.Handler {
	files := http.StripPrefix(s.prefix, http.FileServer(http.Dir(s.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") || strings.HasPrefix(path.Base(r.URL.Path), ".") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}

// ObjectName genera un nombre único y seguro para URLs a partir del nombre original.
func ObjectName(original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	clean := strings.Trim(b.String(), ".-")
	if len(clean) > 64 {
		clean = clean[len(clean)-64:]
	}
	id := strings.ToLower(ulid.Make().String())
	if clean == "" {
		return id
	}
	return id + "-" + clean
}
