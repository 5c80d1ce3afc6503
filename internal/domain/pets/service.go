package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/blob"
	"pawfect-match/internal/ports/storage"
	"pawfect-match/internal/ports/tx"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
)

const codePrefix = "PET-"

type Options struct {
	Blobs    blob.Store
	Tx       tx.Transactor
	Purger   RequestPurger
	Logger   logger.Logger
	Observer CascadeObserver
}

type Service struct {
	repo     Repository
	blobs    blob.Store
	tx       tx.Transactor
	purger   RequestPurger
	log      logger.Logger
	observer CascadeObserver
	now      func() time.Time
}

func NewService(repo Repository, opts Options) *Service {
	t := opts.Tx
	if t == nil {
		t = tx.Direct{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		blobs:    opts.Blobs,
		tx:       t,
		purger:   opts.Purger,
		log:      log,
		observer: opts.Observer,
		now:      time.Now,
	}
}

type CreateInput struct {
	Name        string
	Breed       string
	Age         string
	Description string
	Image       *blob.Object
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Pet, error) {
	name := strings.TrimSpace(in.Name)
	breed := strings.TrimSpace(in.Breed)
	age := strings.TrimSpace(in.Age)
	desc := strings.TrimSpace(in.Description)
	if name == "" || breed == "" || age == "" || desc == "" {
		return Pet{}, ErrInvalidInput
	}

	image, err := s.putImage(ctx, in.Image)
	if err != nil {
		return Pet{}, err
	}

	now := s.now()
	p := Pet{
		ID:          uuid.NewString(),
		Code:        newCode(now),
		Name:        name,
		Breed:       breed,
		Age:         age,
		Description: desc,
		Image:       image,
		Adopted:     false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.dropImage(ctx, image)
		return Pet{}, fmt.Errorf("create pet: %w", err)
	}
	return p, nil
}

type UpdateInput struct {
	// nil = no tocar
	Name        *string
	Breed       *string
	Age         *string
	Description *string
	Image       *blob.Object
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Pet, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	for _, f := range []struct {
		src *string
		dst *string
	}{
		{in.Name, &p.Name},
		{in.Breed, &p.Breed},
		{in.Age, &p.Age},
		{in.Description, &p.Description},
	} {
		if f.src == nil {
			continue
		}
		v := strings.TrimSpace(*f.src)
		if v == "" {
			return Pet{}, ErrInvalidInput
		}
		*f.dst = v
	}

	oldImage := p.Image
	newImage, err := s.putImage(ctx, in.Image)
	if err != nil {
		return Pet{}, err
	}
	if newImage != "" {
		p.Image = newImage
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		s.dropImage(ctx, newImage)
		if errors.Is(err, storage.ErrNotFound) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, fmt.Errorf("update pet: %w", err)
	}

	if newImage != "" && oldImage != "" {
		s.dropImage(ctx, oldImage)
	}
	return p, nil
}

// Delete borra la mascota y luego sus solicitudes de adopción como una
// unidad de trabajo. Con un transactor atómico un fallo no deja nada
// borrado; si no es atómico y la mascota ya se borró, devuelve *CascadeError.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	var (
		petDeleted bool
		purged     int64
	)
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		petDeleted = false
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		petDeleted = true

		if s.purger == nil {
			return nil
		}
		n, err := s.purger.DeleteByPet(ctx, id)
		if err != nil {
			return fmt.Errorf("delete adoption requests: %w", err)
		}
		purged = n
		return nil
	})

	if err != nil {
		if !petDeleted && errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		if petDeleted && !s.tx.Atomic() {
			s.log.Error("pet deleted but cascade failed", map[string]any{"pet_id": id, "error": err})
			return &CascadeError{PetID: id, Err: err}
		}
		return fmt.Errorf("delete pet: %w", err)
	}

	if s.observer != nil {
		s.observer.ObserveCascade(purged)
	}
	s.log.Info("pet deleted", map[string]any{"pet_id": id, "code": p.Code, "requests_deleted": purged})

	s.dropImage(ctx, p.Image)
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	if strings.TrimSpace(id) == "" {
		return Pet{}, ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) ListAvailable(ctx context.Context) ([]Pet, error) {
	return s.repo.ListAvailable(ctx)
}

func (s *Service) ListAll(ctx context.Context) ([]Pet, error) {
	return s.repo.ListAll(ctx)
}

// MarkAdopted lo usa solo el ledger de adopciones al aprobar.
func (s *Service) MarkAdopted(ctx context.Context, id string) error {
	if err := s.repo.MarkAdopted(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) putImage(ctx context.Context, obj *blob.Object) (string, error) {
	if obj == nil || s.blobs == nil {
		return "", nil
	}
	ref, err := s.blobs.Put(ctx, *obj)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return ref, nil
}

// dropImage es best-effort: un blob huérfano no invalida la operación.
func (s *Service) dropImage(ctx context.Context, ref string) {
	if ref == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, ref); err != nil {
		s.log.Warn("delete image failed", map[string]any{"image": ref, "error": err})
	}
}

func newCode(now time.Time) string {
	return codePrefix + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
