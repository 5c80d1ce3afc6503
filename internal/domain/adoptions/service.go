package adoptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pawfect-match/internal/domain/pets"
	"pawfect-match/internal/domain/users"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/storage"
	"pawfect-match/internal/ports/tx"

	"github.com/google/uuid"
)

const MaxMessageLen = 2000

// PetCatalog es la parte de pets.Service que usa el ledger.
type PetCatalog interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	ListAll(ctx context.Context) ([]pets.Pet, error)
	MarkAdopted(ctx context.Context, id string) error
}

type UserDirectory interface {
	GetByID(ctx context.Context, id string) (users.Profile, error)
}

type TransitionObserver interface {
	ObserveTransition(status string)
}

type Options struct {
	Tx       tx.Transactor
	Logger   logger.Logger
	Observer TransitionObserver
}

type Service struct {
	repo     Repository
	pets     PetCatalog
	users    UserDirectory
	tx       tx.Transactor
	log      logger.Logger
	observer TransitionObserver
	now      func() time.Time
}

func NewService(repo Repository, petCatalog PetCatalog, userDir UserDirectory, opts Options) *Service {
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
		pets:     petCatalog,
		users:    userDir,
		tx:       t,
		log:      log,
		observer: opts.Observer,
		now:      time.Now,
	}
}

type SubmitInput struct {
	PetID   string
	Message string
}

func (s *Service) Submit(ctx context.Context, userID string, in SubmitInput) (Request, error) {
	userID = strings.TrimSpace(userID)
	petID := strings.TrimSpace(in.PetID)
	msg := strings.TrimSpace(in.Message)
	if userID == "" || petID == "" || utf8.RuneCountInString(msg) > MaxMessageLen {
		return Request{}, ErrInvalidInput
	}

	// la existencia de la mascota y el insert van en la misma unidad de trabajo;
	// con un Transactor no atómico un delete concurrente de la mascota puede
	// dejar una solicitud huérfana; los listados la muestran sin datos de mascota
	now := s.now()
	req := Request{
		ID:        uuid.NewString(),
		UserID:    userID,
		PetID:     petID,
		Message:   msg,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.pets.GetByID(ctx, petID); err != nil {
			if errors.Is(err, pets.ErrNotFound) {
				return ErrPetNotFound
			}
			return err
		}

		// cualquier solicitud existente (cualquier estado) bloquea una nueva
		if _, err := s.repo.FindByUserAndPet(ctx, userID, petID); err == nil {
			return ErrDuplicate
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		if err := s.repo.Create(ctx, req); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return ErrDuplicate
			}
			return err
		}
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	s.observe(StatusPending)
	return req, nil
}

// Cancel: solo el dueño, en cualquier estado.
func (s *Service) Cancel(ctx context.Context, requestID, callerID string) error {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.UserID != callerID {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, req.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// SetStatus aprueba o rechaza. Aprobar marca la mascota como adoptada en la
// misma unidad de trabajo; rechazar nunca toca Pet.Adopted.
func (s *Service) SetStatus(ctx context.Context, requestID string, status Status) (Request, error) {
	if status != StatusApproved && status != StatusRejected {
		return Request{}, ErrInvalidStatus
	}

	req, err := s.get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}

	now := s.now()
	if status == StatusRejected {
		if err := s.updateStatus(ctx, req.ID, StatusRejected, now); err != nil {
			return Request{}, err
		}
		req.Status, req.UpdatedAt = StatusRejected, now
		s.observe(StatusRejected)
		return req, nil
	}

	if err := s.approve(ctx, req, now); err != nil {
		return Request{}, err
	}
	req.Status, req.UpdatedAt = StatusApproved, now
	s.observe(StatusApproved)
	s.log.Info("adoption approved", map[string]any{"request_id": req.ID, "pet_id": req.PetID, "user_id": req.UserID})
	return req, nil
}

func (s *Service) approve(ctx context.Context, req Request, now time.Time) error {
	var statusWritten bool

	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		statusWritten = false
		if err := s.updateStatus(ctx, req.ID, StatusApproved, now); err != nil {
			return err
		}
		statusWritten = true
		return s.pets.MarkAdopted(ctx, req.PetID)
	})
	if err == nil {
		return nil
	}
	if !statusWritten {
		return err
	}

	ae := &ApprovalError{RequestID: req.ID, PetID: req.PetID, Err: err, Reverted: s.tx.Atomic()}
	if !ae.Reverted {
		// compensación: volver la solicitud a su estado anterior
		if cerr := s.repo.UpdateStatus(ctx, req.ID, req.Status, req.UpdatedAt); cerr != nil {
			ae.CompensateErr = cerr
		} else {
			ae.Reverted = true
		}
	}

	s.log.Error("adoption approval incomplete", map[string]any{
		"request_id": req.ID,
		"pet_id":     req.PetID,
		"reverted":   ae.Reverted,
		"error":      ae.Error(),
	})
	return ae
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]UserRequestView, error) {
	reqs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	petsByID, err := s.petIndex(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]UserRequestView, 0, len(reqs))
	for _, r := range reqs {
		v := UserRequestView{Request: r}
		if p, ok := petsByID[r.PetID]; ok {
			v.PetName, v.PetCode, v.PetBreed = p.Name, p.Code, p.Breed
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) ListAll(ctx context.Context) ([]AdminRequestView, error) {
	reqs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	petsByID, err := s.petIndex(ctx)
	if err != nil {
		return nil, err
	}

	profiles := map[string]users.Profile{}
	out := make([]AdminRequestView, 0, len(reqs))
	for _, r := range reqs {
		v := AdminRequestView{Request: r}
		if p, ok := petsByID[r.PetID]; ok {
			v.PetName, v.PetCode = p.Name, p.Code
		}

		prof, seen := profiles[r.UserID]
		if !seen {
			prof, err = s.users.GetByID(ctx, r.UserID)
			if err != nil && !errors.Is(err, users.ErrNotFound) {
				return nil, err
			}
			profiles[r.UserID] = prof
		}
		v.UserName, v.UserEmail = prof.Name, prof.Email
		out = append(out, v)
	}
	return out, nil
}

// DerivedAvailable: todas las mascotas menos las que tienen una solicitud
// aprobada. Solo para mostrar; la disponibilidad real es Pet.Adopted.
func (s *Service) DerivedAvailable(ctx context.Context) ([]pets.Pet, error) {
	all, approved, err := s.petsAndApproved(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]pets.Pet, 0, len(all))
	for _, p := range all {
		if !approved[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// CheckConsistency lista mascotas donde Pet.Adopted y la vista derivada no coinciden.
func (s *Service) CheckConsistency(ctx context.Context) ([]Inconsistency, error) {
	all, approved, err := s.petsAndApproved(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Inconsistency, 0)
	for _, p := range all {
		if p.Adopted != approved[p.ID] {
			out = append(out, Inconsistency{
				PetID:       p.ID,
				PetCode:     p.Code,
				Adopted:     p.Adopted,
				HasApproved: approved[p.ID],
			})
		}
	}
	return out, nil
}

func (s *Service) petsAndApproved(ctx context.Context) ([]pets.Pet, map[string]bool, error) {
	all, err := s.pets.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	reqs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	approved := map[string]bool{}
	for _, r := range reqs {
		if r.Status == StatusApproved {
			approved[r.PetID] = true
		}
	}
	return all, approved, nil
}

func (s *Service) petIndex(ctx context.Context) (map[string]pets.Pet, error) {
	all, err := s.pets.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]pets.Pet, len(all))
	for _, p := range all {
		idx[p.ID] = p
	}
	return idx, nil
}

func (s *Service) get(ctx context.Context, id string) (Request, error) {
	if strings.TrimSpace(id) == "" {
		return Request{}, ErrNotFound
	}
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	return req, nil
}

func (s *Service) updateStatus(ctx context.Context, id string, status Status, at time.Time) error {
	if err := s.repo.UpdateStatus(ctx, id, status, at); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update request status: %w", err)
	}
	return nil
}

func (s *Service) observe(status Status) {
	if s.observer != nil {
		s.observer.ObserveTransition(string(status))
	}
}
