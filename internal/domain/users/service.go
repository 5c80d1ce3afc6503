package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/auth"
	"pawfect-match/internal/ports/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultAdminEmail = "admin@mail.com"
	DefaultHashCost   = 10
)

// Resultados de login para métricas.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid"
	OutcomeLockout     = "lockout"
	OutcomeLocked      = "locked"
	OutcomeUnknownUser = "unknown_user"
)

type LoginObserver interface {
	ObserveLogin(outcome string)
}

type Options struct {
	AdminEmail string
	HashCost   int
	Logger     logger.Logger
	Observer   LoginObserver
}

type Service struct {
	repo       Repository
	adminEmail string
	hashCost   int
	log        logger.Logger
	observer   LoginObserver
	now        func() time.Time
}

func NewService(repo Repository, opts Options) *Service {
	admin := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if admin == "" {
		admin = DefaultAdminEmail
	}
	cost := opts.HashCost
	if cost == 0 {
		cost = DefaultHashCost
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:       repo,
		adminEmail: admin,
		hashCost:   cost,
		log:        log,
		observer:   opts.Observer,
		now:        time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	name := strings.TrimSpace(in.Name)
	email, ok := normalizeEmail(in.Email)
	if name == "" || !ok {
		return User{}, ErrInvalidInput
	}
	if !ValidatePassword(in.Password) {
		return User{}, ErrWeakPassword
	}
	if len(in.Password) > MaxPasswordBytes {
		return User{}, ErrPasswordTooLong
	}

	// chequeo temprano; el índice único del storage es el que manda
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrDuplicateEmail
	} else if !errors.Is(err, storage.ErrNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return User{}, ErrPasswordTooLong
		}
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	role := auth.RoleUser
	if email == s.adminEmail {
		role = auth.RoleAdmin
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}

	s.log.Info("user registered", map[string]any{"user_id": u.ID, "role": string(u.Role)})
	return u, nil
}

// VerifyCredentials aplica la máquina de lockout:
// bloqueado => se rechaza sin comparar el hash y sin contar el intento;
// lock vencido => Unlocked(0); fallo => +1 (al tercero se bloquea 1h);
// éxito => se resetea el contador.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (User, error) {
	email, _ = normalizeEmail(email)

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.observe(OutcomeUnknownUser)
			return User{}, ErrNotFound
		}
		return User{}, err
	}

	now := s.now()
	state, remaining, locked := evaluateLock(u.loginState(), now)
	if locked {
		s.observe(OutcomeLocked)
		return User{}, &LockedError{Until: *state.LockUntil, Remaining: remaining}
	}

	cmpErr := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if cmpErr != nil && !errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword) {
		return User{}, fmt.Errorf("compare password: %w", cmpErr)
	}

	if cmpErr != nil {
		next := registerFailure(state, now)
		if err := s.repo.UpdateLoginState(ctx, u.ID, next); err != nil {
			return User{}, err
		}

		if next.locked() {
			s.observe(OutcomeLockout)
			s.log.Warn("account locked after failed logins", map[string]any{
				"user_id":    u.ID,
				"lock_until": next.LockUntil.Format(time.RFC3339),
			})
			return User{}, &LockedError{Until: *next.LockUntil, Remaining: LockDuration}
		}

		s.observe(OutcomeInvalid)
		return User{}, &InvalidCredentialsError{AttemptsLeft: MaxLoginAttempts - next.Attempts}
	}

	if !u.loginState().isZero() {
		if err := s.repo.UpdateLoginState(ctx, u.ID, LoginState{}); err != nil {
			return User{}, err
		}
		u.LoginAttempts = 0
		u.LockUntil = nil
	}

	s.observe(OutcomeSuccess)
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	if strings.TrimSpace(id) == "" {
		return Profile{}, ErrNotFound
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return u.Profile(), nil
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveLogin(outcome)
	}
}

func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return email, false
	}
	return email, true
}
