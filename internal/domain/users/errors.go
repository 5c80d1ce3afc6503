package users

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrWeakPassword       = errors.New("password must be at least 8 characters long and include a capital letter, number, and special symbol")
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes long", MaxPasswordBytes)
	ErrDuplicateEmail     = errors.New("user already exists")
	ErrNotFound           = errors.New("user not found")
	ErrLocked             = errors.New("account locked")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// LockedError: la cuenta está bloqueada hasta Until.
type LockedError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked. Try again in %d minute(s)", e.Minutes())
}

func (e *LockedError) Is(target error) bool { return target == ErrLocked }

// Minutes redondea hacia arriba, como se le muestra al usuario.
func (e *LockedError) Minutes() int {
	return int(math.Ceil(e.Remaining.Minutes()))
}

func (e *LockedError) Seconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}

type InvalidCredentialsError struct {
	AttemptsLeft int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials. %d attempt(s) left", e.AttemptsLeft)
}

func (e *InvalidCredentialsError) Is(target error) bool { return target == ErrInvalidCredentials }
