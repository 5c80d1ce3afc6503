package users

import "time"

const (
	MaxLoginAttempts = 3
	LockDuration     = time.Hour
)

// LoginState es Unlocked(Attempts) si LockUntil es nil, Locked(LockUntil) si no.
type LoginState struct {
	Attempts  int
	LockUntil *time.Time
}

// evaluateLock indica si el intento debe rechazarse sin comparar el password.
// Un lock vencido se trata como Unlocked(0).
func evaluateLock(s LoginState, now time.Time) (LoginState, time.Duration, bool) {
	if s.LockUntil == nil {
		return s, 0, false
	}
	if now.Before(*s.LockUntil) {
		return s, s.LockUntil.Sub(now), true
	}
	return LoginState{}, 0, false
}

// registerFailure aplica un password incorrecto sobre un estado Unlocked.
func registerFailure(s LoginState, now time.Time) LoginState {
	next := LoginState{Attempts: s.Attempts + 1}
	if next.Attempts >= MaxLoginAttempts {
		until := now.Add(LockDuration)
		next.LockUntil = &until
	}
	return next
}

func (s LoginState) locked() bool { return s.LockUntil != nil }

func (s LoginState) isZero() bool { return s.Attempts == 0 && s.LockUntil == nil }
