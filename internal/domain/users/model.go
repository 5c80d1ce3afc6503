package users

import (
	"time"

	"pawfect-match/internal/ports/auth"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         auth.Role

	// Estado de lockout. Solo lo modifica VerifyCredentials.
	LoginAttempts int
	LockUntil     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile es lo único que se expone de un usuario (nunca el hash).
type Profile struct {
	ID    string
	Name  string
	Email string
	Role  auth.Role
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (u User) loginState() LoginState {
	return LoginState{Attempts: u.LoginAttempts, LockUntil: u.LockUntil}
}
