package postgres

import (
	"context"
	"strings"

	"pawfect-match/internal/domain/users"
	"pawfect-match/internal/ports/storage"
)

type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, email, password_hash, role, login_attempts, lock_until, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, u users.User) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		u.LoginAttempts,
		u.LockUntil,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return mapError(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, storage.ErrNotFound
	}
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepo) UpdateLoginState(ctx context.Context, id string, st users.LoginState) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE users
		SET login_attempts = $2, lock_until = $3, updated_at = now()
		WHERE id = $1
	`, id, st.Attempts, st.LockUntil)
	if err != nil {
		return mapError(err)
	}
	return affected(tag)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.LoginAttempts,
		&u.LockUntil,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return users.User{}, mapError(err)
	}
	return u, nil
}
