// Package postgres implementa los repositorios sobre PostgreSQL (pgx/v5).
//
// Las transacciones viajan en el ctx: dentro de Transactor.InTransaction los
// repositorios usan la pgx.Tx en vez del pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/tx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// DB es lo que usan los repos. *pgxpool.Pool y pgxmock.PgxPoolIface lo cumplen.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// conn devuelve la tx del ctx si hay una, o el pool.
func conn(ctx context.Context, db DB) querier {
	if t, ok := ctx.Value(txKey{}).(pgx.Tx); ok && t != nil {
		return t
	}
	return db
}

type Store struct {
	Users     *UserRepo
	Pets      *PetRepo
	Adoptions *AdoptionRepo

	db   DB
	pool *pgxpool.Pool
}

// NewStore arma los repos sobre una conexión ya abierta (pool real o mock).
func NewStore(db DB) *Store {
	return &Store{
		Users:     NewUserRepo(db),
		Pets:      NewPetRepo(db),
		Adoptions: NewAdoptionRepo(db),
		db:        db,
	}
}

type OpenOptions struct {
	MaxConns int32
	// Reintentos del primer ping (la base puede tardar en levantar en compose).
	ConnectAttempts uint64
	ConnectBackoff  time.Duration
	Logger          logger.Logger
}

// Open abre un pool pgx y espera a que la base responda.
func Open(ctx context.Context, dsn string, opts OpenOptions) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	// defaults razonables (ajustable luego)
	cfg.MaxConns = 10
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	attempts := opts.ConnectAttempts
	if attempts == 0 {
		attempts = 5
	}
	backoff := opts.ConnectBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	b := retry.WithMaxRetries(attempts, retry.NewExponential(backoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			log.Warn("postgres not ready", map[string]any{"error": err})
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewStore(pool)
	s.pool = pool
	return s, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) Transactor() tx.Transactor { return Transactor{db: s.db} }

// Transactor corre fn dentro de una transacción real: un error deshace todo.
type Transactor struct {
	db DB
}

func NewTransactor(db DB) Transactor { return Transactor{db: db} }

func (Transactor) Atomic() bool { return true }

func (t Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	// anidado: se une a la tx existente
	if existing, ok := ctx.Value(txKey{}).(pgx.Tx); ok && existing != nil {
		return fn(ctx)
	}

	ptx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = ptx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, ptx)); err != nil {
		if rbErr := ptx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := ptx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", mapError(err))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}
