// Package repository реализует хранилище данных на основе PostgreSQL
// для жизненного цикла подписчиков: регистрация, смена статуса,
// активация оплаченного периода, история платежей и статистика.
// Все запросы параметризованы позиционными аргументами $n.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPersistence оборачивает любую ошибку хранилища.
var ErrPersistence = errors.New("persistence failure")

// DBTX минимальный набор операций пула соединений.
// Ему удовлетворяют *pgxpool.Pool и pgxmock.PgxPoolIface.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB   DBTX
	pool *pgxpool.Pool
}

// New создаёт пул соединений к PostgreSQL и проверяет доступность базы.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	pool, err := pgxpool.New(ctx, storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB:   pool,
		pool: pool,
	}, nil
}

// NewWithDB создаёт хранилище поверх готового соединения (используется в тестах).
func NewWithDB(db DBTX) *Storage {
	return &Storage{DB: db}
}

// Pool возвращает пул соединений, nil если хранилище создано через NewWithDB.
func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

// Close закрывает пул соединений.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'users'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("required table users query error: %w", err)
	}
	if !exists {
		return fmt.Errorf("required table users missing")
	}
	return nil
}

// WaitReady повторяет CheckDatabaseReady, пока миграции не будут применены.
func WaitReady(ctx context.Context, storage *Storage, retries int, delay time.Duration) error {
	var err error
	for range retries {
		if err = CheckDatabaseReady(ctx, storage); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func ctxErr(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return wrap(op, ctx.Err())
	default:
		return nil
	}
}
