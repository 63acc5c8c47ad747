// Package repository реализует хранилище данных на основе PostgreSQL
// для управления пользователями и их подписками. Предоставляет методы
// создания, чтения, обновления, удаления и агрегирования записей.
//
// Уникальность email и пары (пользователь, сервис) обеспечивается
// ограничениями схемы; нарушения переводятся в ошибки apperr, так что
// параллельные вызовы получают тот же исход, что и предварительная проверка.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/user-subscription-service/internal/lib/apperr"
)

// txTimeout ограничивает длительность одной многошаговой операции.
// Превышение переводится в TransientFailure для вызывающей стороны.
const txTimeout = 3 * time.Second

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями и подписками.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscriptions'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table subscriptions missing or query error: %w", err)
	}
	return nil
}

// withTx выполняет fn в одной транзакции с ограничением по времени.
// Любая ошибка fn откатывает все изменения; истечение дедлайна
// переводится в apperr.KindTransient.
func (s *Storage) withTx(ctx context.Context, op string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return wrapTxErr(op, err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%s: rollback after %v: %w", op, err, rbErr)
		}
		return wrapTxErr(op, err)
	}

	if err := tx.Commit(); err != nil {
		return wrapTxErr(op, err)
	}
	return nil
}

// wrapTxErr сохраняет типизированные ошибки как есть, переводит истечение
// дедлайна в TransientFailure и оборачивает остальное именем операции.
func wrapTxErr(op string, err error) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindTransient, "storage operation timed out", fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
