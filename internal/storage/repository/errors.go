package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Коды ошибок PostgreSQL, значимые для перевода в таксономию apperr.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// Имена ограничений схемы, на которые опирается перевод ошибок.
const (
	emailUniqueConstraint       = "users_email_key"
	serviceUniqueConstraint     = "subscriptions_user_id_service_name_key"
	subscriptionDatesConstraint = "subscriptions_end_date_check"
)

// pgError извлекает из цепочки ошибку драйвера PostgreSQL.
func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// isUniqueViolation сообщает, что ошибка — нарушение заданного
// ограничения уникальности.
func isUniqueViolation(err error, constraint string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == constraint
}

// isForeignKeyViolation сообщает, что ошибка — нарушение внешнего ключа.
func isForeignKeyViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == foreignKeyViolationCode
}

// isCheckViolation сообщает, что ошибка — нарушение заданного CHECK-ограничения.
func isCheckViolation(err error, constraint string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == checkViolationCode && pgErr.ConstraintName == constraint
}
