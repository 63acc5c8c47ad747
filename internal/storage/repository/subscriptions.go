package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/user-subscription-service/internal/lib/apperr"
	"github.com/magabrotheeeer/user-subscription-service/internal/models"
)

// CreateSubscription вставляет новую подписку в одной транзакции и возвращает её ID.
// Порядок шагов: владелец существует (NotFound), дубликата у него нет (Conflict),
// вставка. Предварительные проверки дают понятное сообщение, но решающим
// остаётся ограничение уникальности (user_id, service_name): проигравший
// конкурентной вставки получает тот же Conflict.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (int64, error) {
	const op = "storage.CreateSubscription"

	var newID int64
	err := s.withTx(ctx, op, func(ctx context.Context, tx *sql.Tx) error {
		var userExists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, sub.UserID).Scan(&userExists)
		if err != nil {
			return err
		}
		if !userExists {
			return apperr.Newf(apperr.KindNotFound, "user with id %d not found", sub.UserID)
		}

		var duplicate bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE user_id = $1 AND service_name = $2)`,
			sub.UserID, sub.ServiceName).Scan(&duplicate)
		if err != nil {
			return err
		}
		if duplicate {
			return apperr.Newf(apperr.KindConflict,
				"user %d already has a subscription to %s", sub.UserID, sub.ServiceName)
		}

		query := `INSERT INTO subscriptions (service_name, user_id, start_date, end_date)
				  VALUES ($1, $2, $3, $4)
				  RETURNING id`
		err = tx.QueryRowContext(ctx, query,
			sub.ServiceName, sub.UserID, sub.StartDate, sub.EndDate).Scan(&newID)
		if err != nil {
			return mapCreateSubscriptionError(err, sub)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

// mapCreateSubscriptionError переводит нарушения ограничений схемы при вставке
// в те же исходы, что дали бы предварительные проверки.
func mapCreateSubscriptionError(err error, sub models.Subscription) error {
	switch {
	case isUniqueViolation(err, serviceUniqueConstraint):
		return apperr.Newf(apperr.KindConflict,
			"user %d already has a subscription to %s", sub.UserID, sub.ServiceName)
	case isForeignKeyViolation(err):
		return apperr.Newf(apperr.KindNotFound, "user with id %d not found", sub.UserID)
	case isCheckViolation(err, subscriptionDatesConstraint):
		return apperr.New(apperr.KindInvalidArgument, "end date must not be earlier than start date")
	default:
		return err
	}
}

// ListSubscriptions возвращает все подписки пользователя в порядке их создания.
// Несуществующий пользователь — NotFound, а не пустой список.
func (s *Storage) ListSubscriptions(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var userExists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&userExists)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !userExists {
		return nil, apperr.Newf(apperr.KindNotFound, "user with id %d not found", userID)
	}

	query := `SELECT id, service_name, user_id, start_date, end_date
			  FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		var endDate sql.NullTime
		if err := rows.Scan(&item.ID, &item.ServiceName, &item.UserID,
			&item.StartDate, &endDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if endDate.Valid {
			item.EndDate = &endDate.Time
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteSubscription удаляет подписку по ID от имени пользователя userID
// в одной транзакции. Несуществующий пользователь или подписка — NotFound,
// чужая подписка — Forbidden. Физическое удаление повторно проверяет
// владельца в своём предикате, закрывая зазор между проверкой и удалением.
func (s *Storage) DeleteSubscription(ctx context.Context, subscriptionID, userID int64) error {
	const op = "storage.DeleteSubscription"

	return s.withTx(ctx, op, func(ctx context.Context, tx *sql.Tx) error {
		var userExists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&userExists)
		if err != nil {
			return err
		}
		if !userExists {
			return apperr.Newf(apperr.KindNotFound, "user with id %d not found", userID)
		}

		var ownerID int64
		err = tx.QueryRowContext(ctx,
			`SELECT user_id FROM subscriptions WHERE id = $1`, subscriptionID).Scan(&ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Newf(apperr.KindNotFound, "subscription with id %d not found", subscriptionID)
		}
		if err != nil {
			return err
		}
		if ownerID != userID {
			return apperr.Newf(apperr.KindForbidden,
				"subscription %d does not belong to user %d", subscriptionID, userID)
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM subscriptions WHERE id = $1 AND user_id = $2`, subscriptionID, userID)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return apperr.Newf(apperr.KindNotFound, "subscription with id %d not found", subscriptionID)
		}
		return nil
	})
}

// CountPopularSubscriptions группирует подписки по названию сервиса и возвращает
// не более limit групп, упорядоченных по убыванию количества; при равенстве —
// по названию сервиса по возрастанию.
func (s *Storage) CountPopularSubscriptions(ctx context.Context, limit int) ([]models.ServicePopularity, error) {
	const op = "storage.CountPopularSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT service_name, COUNT(*) AS subscribers
			  FROM subscriptions
			  GROUP BY service_name
			  ORDER BY subscribers DESC, service_name ASC
			  LIMIT $1`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.ServicePopularity
	for rows.Next() {
		var item models.ServicePopularity
		if err := rows.Scan(&item.ServiceName, &item.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
