package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/user-subscription-service/internal/lib/apperr"
	"github.com/magabrotheeeer/user-subscription-service/internal/models"
)

// CreateUser сохраняет нового пользователя и возвращает его ID.
// Занятый email переводится в AlreadyExists независимо от того,
// кто успел вставить конкурирующую запись.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (name, email)
			  VALUES ($1, $2)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query, user.Name, user.Email).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err, emailUniqueConstraint) {
			return 0, apperr.Newf(apperr.KindAlreadyExists, "user with email %s already exists", user.Email)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByID возвращает пользователя по его ID.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email
			  FROM users
			  WHERE id = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&u.ID, &u.Name, &u.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "user with id %d not found", id)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UserExistsByEmail сообщает, зарегистрирован ли уже такой email.
func (s *Storage) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	const op = "storage.UserExistsByEmail"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// UpdateUser применяет частичное обновление к пользователю в одной транзакции
// и возвращает обновлённую запись. Поля, отсутствующие в патче, не меняются.
// Смена email на занятый другим пользователем переводится в Conflict.
func (s *Storage) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	const op = "storage.UpdateUser"

	u := &models.User{ID: id}
	err := s.withTx(ctx, op, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT name, email FROM users WHERE id = $1 FOR UPDATE`, id)
		if err := row.Scan(&u.Name, &u.Email); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.Newf(apperr.KindNotFound, "user with id %d not found", id)
			}
			return err
		}

		if patch.Email != nil && *patch.Email != u.Email {
			var taken bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
				*patch.Email, id).Scan(&taken)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Newf(apperr.KindConflict, "email %s is already in use", *patch.Email)
			}
			u.Email = *patch.Email
		}
		if patch.Name != nil {
			u.Name = *patch.Name
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE users SET name = $1, email = $2 WHERE id = $3`,
			u.Name, u.Email, id)
		if isUniqueViolation(err, emailUniqueConstraint) {
			return apperr.Newf(apperr.KindConflict, "email %s is already in use", u.Email)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser удаляет пользователя вместе с его подписками (каскадно,
// через внешний ключ) в одной транзакции.
func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	const op = "storage.DeleteUser"

	return s.withTx(ctx, op, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return apperr.Newf(apperr.KindNotFound, "user with id %d not found", id)
		}
		return nil
	})
}

// ListUsers возвращает всех пользователей в порядке их идентификаторов.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email
			  FROM users
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
