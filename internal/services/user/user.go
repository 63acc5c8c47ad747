// Package services содержит бизнес-логику управления пользователями:
// создание с контролем уникальности email, чтение, частичное обновление,
// удаление и листинг.
package services

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/user-subscription-service/internal/lib/apperr"
	"github.com/magabrotheeeer/user-subscription-service/internal/lib/sl"
	"github.com/magabrotheeeer/user-subscription-service/internal/models"
	subservice "github.com/magabrotheeeer/user-subscription-service/internal/services/subscription"
)

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (int64, error)
	// GetUserByID возвращает пользователя по ID.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// UserExistsByEmail сообщает, зарегистрирован ли email.
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
	// UpdateUser применяет частичное обновление и возвращает обновлённую запись.
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	// DeleteUser удаляет пользователя вместе с его подписками.
	DeleteUser(ctx context.Context, id int64) error
	// ListUsers возвращает всех пользователей.
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Cache описывает сброс кешированных отчётов при изменении данных.
type Cache interface {
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// UserService реализует бизнес-логику работы с пользователями.
type UserService struct {
	repo  UserRepository
	cache Cache
	log   *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, cache Cache, log *slog.Logger) *UserService {
	return &UserService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create регистрирует нового пользователя. Занятый email — AlreadyExists.
// Предварительная проверка даёт понятное сообщение, решающим остаётся
// ограничение уникальности в хранилище.
func (s *UserService) Create(ctx context.Context, req models.DummyUser) (*models.User, error) {
	exists, err := s.repo.UserExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Newf(apperr.KindAlreadyExists, "user with email %s already exists", req.Email)
	}

	user := models.User{Name: req.Name, Email: req.Email}
	id, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	s.log.Info("created new user", slog.Int64("id", id))
	return &user, nil
}

// GetByID возвращает пользователя по ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "user id must be a positive number")
	}
	return s.repo.GetUserByID(ctx, id)
}

// Update применяет частичное обновление: присутствующие в патче поля
// перезаписывают сохранённые значения, отсутствующие не меняются.
func (s *UserService) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	if id <= 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "user id must be a positive number")
	}
	if patch.IsEmpty() {
		return s.repo.GetUserByID(ctx, id)
	}

	user, err := s.repo.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.log.Info("updated user", slog.Int64("id", id))
	return user, nil
}

// Delete удаляет пользователя; его подписки удаляются каскадно
// в той же транзакции, поэтому отчёт о популярности тоже сбрасывается.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.New(apperr.KindInvalidArgument, "user id must be a positive number")
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.log.Info("deleted user", slog.Int64("id", id))

	// Отказ кеша не считается отказом операции: TTL ограничит устаревание.
	if err := s.cache.Invalidate(ctx, subservice.PopularCacheKey); err != nil {
		s.log.Warn("failed to invalidate popularity cache", sl.Err(err))
	}
	return nil
}

// ListAll возвращает всех пользователей без пагинации.
func (s *UserService) ListAll(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}
