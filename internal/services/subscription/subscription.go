// Package services содержит бизнес-логику управления подписками:
// создание с контролем уникальности пары (пользователь, сервис),
// листинг, удаление с проверкой владельца и отчёт о популярности сервисов.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/user-subscription-service/internal/lib/apperr"
	"github.com/magabrotheeeer/user-subscription-service/internal/lib/sl"
	"github.com/magabrotheeeer/user-subscription-service/internal/models"
)

const (
	// DefaultPopularLimit — размер отчёта о популярности по умолчанию.
	DefaultPopularLimit = 3

	// PopularCacheKey хранит верхнюю часть отчёта о популярности.
	// Сбрасывается при любом изменении подписок, включая каскадное
	// удаление вместе с пользователем.
	PopularCacheKey = "subscriptions:popular"
	// popularCacheTTL ограничивает свежесть кешированного отчёта.
	popularCacheTTL = time.Minute
	// popularCacheLimit — сколько групп кешируется; запросы крупнее
	// идут мимо кеша напрямую в хранилище.
	popularCacheLimit = 50
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// CreateSubscription вставляет подписку и возвращает её ID.
	CreateSubscription(ctx context.Context, sub models.Subscription) (int64, error)
	// ListSubscriptions возвращает подписки пользователя.
	ListSubscriptions(ctx context.Context, userID int64) ([]*models.Subscription, error)
	// DeleteSubscription удаляет подписку от имени пользователя userID.
	DeleteSubscription(ctx context.Context, subscriptionID, userID int64) error
	// CountPopularSubscriptions возвращает не более limit самых
	// популярных сервисов с количеством подписок.
	CountPopularSubscriptions(ctx context.Context, limit int) ([]models.ServicePopularity, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// SubscriptionService реализует бизнес-логику работы с подписками.
type SubscriptionService struct {
	repo  SubscriptionRepository
	cache Cache
	log   *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Add создает подписку для пользователя userID. Дата начала выставляется
// сервером на сегодня; клиентская дата окончания, если задана, не может быть
// раньше даты начала. Дубликат пары (пользователь, сервис) — Conflict.
func (s *SubscriptionService) Add(ctx context.Context, userID int64, req *models.DummySubscription) (*models.Subscription, error) {
	if userID <= 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "user id must be a positive number")
	}
	if req == nil {
		return nil, apperr.New(apperr.KindInvalidArgument, "subscription data must not be empty")
	}

	startDate := today()
	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse(models.DateLayout, req.EndDate)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidArgument, "invalid end date", err)
		}
		if parsed.Before(startDate) {
			return nil, apperr.New(apperr.KindInvalidArgument, "end date must not be earlier than start date")
		}
		endDate = &parsed
	}

	sub := models.Subscription{
		ServiceName: req.ServiceName,
		UserID:      userID,
		StartDate:   startDate,
		EndDate:     endDate,
	}

	id, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.ID = id

	s.log.Info("created new subscription",
		slog.Int64("id", id), slog.Int64("user_id", userID), slog.String("service_name", sub.ServiceName))

	s.invalidatePopular(ctx)
	return &sub, nil
}

// List возвращает все подписки пользователя, каждая с идентификатором владельца.
func (s *SubscriptionService) List(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	if userID <= 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "user id must be a positive number")
	}
	return s.repo.ListSubscriptions(ctx, userID)
}

// Remove удаляет подписку subscriptionID от имени пользователя userID.
// Чужая подписка — Forbidden; повторное удаление — NotFound.
func (s *SubscriptionService) Remove(ctx context.Context, userID, subscriptionID int64) error {
	if userID <= 0 {
		return apperr.New(apperr.KindInvalidArgument, "user id must be a positive number")
	}
	if subscriptionID <= 0 {
		return apperr.New(apperr.KindInvalidArgument, "subscription id must be a positive number")
	}

	if err := s.repo.DeleteSubscription(ctx, subscriptionID, userID); err != nil {
		return err
	}

	s.log.Info("deleted subscription",
		slog.Int64("id", subscriptionID), slog.Int64("user_id", userID))

	s.invalidatePopular(ctx)
	return nil
}

// TopPopular возвращает не более n самых популярных сервисов, упорядоченных
// по убыванию количества подписок, при равенстве — по названию. Неположительное
// n заменяется значением по умолчанию. Верхняя часть отчёта кешируется.
func (s *SubscriptionService) TopPopular(ctx context.Context, n int) ([]models.ServicePopularity, error) {
	if n <= 0 {
		n = DefaultPopularLimit
	}
	if n > popularCacheLimit {
		return s.repo.CountPopularSubscriptions(ctx, n)
	}

	var cached []models.ServicePopularity
	found, err := s.cache.Get(ctx, PopularCacheKey, &cached)
	if err != nil {
		return nil, err
	}
	if found {
		return clip(cached, n), nil
	}

	result, err := s.repo.CountPopularSubscriptions(ctx, popularCacheLimit)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, PopularCacheKey, result, popularCacheTTL); err != nil {
		s.log.Warn("failed to cache popularity report", sl.Err(err))
	}
	return clip(result, n), nil
}

// invalidatePopular сбрасывает кеш отчёта после изменения подписок.
// Отказ кеша не считается отказом операции: TTL ограничит устаревание.
func (s *SubscriptionService) invalidatePopular(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, PopularCacheKey); err != nil {
		s.log.Warn("failed to invalidate popularity cache", sl.Err(err))
	}
}

func clip(groups []models.ServicePopularity, n int) []models.ServicePopularity {
	if len(groups) > n {
		return groups[:n]
	}
	return groups
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
