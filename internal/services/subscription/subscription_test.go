package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-subscription-service/internal/lib/apperr"
	"github.com/magabrotheeeer/user-subscription-service/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) (int64, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) ListSubscriptions(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}
func (m *RepoMock) DeleteSubscription(ctx context.Context, subscriptionID, userID int64) error {
	return m.Called(ctx, subscriptionID, userID).Error(0)
}
func (m *RepoMock) CountPopularSubscriptions(ctx context.Context, limit int) ([]models.ServicePopularity, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServicePopularity), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(r *RepoMock, c *CacheMock) *SubscriptionService {
	return NewSubscriptionService(r, c, newNoopLogger())
}

func TestSubscriptionService_Add(t *testing.T) {
	futureEnd := time.Now().UTC().AddDate(0, 6, 0).Format(models.DateLayout)

	tests := []struct {
		name       string
		userID     int64
		req        *models.DummySubscription
		setupMocks func(r *RepoMock, c *CacheMock)
		wantID     int64
		wantKind   apperr.Kind
	}{
		{
			name:   "success create",
			userID: 1,
			req:    &models.DummySubscription{ServiceName: "Netflix"},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
					return s.ServiceName == "Netflix" &&
						s.UserID == 1 &&
						s.EndDate == nil &&
						!s.StartDate.IsZero()
				})).Return(int64(42), nil).Once()
				c.On("Invalidate", mock.Anything, "subscriptions:popular").Return(nil).Once()
			},
			wantID: 42,
		},
		{
			name:   "success create with end date",
			userID: 1,
			req:    &models.DummySubscription{ServiceName: "Spotify", EndDate: futureEnd},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
					return s.ServiceName == "Spotify" && s.EndDate != nil
				})).Return(int64(43), nil).Once()
				c.On("Invalidate", mock.Anything, "subscriptions:popular").Return(nil).Once()
			},
			wantID: 43,
		},
		{
			name:       "non-positive user id",
			userID:     0,
			req:        &models.DummySubscription{ServiceName: "Netflix"},
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantKind:   apperr.KindInvalidArgument,
		},
		{
			name:       "nil request",
			userID:     1,
			req:        nil,
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantKind:   apperr.KindInvalidArgument,
		},
		{
			name:       "malformed end date",
			userID:     1,
			req:        &models.DummySubscription{ServiceName: "Netflix", EndDate: "2024-31-12"},
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantKind:   apperr.KindInvalidArgument,
		},
		{
			name:       "end date before start date",
			userID:     1,
			req:        &models.DummySubscription{ServiceName: "Netflix", EndDate: "01-01-2020"},
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantKind:   apperr.KindInvalidArgument,
		},
		{
			name:   "duplicate service for user",
			userID: 1,
			req:    &models.DummySubscription{ServiceName: "Netflix"},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("CreateSubscription", mock.Anything, mock.Anything).
					Return(int64(0), apperr.Newf(apperr.KindConflict,
						"user %d already has a subscription to %s", 1, "Netflix")).Once()
			},
			wantKind: apperr.KindConflict,
		},
		{
			name:   "owner not found",
			userID: 99,
			req:    &models.DummySubscription{ServiceName: "Netflix"},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("CreateSubscription", mock.Anything, mock.Anything).
					Return(int64(0), apperr.Newf(apperr.KindNotFound, "user with id %d not found", 99)).Once()
			},
			wantKind: apperr.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)
			svc := newService(repo, cache)

			got, err := svc.Add(context.Background(), tt.userID, tt.req)

			if tt.wantKind != apperr.KindUnknown {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, got.ID)
				assert.Equal(t, tt.userID, got.UserID)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_List(t *testing.T) {
	t.Run("returns subscriptions annotated with owner id", func(t *testing.T) {
		subs := []*models.Subscription{
			{ID: 10, ServiceName: "Netflix", UserID: 1},
			{ID: 11, ServiceName: "Spotify", UserID: 1},
		}
		repo := new(RepoMock)
		repo.On("ListSubscriptions", mock.Anything, int64(1)).Return(subs, nil).Once()
		svc := newService(repo, new(CacheMock))

		got, err := svc.List(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, subs, got)
	})

	t.Run("invalid user id", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(CacheMock))

		_, err := svc.List(context.Background(), -1)
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
		repo.AssertNotCalled(t, "ListSubscriptions")
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ListSubscriptions", mock.Anything, int64(5)).
			Return(nil, apperr.Newf(apperr.KindNotFound, "user with id %d not found", 5)).Once()
		svc := newService(repo, new(CacheMock))

		_, err := svc.List(context.Background(), 5)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestSubscriptionService_Remove(t *testing.T) {
	tests := []struct {
		name           string
		userID         int64
		subscriptionID int64
		setupMocks     func(r *RepoMock, c *CacheMock)
		wantKind       apperr.Kind
	}{
		{
			name:           "success remove",
			userID:         1,
			subscriptionID: 10,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("DeleteSubscription", mock.Anything, int64(10), int64(1)).Return(nil).Once()
				c.On("Invalidate", mock.Anything, "subscriptions:popular").Return(nil).Once()
			},
		},
		{
			name:           "invalid user id",
			userID:         0,
			subscriptionID: 10,
			setupMocks:     func(_ *RepoMock, _ *CacheMock) {},
			wantKind:       apperr.KindInvalidArgument,
		},
		{
			name:           "invalid subscription id",
			userID:         1,
			subscriptionID: -10,
			setupMocks:     func(_ *RepoMock, _ *CacheMock) {},
			wantKind:       apperr.KindInvalidArgument,
		},
		{
			name:           "foreign subscription",
			userID:         2,
			subscriptionID: 10,
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("DeleteSubscription", mock.Anything, int64(10), int64(2)).
					Return(apperr.Newf(apperr.KindForbidden,
						"subscription %d does not belong to user %d", 10, 2)).Once()
			},
			wantKind: apperr.KindForbidden,
		},
		{
			name:           "already removed",
			userID:         1,
			subscriptionID: 10,
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("DeleteSubscription", mock.Anything, int64(10), int64(1)).
					Return(apperr.Newf(apperr.KindNotFound, "subscription with id %d not found", 10)).Once()
			},
			wantKind: apperr.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)
			svc := newService(repo, cache)

			err := svc.Remove(context.Background(), tt.userID, tt.subscriptionID)

			if tt.wantKind != apperr.KindUnknown {
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_TopPopular(t *testing.T) {
	report := []models.ServicePopularity{
		{ServiceName: "Netflix", Count: 3},
		{ServiceName: "Hulu", Count: 1},
		{ServiceName: "Spotify", Count: 1},
	}

	t.Run("cache miss fetches and caches the report", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", mock.Anything, "subscriptions:popular", mock.Anything).Return(false, nil).Once()
		repo.On("CountPopularSubscriptions", mock.Anything, 50).Return(report, nil).Once()
		cache.On("Set", mock.Anything, "subscriptions:popular", report, time.Minute).Return(nil).Once()
		svc := newService(repo, cache)

		got, err := svc.TopPopular(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, report, got)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips the repository", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", mock.Anything, "subscriptions:popular", mock.Anything).
			Run(func(args mock.Arguments) {
				out := args.Get(2).(*[]models.ServicePopularity)
				*out = report
			}).Return(true, nil).Once()
		svc := newService(repo, cache)

		got, err := svc.TopPopular(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, report[:2], got)
		repo.AssertNotCalled(t, "CountPopularSubscriptions")
	})

	t.Run("non-positive n falls back to default", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", mock.Anything, "subscriptions:popular", mock.Anything).Return(false, nil).Once()
		repo.On("CountPopularSubscriptions", mock.Anything, 50).Return(report, nil).Once()
		cache.On("Set", mock.Anything, "subscriptions:popular", report, time.Minute).Return(nil).Once()
		svc := newService(repo, cache)

		got, err := svc.TopPopular(context.Background(), 0)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("oversized n bypasses the cache", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("CountPopularSubscriptions", mock.Anything, 100).Return(report, nil).Once()
		svc := newService(repo, cache)

		got, err := svc.TopPopular(context.Background(), 100)
		require.NoError(t, err)
		assert.Equal(t, report, got)
		cache.AssertNotCalled(t, "Get")
	})

	t.Run("fewer groups than requested returned as-is", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", mock.Anything, "subscriptions:popular", mock.Anything).Return(false, nil).Once()
		short := report[:1]
		repo.On("CountPopularSubscriptions", mock.Anything, 50).Return(short, nil).Once()
		cache.On("Set", mock.Anything, "subscriptions:popular", short, time.Minute).Return(nil).Once()
		svc := newService(repo, cache)

		got, err := svc.TopPopular(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, short, got)
	})

	t.Run("repository error passes through", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", mock.Anything, "subscriptions:popular", mock.Anything).Return(false, nil).Once()
		repo.On("CountPopularSubscriptions", mock.Anything, 50).
			Return(nil, errors.New("db gone")).Once()
		svc := newService(repo, cache)

		_, err := svc.TopPopular(context.Background(), 3)
		assert.Error(t, err)
	})

	t.Run("cache set failure does not fail the report", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", mock.Anything, "subscriptions:popular", mock.Anything).Return(false, nil).Once()
		repo.On("CountPopularSubscriptions", mock.Anything, 50).Return(report, nil).Once()
		cache.On("Set", mock.Anything, "subscriptions:popular", report, time.Minute).
			Return(errors.New("redis gone")).Once()
		svc := newService(repo, cache)

		got, err := svc.TopPopular(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, report, got)
	})
}

func TestSubscriptionService_CacheInvalidateFailureIsNotFatal(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("DeleteSubscription", mock.Anything, int64(10), int64(1)).Return(nil).Once()
	cache.On("Invalidate", mock.Anything, "subscriptions:popular").
		Return(errors.New("redis gone")).Once()
	svc := newService(repo, cache)

	assert.NoError(t, svc.Remove(context.Background(), 1, 10))
}
