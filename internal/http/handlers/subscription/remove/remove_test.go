package remove

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/user-subscription-service/internal/lib/apperr"
)

// MockService реализует интерфейс remove.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Remove(ctx context.Context, userID, subscriptionID int64) error {
	args := m.Called(ctx, userID, subscriptionID)
	return args.Error(0)
}

func TestRemoveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		userID         string
		subID          string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "успешное удаление",
			userID: "42",
			subID:  "7",
			setupMock: func(m *MockService) {
				m.On("Remove", mock.Anything, int64(42), int64(7)).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
		{
			name:           "некорректный id пользователя",
			userID:         "abc",
			subID:          "7",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid user id"`,
		},
		{
			name:           "некорректный id подписки",
			userID:         "42",
			subID:          "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid subscription id"`,
		},
		{
			name:   "подписка не найдена",
			userID: "42",
			subID:  "999",
			setupMock: func(m *MockService) {
				m.On("Remove", mock.Anything, int64(42), int64(999)).
					Return(apperr.New(apperr.KindNotFound, "subscription with id 999 not found"))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `subscription with id 999 not found`,
		},
		{
			name:   "подписка чужого пользователя",
			userID: "42",
			subID:  "7",
			setupMock: func(m *MockService) {
				m.On("Remove", mock.Anything, int64(42), int64(7)).
					Return(apperr.New(apperr.KindForbidden, "subscription 7 does not belong to user 42"))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `subscription 7 does not belong to user 42`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodDelete, "/users/"+tt.userID+"/subscriptions/"+tt.subID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.userID)
			rctx.URLParams.Add("subscriptionID", tt.subID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
