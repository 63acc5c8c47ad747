// Package list реализует HTTP-обработчик получения подписок пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/user-subscription-service/internal/http/response"
	"github.com/magabrotheeeer/user-subscription-service/internal/lib/sl"
	"github.com/magabrotheeeer/user-subscription-service/internal/models"
)

// Handler управляет HTTP-запросами на получение списка подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения подписок.
type Service interface {
	List(ctx context.Context, userID int64) ([]*models.Subscription, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список подписок пользователя
// @Description Возвращает все подписки пользователя, отсортированные по ID.
// @Tags Subscriptions
// @Produce  json
// @Param id path int true "ID пользователя"
// @Success 200 {object} response.Response "Список подписок"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{id}/subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userIDStr := chi.URLParam(r, "id")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		log.Error("invalid user id format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	subs, err := h.service.List(r.Context(), userID)
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		status, body := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, body)
		return
	}

	log.Info("listed subscriptions", slog.Int64("user_id", userID), slog.Int("count", len(subs)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":         len(subs),
		"subscriptions": subs,
	}))
}
