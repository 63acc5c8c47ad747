// Package remove реализует HTTP-обработчик отмены подписки пользователя.
package remove

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
)

// Handler управляет HTTP-запросами на удаление подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики отмены подписки.
type Service interface {
	Remove(ctx context.Context, userID, subscriptionID int64) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отменить подписку
// @Description Удаляет подписку пользователя. Подписка должна принадлежать
// @Description пользователю из пути, иначе возвращается 403.
// @Tags Subscriptions
// @Produce  json
// @Param id path int true "ID пользователя"
// @Param subscriptionID path int true "ID подписки"
// @Success 200 {object} response.Response "Подписка удалена"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 403 {object} response.ErrorResponse "Подписка принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Пользователь или подписка не найдены"
// @Router /users/{id}/subscriptions/{subscriptionID} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.remove"
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

	subIDStr := chi.URLParam(r, "subscriptionID")
	subID, err := strconv.ParseInt(subIDStr, 10, 64)
	if err != nil {
		log.Error("invalid subscription id format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid subscription id"))
		return
	}

	if err := h.service.Remove(r.Context(), userID, subID); err != nil {
		log.Error("failed to remove subscription", sl.Err(err))
		status, body := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, body)
		return
	}

	log.Info("removed subscription", slog.Int64("id", subID), slog.Int64("user_id", userID))
	render.JSON(w, r, response.OK())
}
