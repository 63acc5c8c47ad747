// Package list реализует HTTP-обработчик получения всех пользователей.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/user-subscription-service/internal/http/response"
	"github.com/magabrotheeeer/user-subscription-service/internal/lib/sl"
	"github.com/magabrotheeeer/user-subscription-service/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики получения списка пользователей.
type Service interface {
	ListAll(ctx context.Context) ([]*models.User, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description Возвращает всех пользователей без пагинации.
// @Tags Users
// @Produce  json
// @Success 200 {object} response.Response "Список пользователей"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.list"

	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	users, err := h.service.ListAll(r.Context())
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		status, body := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, body)
		return
	}

	log.Info("list users", slog.Int("count", len(users)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count": len(users),
		"users": users,
	}))
}
