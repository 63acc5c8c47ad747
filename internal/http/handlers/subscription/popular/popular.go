// Package popular реализует HTTP-обработчик отчета о популярных сервисах.
//
// Отчет агрегирует количество подписчиков по каждому сервису и отдает
// первые n позиций. Параметр limit опционален.
package popular

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/user-subscription-service/internal/http/response"
	"github.com/magabrotheeeer/user-subscription-service/internal/lib/sl"
	"github.com/magabrotheeeer/user-subscription-service/internal/models"
)

// Handler управляет HTTP-запросами на получение отчета о популярности.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики отчета о популярности.
type Service interface {
	TopPopular(ctx context.Context, n int) ([]models.ServicePopularity, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Популярные сервисы
// @Description Возвращает сервисы с наибольшим числом подписчиков.
// @Description Без параметра limit возвращаются первые три позиции.
// @Tags Subscriptions
// @Produce  json
// @Param limit query int false "Количество позиций в отчете"
// @Success 200 {object} response.Response "Отчет о популярности"
// @Failure 400 {object} response.ErrorResponse "Некорректный limit"
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Router /subscriptions/popular [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.popular"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			log.Error("invalid limit format", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid limit"))
			return
		}
		limit = parsed
	}

	report, err := h.service.TopPopular(r.Context(), limit)
	if err != nil {
		log.Error("failed to build popularity report", sl.Err(err))
		status, body := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, body)
		return
	}

	log.Info("built popularity report", slog.Int("count", len(report)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":    len(report),
		"services": report,
	}))
}
