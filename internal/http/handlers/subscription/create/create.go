// Package create реализует HTTP-обработчик добавления подписки пользователю.
//
// Handler принимает JSON-запрос с названием сервиса и опциональной датой
// окончания, валидирует их, извлекает ID пользователя из пути и вызывает
// бизнес-логику создания подписки. Дата начала выставляется сервером.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/user-subscription-service/internal/http/response"
	"github.com/magabrotheeeer/user-subscription-service/internal/lib/sl"
	"github.com/magabrotheeeer/user-subscription-service/internal/models"
)

// Handler управляет HTTP-запросами на добавление подписок.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики добавления подписки.
type Service interface {
	Add(ctx context.Context, userID int64, req *models.DummySubscription) (*models.Subscription, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Добавить подписку
// @Description Создает подписку на сервис для пользователя из пути.
// @Description Повторная подписка на тот же сервис отклоняется.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param id path int true "ID пользователя"
// @Param request body models.DummySubscription true "Данные новой подписки"
// @Success 201 {object} response.Response "Созданная подписка"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Подписка уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /users/{id}/subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"
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

	var req models.DummySubscription
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sub, err := h.service.Add(r.Context(), userID, &req)
	if err != nil {
		log.Error("failed to create subscription", sl.Err(err))
		status, body := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, body)
		return
	}

	log.Info("created subscription", slog.Int64("id", sub.ID), slog.Int64("user_id", userID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(sub))
}
