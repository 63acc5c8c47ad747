// Package create реализует HTTP-обработчик регистрации нового пользователя.
//
// Handler принимает JSON-запрос с именем и email, валидирует поля,
// вызывает бизнес-логику создания пользователя и возвращает созданную
// запись с присвоенным идентификатором.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/user-subscription-service/internal/http/response"
	"github.com/magabrotheeeer/user-subscription-service/internal/lib/sl"
	"github.com/magabrotheeeer/user-subscription-service/internal/models"
)

// Handler управляет HTTP-запросами на создание пользователей.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания пользователя.
type Service interface {
	Create(ctx context.Context, req models.DummyUser) (*models.User, error)
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
// @Summary Создать пользователя
// @Description Регистрирует нового пользователя. Email должен быть уникальным.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body models.DummyUser true "Данные нового пользователя"
// @Success 201 {object} response.Response "Созданный пользователь"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Email уже зарегистрирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /users [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.create"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyUser
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

	user, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create user", sl.Err(err))
		status, body := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, body)
		return
	}

	log.Info("created user", slog.Int64("id", user.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(user))
}
