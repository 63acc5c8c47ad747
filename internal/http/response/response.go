// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков: успешные ответы, ошибки
// бизнес-логики и сообщения валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/user-subscription-service/internal/lib/apperr"
)

// Response описывает стандартную структуру JSON-ответа сервера.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OK возвращает успешный Response без данных.
func OK() Response {
	return Response{Status: StatusOK}
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// statusByKind — таблица перевода вида ошибки бизнес-логики
// в протокольный статус.
var statusByKind = map[apperr.Kind]int{
	apperr.KindInvalidArgument: http.StatusBadRequest,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindAlreadyExists:   http.StatusConflict,
	apperr.KindConflict:        http.StatusConflict,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindTransient:       http.StatusServiceUnavailable,
}

// FromError переводит ошибку бизнес-логики в HTTP-статус и тело ответа.
// Ошибки вне таксономии не раскрываются наружу.
func FromError(err error) (int, ErrorResponse) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if status, ok := statusByKind[appErr.Kind]; ok {
			return status, Error(appErr.Msg)
		}
	}
	return http.StatusInternalServerError, Error("internal error")
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко-читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "datetime=02-01-2006":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only date in format 02-01-2006", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
