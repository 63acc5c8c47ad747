// Package apperr определяет плоскую таксономию ошибок бизнес-логики.
//
// Каждая ошибка несёт вид (Kind) и сообщение для вызывающей стороны.
// Транспортный слой переводит вид в протокольный статус по таблице
// соответствия, не разбирая иерархий типов.
package apperr

import (
	"errors"
	"fmt"
)

// Kind — вид ошибки бизнес-логики.
type Kind int

const (
	// KindUnknown — вид по умолчанию для неопознанных ошибок.
	KindUnknown Kind = iota
	// KindInvalidArgument — аргумент вызова не прошёл предусловие
	// (nil, неположительный идентификатор, отсутствующая структура).
	KindInvalidArgument
	// KindNotFound — пользователь или подписка не существует.
	KindNotFound
	// KindAlreadyExists — нарушение уникальности при создании.
	KindAlreadyExists
	// KindConflict — нарушение уникальности при изменении существующих данных.
	KindConflict
	// KindForbidden — попытка действия над чужой подпиской.
	KindForbidden
	// KindTransient — хранилище не уложилось в отведённое время
	// или отказало по внутренней причине; вина не на вызывающем.
	KindTransient
)

// String возвращает читаемое имя вида ошибки.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindTransient:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// Error — ошибка бизнес-логики: вид, сообщение и, возможно, исходная причина.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New создает ошибку заданного вида с сообщением.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf создает ошибку заданного вида с форматированным сообщением.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap оборачивает исходную ошибку, сохраняя её в цепочке для errors.Is/As.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf возвращает вид ошибки или KindUnknown, если ошибка не из таксономии.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsKind сообщает, принадлежит ли ошибка заданному виду.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
