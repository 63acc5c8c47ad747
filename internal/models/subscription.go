package models

import "time"

// DateLayout — формат дат, принимаемых в JSON-запросах.
const DateLayout = "02-01-2006"

// Subscription представляет подписку пользователя на именованный сервис.
// StartDate выставляется сервером в момент создания, EndDate может быть nil —
// это означает бессрочную подписку. Владелец, однажды записанный в UserID,
// не меняется.
type Subscription struct {
	ID          int64      `json:"id"`                 // Уникальный идентификатор подписки
	ServiceName string     `json:"service_name"`       // Название сервиса
	UserID      int64      `json:"user_id"`            // Идентификатор владельца
	StartDate   time.Time  `json:"start_date"`         // Дата начала подписки
	EndDate     *time.Time `json:"end_date,omitempty"` // Дата окончания (опционально)
}

// DummySubscription используется для приёма данных из JSON-запроса на создание
// подписки. Дата окончания приходит строкой, чтобы её можно было валидировать
// и парсить вручную; start_date клиентом не передаётся.
type DummySubscription struct {
	ServiceName string `json:"service_name" validate:"required,min=1,max=255"`
	EndDate     string `json:"end_date,omitempty" validate:"omitempty,datetime=02-01-2006"`
}

// ServicePopularity — элемент отчёта о популярности: название сервиса
// и количество подписок на него среди всех пользователей.
type ServicePopularity struct {
	ServiceName string `json:"service_name"`
	Count       int    `json:"count"`
}
