// Package models содержит доменные структуры пользователя и подписки,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

// User представляет зарегистрированного пользователя системы.
// Идентификатор присваивается хранилищем при создании и не меняется.
type User struct {
	ID    int64  `json:"id"`    // Уникальный идентификатор пользователя
	Name  string `json:"name"`  // Отображаемое имя
	Email string `json:"email"` // Электронная почта (уникальная)
}

// DummyUser используется для приёма данных из JSON-запроса на создание пользователя.
type DummyUser struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// UserPatch описывает частичное обновление пользователя.
// Каждое поле — указатель: nil означает "не менять",
// непустой указатель — перезаписать сохранённое значение.
type UserPatch struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

// IsEmpty сообщает, что патч не содержит ни одного поля для обновления.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil
}
