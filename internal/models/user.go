// Package models содержит доменные структуры подписчика: учётную запись,
// статус жизненного цикла, решения о доступе и платежи.
// Структуры используются в бизнес‑логике, хранилище и HTTP-ответах.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status статус жизненного цикла подписчика.
type Status string

// Допустимые статусы. Других значений в хранилище быть не должно.
const (
	StatusTrial        Status = "trial"
	StatusTrialExpired Status = "trial_expired"
	StatusPaid         Status = "paid"
	StatusExpired      Status = "expired"
)

// ParseStatus преобразует строку в Status, отклоняя неизвестные значения.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Valid сообщает, входит ли статус в закрытый набор значений.
func (s Status) Valid() bool {
	switch s {
	case StatusTrial, StatusTrialExpired, StatusPaid, StatusExpired:
		return true
	}
	return false
}

// AllowsActivePlan сообщает, может ли план быть активным при данном статусе.
// Для trial_expired и expired plan_active всегда false.
func (s Status) AllowsActivePlan() bool {
	return s == StatusTrial || s == StatusPaid
}

// User представляет зарегистрированного подписчика.
type User struct {
	ChatID        int64           `json:"chat_id"`                   // Идентификатор чата, уникальный ключ
	Name          string          `json:"name"`                      // Имя
	Email         string          `json:"email"`                     // Электронная почта
	Phone         string          `json:"phone"`                     // Телефон
	RegisteredAt  time.Time       `json:"registered_at"`             // Дата регистрации
	TrialEndsAt   time.Time       `json:"trial_ends_at"`             // Окончание пробного периода
	LastPaymentAt *time.Time      `json:"last_payment_at,omitempty"` // Дата последней оплаты
	NextDueAt     *time.Time      `json:"next_due_at,omitempty"`     // Окончание оплаченного периода
	Status        Status          `json:"status"`
	PlanActive    bool            `json:"plan_active"`
	TotalPayments decimal.Decimal `json:"total_payments"` // Сумма всех платежей, NULL читается как 0
}

// UserDueSoon краткая запись о подписчике, чей оплаченный период скоро закончится.
type UserDueSoon struct {
	ChatID    int64     `json:"chat_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	NextDueAt time.Time `json:"next_due_at"`
}

// Stats агрегированная статистика подписчика.
type Stats struct {
	User           *User           `json:"user"`
	TotalCustomers int64           `json:"total_customers"`
	TotalMessages  int64           `json:"total_messages"`
	TotalPayments  decimal.Decimal `json:"total_payments"`
}

// RegisterResult результат успешной регистрации.
type RegisterResult struct {
	TrialEndsAt time.Time `json:"trial_ends_at"`
}
