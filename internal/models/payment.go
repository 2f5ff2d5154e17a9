package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatusApproved единственный статус, с которым сохраняются платежи.
const PaymentStatusApproved = "approved"

// Payment запись истории платежей. После создания не изменяется.
type Payment struct {
	ChatID    int64           `json:"chat_id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paid_at"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
}

// PaymentActivation данные для активации оплаченного периода.
type PaymentActivation struct {
	ChatID    int64
	Amount    decimal.Decimal
	Reference string
	PaidAt    time.Time
	NextDueAt time.Time
}

// PaymentResult результат успешной обработки платежа.
type PaymentResult struct {
	NextDueAt time.Time `json:"next_due_at"`
}

// PaymentEvent событие об одобренном платеже от платёжного шлюза.
// Приходит как тело вебхука или сообщение из очереди payments.approved.
type PaymentEvent struct {
	ChatID    int64           `json:"chat_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" validate:"required"`
	Status    string          `json:"status" validate:"required"`
}
