package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpiringNotification сообщение об оплаченном периоде, который скоро закончится.
// Публикуется планировщиком, отправкой занимается слой уведомлений.
type ExpiringNotification struct {
	ChatID        int64           `json:"chat_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	NextDueAt     time.Time       `json:"next_due_at"`
	DaysRemaining int             `json:"days_remaining"`
	MonthlyPrice  decimal.Decimal `json:"monthly_price"`
}
