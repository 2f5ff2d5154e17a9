package repository

import (
	"context"
)

// CountCustomers считает клиентов, заведённых подписчиком.
func (s *Storage) CountCustomers(ctx context.Context, chatID int64) (int64, error) {
	const op = "storage.CountCustomers"
	return s.count(ctx, op, `SELECT COUNT(*) FROM customers WHERE chat_id_user = $1`, chatID)
}

// CountMessageLogs считает отправленные подписчиком сообщения.
func (s *Storage) CountMessageLogs(ctx context.Context, chatID int64) (int64, error) {
	const op = "storage.CountMessageLogs"
	return s.count(ctx, op, `SELECT COUNT(*) FROM message_logs WHERE chat_id_user = $1`, chatID)
}

func (s *Storage) count(ctx context.Context, op, query string, chatID int64) (int64, error) {
	if err := ctxErr(ctx, op); err != nil {
		return 0, err
	}
	var total int64
	if err := s.DB.QueryRow(ctx, query, chatID).Scan(&total); err != nil {
		return 0, wrap(op, err)
	}
	return total, nil
}
