package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

// ApplyPayment в одной транзакции активирует оплаченный период подписчика
// и добавляет запись в историю платежей. При любой ошибке транзакция
// откатывается, частичных изменений не остаётся.
//
// Сумма платежей увеличивается выражением в UPDATE, а не чтением и записью,
// поэтому параллельные платежи одного подписчика не теряют слагаемые.
func (s *Storage) ApplyPayment(ctx context.Context, p models.PaymentActivation) (err error) {
	const op = "storage.ApplyPayment"
	if err := ctxErr(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return wrap(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	updateQuery := `UPDATE users
			  SET status = $1,
			      plan_active = true,
			      last_payment_at = $2,
			      next_due_at = $3,
			      total_payments = COALESCE(total_payments, 0) + $4
			  WHERE chat_id = $5`
	tag, err := tx.Exec(ctx, updateQuery,
		string(models.StatusPaid), p.PaidAt, p.NextDueAt, p.Amount, p.ChatID)
	if err != nil {
		return wrap(op, err)
	}
	if tag.RowsAffected() == 0 {
		err = fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		return err
	}

	insertQuery := `INSERT INTO payments (chat_id, amount, paid_at, reference, status)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err = tx.Exec(ctx, insertQuery,
		p.ChatID, p.Amount, p.PaidAt, p.Reference, models.PaymentStatusApproved)
	if err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("%s: %w", op, models.ErrDuplicatePayment)
			return err
		}
		return wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return wrap(op, err)
	}
	return nil
}

// ListPayments возвращает историю платежей подписчика, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, chatID int64) ([]models.Payment, error) {
	const op = "storage.ListPayments"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT chat_id, amount, paid_at, reference, status
			  FROM payments
			  WHERE chat_id = $1
			  ORDER BY paid_at DESC`
	rows, err := s.DB.Query(ctx, query, chatID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	result := make([]models.Payment, 0)
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ChatID, &p.Amount, &p.PaidAt, &p.Reference, &p.Status); err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}
