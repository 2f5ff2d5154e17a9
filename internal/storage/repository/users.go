package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

const userColumns = `chat_id, name, email, phone, registered_at, trial_ends_at,
			      last_payment_at, next_due_at, status, plan_active,
			      COALESCE(total_payments, 0)`

// UserExists проверяет наличие записи подписчика.
func (s *Storage) UserExists(ctx context.Context, chatID int64) (bool, error) {
	const op = "storage.UserExists"
	if err := ctxErr(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE chat_id = $1)`
	if err := s.DB.QueryRow(ctx, query, chatID).Scan(&exists); err != nil {
		return false, wrap(op, err)
	}
	return exists, nil
}

// CreateUser сохраняет нового подписчика. Повторная регистрация
// того же chat_id возвращает models.ErrAlreadyRegistered.
func (s *Storage) CreateUser(ctx context.Context, user models.User) error {
	const op = "storage.CreateUser"
	if err := ctxErr(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO users (chat_id, name, email, phone, registered_at,
			      trial_ends_at, status, plan_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.DB.Exec(ctx, query,
		user.ChatID, user.Name, user.Email, user.Phone, user.RegisteredAt,
		user.TrialEndsAt, string(user.Status), user.PlanActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, models.ErrAlreadyRegistered)
		}
		return wrap(op, err)
	}
	return nil
}

// GetUser возвращает подписчика по chat_id.
func (s *Storage) GetUser(ctx context.Context, chatID int64) (*models.User, error) {
	const op = "storage.GetUser"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE chat_id = $1`
	u, err := scanUser(s.DB.QueryRow(ctx, query, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		if errors.Is(err, models.ErrInvalidStatus) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, wrap(op, err)
	}
	return u, nil
}

// SetStatus перезаписывает статус и признак активного плана.
func (s *Storage) SetStatus(ctx context.Context, chatID int64, status models.Status, planActive bool) error {
	const op = "storage.SetStatus"
	if err := ctxErr(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users
			  SET status = $1, plan_active = $2
			  WHERE chat_id = $3`
	tag, err := s.DB.Exec(ctx, query, string(status), planActive, chatID)
	if err != nil {
		return wrap(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	return nil
}

// ListDueBefore возвращает подписчиков с активным оплаченным планом,
// чей период заканчивается не позже limit, по возрастанию даты окончания.
func (s *Storage) ListDueBefore(ctx context.Context, limit time.Time) ([]models.UserDueSoon, error) {
	const op = "storage.ListDueBefore"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT chat_id, name, email, next_due_at
			  FROM users
			  WHERE status = $1
			    AND plan_active = true
			    AND next_due_at <= $2
			  ORDER BY next_due_at ASC`
	rows, err := s.DB.Query(ctx, query, string(models.StatusPaid), limit)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	result := make([]models.UserDueSoon, 0)
	for rows.Next() {
		var u models.UserDueSoon
		if err := rows.Scan(&u.ChatID, &u.Name, &u.Email, &u.NextDueAt); err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	var status string
	if err := row.Scan(&u.ChatID, &u.Name, &u.Email, &u.Phone, &u.RegisteredAt,
		&u.TrialEndsAt, &u.LastPaymentAt, &u.NextDueAt, &status, &u.PlanActive,
		&u.TotalPayments); err != nil {
		return nil, err
	}
	st, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	u.Status = st
	return u, nil
}
