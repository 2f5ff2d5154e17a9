// Package lifecycle реализует жизненный цикл подписчика: регистрацию с пробным
// периодом, проверку доступа с ленивым переводом в истёкшие статусы,
// обработку платежей и выборку подписчиков, чей оплаченный период скоро закончится.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/metrics"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

// Значения по умолчанию для Options.
const (
	DefaultTrialDays    = 7
	DefaultBillingDays  = 30
	DefaultWarningDays  = 3
	DefaultStatsTTL     = 5 * time.Minute
	DefaultMonthlyPrice = "20.00"
)

// ErrInternal сбой хранилища или иной внутренний сбой при выполнении операции.
var ErrInternal = errors.New("internal error")

// Repository хранилище подписчиков и платежей.
type Repository interface {
	UserExists(ctx context.Context, chatID int64) (bool, error)
	GetUser(ctx context.Context, chatID int64) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) error
	SetStatus(ctx context.Context, chatID int64, status models.Status, planActive bool) error
	ApplyPayment(ctx context.Context, p models.PaymentActivation) error
	ListPayments(ctx context.Context, chatID int64) ([]models.Payment, error)
	CountCustomers(ctx context.Context, chatID int64) (int64, error)
	CountMessageLogs(ctx context.Context, chatID int64) (int64, error)
	ListDueBefore(ctx context.Context, limit time.Time) ([]models.UserDueSoon, error)
}

// Cache кеш статистики подписчиков.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Options параметры сервиса. Нулевые поля заменяются значениями по умолчанию.
type Options struct {
	Location     *time.Location
	MonthlyPrice decimal.Decimal
	TrialDays    int
	BillingDays  int
	// LookupFailOpen: при сбое чтения подписчик считается незарегистрированным.
	LookupFailOpen bool
	StatsTTL       time.Duration
	Now            func() time.Time
}

// Service бизнес-логика жизненного цикла подписчика.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger

	loc         *time.Location
	price       decimal.Decimal
	trialDays   int
	billingDays int
	failOpen    bool
	statsTTL    time.Duration
	now         func() time.Time
}

// New создаёт сервис. cache может быть nil, тогда статистика не кешируется.
func New(repo Repository, cache Cache, log *slog.Logger, opts Options) *Service {
	s := &Service{
		repo:        repo,
		cache:       cache,
		log:         log,
		loc:         opts.Location,
		price:       opts.MonthlyPrice,
		trialDays:   opts.TrialDays,
		billingDays: opts.BillingDays,
		failOpen:    opts.LookupFailOpen,
		statsTTL:    opts.StatsTTL,
		now:         opts.Now,
	}
	if s.cache == nil {
		s.cache = noopCache{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.price.IsZero() {
		s.price = decimal.RequireFromString(DefaultMonthlyPrice)
	}
	if s.trialDays <= 0 {
		s.trialDays = DefaultTrialDays
	}
	if s.billingDays <= 0 {
		s.billingDays = DefaultBillingDays
	}
	if s.statsTTL <= 0 {
		s.statsTTL = DefaultStatsTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Register регистрирует подписчика и открывает пробный период.
func (s *Service) Register(ctx context.Context, chatID int64, name, email, phone string) (models.RegisterResult, error) {
	const op = "lifecycle.Register"
	log := s.log.With(slog.String("op", op), sl.ChatID(chatID))

	exists, err := s.repo.UserExists(ctx, chatID)
	if err != nil {
		if !s.failOpen {
			log.Error("failed to check user existence", sl.Err(err))
			return models.RegisterResult{}, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
		}
		// уникальный ключ в хранилище всё равно не даст создать дубль
		log.Warn("existence check failed, trying insert", sl.Err(err))
	}
	if exists {
		return models.RegisterResult{}, fmt.Errorf("%s: %w", op, models.ErrAlreadyRegistered)
	}

	now := s.clock()
	user := models.User{
		ChatID:       chatID,
		Name:         name,
		Email:        email,
		Phone:        phone,
		RegisteredAt: now,
		TrialEndsAt:  now.AddDate(0, 0, s.trialDays),
		Status:       models.StatusTrial,
		PlanActive:   true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrAlreadyRegistered) {
			return models.RegisterResult{}, fmt.Errorf("%s: %w", op, models.ErrAlreadyRegistered)
		}
		log.Error("failed to create user", sl.Err(err))
		return models.RegisterResult{}, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}

	metrics.Registrations.Inc()
	log.Info("user registered", slog.Time("trial_ends_at", user.TrialEndsAt))
	return models.RegisterResult{TrialEndsAt: user.TrialEndsAt}, nil
}

// UserExists сообщает, зарегистрирован ли подписчик.
// При политике fail-open сбой чтения трактуется как «не зарегистрирован».
func (s *Service) UserExists(ctx context.Context, chatID int64) (bool, error) {
	const op = "lifecycle.UserExists"
	exists, err := s.repo.UserExists(ctx, chatID)
	if err != nil {
		s.log.Error("failed to check user existence",
			slog.String("op", op), sl.ChatID(chatID), sl.Err(err))
		if s.failOpen {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}
	return exists, nil
}

// GetUser возвращает подписчика с датами в часовом поясе сервиса.
func (s *Service) GetUser(ctx context.Context, chatID int64) (*models.User, error) {
	const op = "lifecycle.GetUser"
	u, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		s.log.Error("failed to get user",
			slog.String("op", op), sl.ChatID(chatID), sl.Err(err))
		if s.failOpen {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}
	return s.localize(u), nil
}

// CheckAccess решает, есть ли у подписчика доступ к сервису в текущий момент.
// Истёкший пробный или оплаченный период сохраняется в хранилище как
// trial_expired или expired с plan_active = false.
// При сбое хранилища возвращается отказ с причиной internal_error и ошибка.
func (s *Service) CheckAccess(ctx context.Context, chatID int64) (models.AccessDecision, error) {
	const op = "lifecycle.CheckAccess"
	log := s.log.With(slog.String("op", op), sl.ChatID(chatID))

	u, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return record(models.Denied(models.ReasonNotRegistered, nil)), nil
		}
		log.Error("failed to get user", sl.Err(err))
		return record(models.Denied(models.ReasonInternalError, nil)), fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}
	u = s.localize(u)
	now := s.clock()

	switch {
	case u.Status == models.StatusTrial:
		if !now.After(u.TrialEndsAt) {
			return record(models.Granted(models.AccessTrial, daysRemaining(now, u.TrialEndsAt), u)), nil
		}
		return s.expire(ctx, log, u, models.StatusTrialExpired, models.ReasonTrialExpired)

	case u.Status == models.StatusPaid && u.PlanActive:
		if u.NextDueAt != nil && !now.After(*u.NextDueAt) {
			return record(models.Granted(models.AccessPaid, daysRemaining(now, *u.NextDueAt), u)), nil
		}
		return s.expire(ctx, log, u, models.StatusExpired, models.ReasonPlanExpired)

	// уже переведённые подписчики получают ту же причину без повторной записи
	case u.Status == models.StatusTrialExpired:
		return record(models.Denied(models.ReasonTrialExpired, u)), nil

	case u.Status == models.StatusExpired:
		return record(models.Denied(models.ReasonPlanExpired, u)), nil
	}

	return record(models.Denied(models.ReasonNoActivePlan, u)), nil
}

func (s *Service) expire(ctx context.Context, log *slog.Logger, u *models.User, status models.Status, reason models.DenyReason) (models.AccessDecision, error) {
	const op = "lifecycle.expire"
	if err := s.repo.SetStatus(ctx, u.ChatID, status, false); err != nil {
		log.Error("failed to persist expiry", slog.String("status", string(status)), sl.Err(err))
		return record(models.Denied(models.ReasonInternalError, u)), fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}
	metrics.Expirations.WithLabelValues(string(status)).Inc()
	log.Info("access period ended", slog.String("status", string(status)))

	u.Status = status
	u.PlanActive = false
	s.invalidateStats(ctx, u.ChatID)
	return record(models.Denied(reason, u)), nil
}

// SetStatus устанавливает статус и признак активного плана.
// Неизвестные статусы и активный план у истёкших статусов отклоняются.
func (s *Service) SetStatus(ctx context.Context, chatID int64, status models.Status, planActive bool) error {
	const op = "lifecycle.SetStatus"
	log := s.log.With(slog.String("op", op), sl.ChatID(chatID))

	if !status.Valid() {
		return fmt.Errorf("%s: %w: %q", op, models.ErrInvalidStatus, status)
	}
	if planActive && !status.AllowsActivePlan() {
		return fmt.Errorf("%s: %w: plan cannot be active with status %q", op, models.ErrInvalidStatus, status)
	}
	if status == models.StatusPaid && planActive {
		u, err := s.repo.GetUser(ctx, chatID)
		if err != nil {
			if errors.Is(err, models.ErrUserNotFound) {
				return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
			}
			log.Error("failed to get user", sl.Err(err))
			return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
		}
		if u.NextDueAt == nil {
			return fmt.Errorf("%s: %w: paid plan requires a payment", op, models.ErrInvalidStatus)
		}
	}

	if err := s.repo.SetStatus(ctx, chatID, status, planActive); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		log.Error("failed to set status", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}
	s.invalidateStats(ctx, chatID)
	log.Info("status updated", slog.String("status", string(status)), slog.Bool("plan_active", planActive))
	return nil
}

// ProcessPayment применяет одобренный платёж: статус paid, активный план,
// новый срок оплаты через BillingDays дней и увеличение суммы платежей.
// Повторный платёж с той же ссылкой отклоняется с ErrDuplicatePayment.
func (s *Service) ProcessPayment(ctx context.Context, chatID int64, amount decimal.Decimal, reference string) (models.PaymentResult, error) {
	const op = "lifecycle.ProcessPayment"
	log := s.log.With(slog.String("op", op), sl.ChatID(chatID), slog.String("reference", reference))

	if !amount.IsPositive() {
		return models.PaymentResult{}, fmt.Errorf("%s: %w: %s", op, models.ErrInvalidAmount, amount)
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return models.PaymentResult{}, fmt.Errorf("%s: %w: empty payment reference", op, models.ErrInvalidArgument)
	}

	now := s.clock()
	activation := models.PaymentActivation{
		ChatID:    chatID,
		Amount:    amount,
		Reference: reference,
		PaidAt:    now,
		NextDueAt: now.AddDate(0, 0, s.billingDays),
	}
	if err := s.repo.ApplyPayment(ctx, activation); err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound):
			metrics.PaymentsProcessed.WithLabelValues("unknown_user").Inc()
			log.Warn("payment for unknown user")
			return models.PaymentResult{}, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		case errors.Is(err, models.ErrDuplicatePayment):
			metrics.PaymentsProcessed.WithLabelValues("duplicate").Inc()
			log.Info("payment already processed")
			return models.PaymentResult{}, fmt.Errorf("%s: %w", op, models.ErrDuplicatePayment)
		}
		metrics.PaymentsProcessed.WithLabelValues("error").Inc()
		log.Error("failed to apply payment", sl.Err(err))
		return models.PaymentResult{}, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}

	s.invalidateStats(ctx, chatID)
	metrics.PaymentsProcessed.WithLabelValues("applied").Inc()
	log.Info("payment applied", slog.String("amount", amount.StringFixed(2)), slog.Time("next_due_at", activation.NextDueAt))
	return models.PaymentResult{NextDueAt: activation.NextDueAt}, nil
}

// ListPayments возвращает историю платежей подписчика, новые первыми.
func (s *Service) ListPayments(ctx context.Context, chatID int64) ([]models.Payment, error) {
	const op = "lifecycle.ListPayments"
	if _, err := s.GetUser(ctx, chatID); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, chatID)
	if err != nil {
		s.log.Error("failed to list payments",
			slog.String("op", op), sl.ChatID(chatID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}
	for i := range payments {
		payments[i].PaidAt = payments[i].PaidAt.In(s.loc)
	}
	return payments, nil
}

// GetUserStats возвращает подписчика, число его клиентов и отправленных
// сообщений и сумму платежей. Результат кешируется на StatsTTL; запись,
// у которой пробный или оплаченный период уже закончился, перечитывается.
func (s *Service) GetUserStats(ctx context.Context, chatID int64) (*models.Stats, error) {
	const op = "lifecycle.GetUserStats"
	log := s.log.With(slog.String("op", op), sl.ChatID(chatID))

	key := statsKey(chatID)
	var cached models.Stats
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn("failed to read stats from cache", sl.Err(err))
	}
	if found && !s.windowEnded(cached.User) {
		return &cached, nil
	}

	u, err := s.GetUser(ctx, chatID)
	if err != nil {
		return nil, err
	}
	customers, err := s.repo.CountCustomers(ctx, chatID)
	if err != nil {
		log.Error("failed to count customers", sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}
	messages, err := s.repo.CountMessageLogs(ctx, chatID)
	if err != nil {
		log.Error("failed to count messages", sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}

	stats := &models.Stats{
		User:           u,
		TotalCustomers: customers,
		TotalMessages:  messages,
		TotalPayments:  u.TotalPayments,
	}
	if err := s.cache.Set(ctx, key, stats, s.statsTTL); err != nil {
		log.Warn("failed to cache stats", sl.Err(err))
	}
	return stats, nil
}

// ListUsersExpiringSoon возвращает подписчиков с оплаченным активным планом,
// чей срок оплаты наступает не позже чем через warningDays дней,
// упорядоченных по сроку. Уже просроченные тоже попадают в выборку.
func (s *Service) ListUsersExpiringSoon(ctx context.Context, warningDays int) ([]models.UserDueSoon, error) {
	const op = "lifecycle.ListUsersExpiringSoon"
	if warningDays < 0 {
		return nil, fmt.Errorf("%s: %w: negative warning days %d", op, models.ErrInvalidArgument, warningDays)
	}

	limit := s.clock().AddDate(0, 0, warningDays)
	users, err := s.repo.ListDueBefore(ctx, limit)
	if err != nil {
		s.log.Error("failed to list users due soon", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}
	for i := range users {
		users[i].NextDueAt = users[i].NextDueAt.In(s.loc)
	}
	return users, nil
}

// MonthlyPrice возвращает настроенную месячную стоимость подписки.
func (s *Service) MonthlyPrice() decimal.Decimal {
	return s.price
}

// Location возвращает часовой пояс сервиса.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) localize(u *models.User) *models.User {
	u.RegisteredAt = u.RegisteredAt.In(s.loc)
	u.TrialEndsAt = u.TrialEndsAt.In(s.loc)
	if u.LastPaymentAt != nil {
		t := u.LastPaymentAt.In(s.loc)
		u.LastPaymentAt = &t
	}
	if u.NextDueAt != nil {
		t := u.NextDueAt.In(s.loc)
		u.NextDueAt = &t
	}
	return u
}

func (s *Service) invalidateStats(ctx context.Context, chatID int64) {
	if err := s.cache.Invalidate(ctx, statsKey(chatID)); err != nil {
		s.log.Warn("failed to invalidate stats cache", sl.ChatID(chatID), sl.Err(err))
	}
}

// daysRemaining число полных суток до end, остаток отбрасывается.
// windowEnded сообщает, что у подписчика в статусе trial или paid срок уже
// прошёл, а статус в хранилище ещё не обновлён.
func (s *Service) windowEnded(u *models.User) bool {
	if u == nil {
		return false
	}
	now := s.clock()
	switch {
	case u.Status == models.StatusTrial:
		return now.After(u.TrialEndsAt)
	case u.Status == models.StatusPaid && u.PlanActive:
		return u.NextDueAt == nil || now.After(*u.NextDueAt)
	}
	return false
}

func daysRemaining(now, end time.Time) int {
	return int(end.Sub(now) / (24 * time.Hour))
}

func statsKey(chatID int64) string {
	return fmt.Sprintf("stats:%d", chatID)
}

func record(d models.AccessDecision) models.AccessDecision {
	if d.Access {
		metrics.AccessDecisions.WithLabelValues("granted", string(d.Type)).Inc()
	} else {
		metrics.AccessDecisions.WithLabelValues("denied", string(d.Reason)).Inc()
	}
	return d
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, any) (bool, error)         { return false, nil }
func (noopCache) Set(context.Context, string, any, time.Duration) error { return nil }
func (noopCache) Invalidate(context.Context, string) error              { return nil }
