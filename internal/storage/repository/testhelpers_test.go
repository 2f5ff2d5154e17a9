package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/migrations"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreatePaidUser создает подписчика с активным оплаченным периодом
func (f *TestDataFactory) CreatePaidUser(t *testing.T, chatID int64, name string, nextDue time.Time) {
	_, err := f.storage.DB.Exec(context.Background(), `INSERT INTO users
		(chat_id, name, email, phone, registered_at, trial_ends_at, next_due_at, status, plan_active)
		VALUES ($1, $2, $3, '000', $4, $5, $6, 'paid', true)`,
		chatID, name, name+"@example.com", nextDue.AddDate(0, -2, 0), nextDue.AddDate(0, -2, 7), nextDue)
	require.NoError(t, err)
}

// CreateCustomers заводит подписчику n клиентов
func (f *TestDataFactory) CreateCustomers(t *testing.T, chatID int64, n int) {
	for i := 0; i < n; i++ {
		_, err := f.storage.DB.Exec(context.Background(),
			`INSERT INTO customers (chat_id_user, name) VALUES ($1, 'client')`, chatID)
		require.NoError(t, err)
	}
}

// CreateMessageLogs добавляет подписчику n записей об отправке
func (f *TestDataFactory) CreateMessageLogs(t *testing.T, chatID int64, n int) {
	for i := 0; i < n; i++ {
		_, err := f.storage.DB.Exec(context.Background(),
			`INSERT INTO message_logs (chat_id_user) VALUES ($1)`, chatID)
		require.NoError(t, err)
	}
}

// countPayments возвращает число платежей подписчика
func countPayments(t *testing.T, storage *Storage, chatID int64) int {
	var count int
	err := storage.DB.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM payments WHERE chat_id = $1", chatID).Scan(&count)
	require.NoError(t, err)
	return count
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(ctx, connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")
	t.Cleanup(storage.Close)

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.RunOnPool(storage.Pool(), migrationsPath))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	return storage
}
