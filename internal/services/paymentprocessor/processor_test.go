package paymentprocessor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

type LifecycleMock struct{ mock.Mock }

func (m *LifecycleMock) ProcessPayment(ctx context.Context, chatID int64, amount decimal.Decimal, reference string) (models.PaymentResult, error) {
	args := m.Called(ctx, chatID, amount, reference)
	return args.Get(0).(models.PaymentResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func amountIs(s string) any {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func TestService_Handle(t *testing.T) {
	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		body       string
		setupMocks func(l *LifecycleMock)
		wantErr    bool
	}{
		{
			name: "approved payment applied",
			body: `{"chat_id":1,"amount":"20.00","reference":"pay-1","status":"approved"}`,
			setupMocks: func(l *LifecycleMock) {
				l.On("ProcessPayment", mock.Anything, int64(1), amountIs("20.00"), "pay-1").
					Return(models.PaymentResult{NextDueAt: due}, nil).Once()
			},
		},
		{
			name: "numeric amount accepted",
			body: `{"chat_id":1,"amount":20.5,"reference":"pay-2","status":"APPROVED"}`,
			setupMocks: func(l *LifecycleMock) {
				l.On("ProcessPayment", mock.Anything, int64(1), amountIs("20.5"), "pay-2").
					Return(models.PaymentResult{NextDueAt: due}, nil).Once()
			},
		},
		{
			name:       "not approved is ignored",
			body:       `{"chat_id":1,"amount":"20.00","reference":"pay-1","status":"rejected"}`,
			setupMocks: func(_ *LifecycleMock) {},
		},
		{
			name:       "broken json is dropped",
			body:       `{"chat_id":`,
			setupMocks: func(_ *LifecycleMock) {},
		},
		{
			name:       "missing reference is dropped",
			body:       `{"chat_id":1,"amount":"20.00","status":"approved"}`,
			setupMocks: func(_ *LifecycleMock) {},
		},
		{
			name: "duplicate is acked",
			body: `{"chat_id":1,"amount":"20.00","reference":"pay-1","status":"approved"}`,
			setupMocks: func(l *LifecycleMock) {
				l.On("ProcessPayment", mock.Anything, int64(1), mock.Anything, "pay-1").
					Return(models.PaymentResult{}, fmt.Errorf("lifecycle.ProcessPayment: %w", models.ErrDuplicatePayment)).Once()
			},
		},
		{
			name: "unknown user is acked",
			body: `{"chat_id":9,"amount":"20.00","reference":"pay-9","status":"approved"}`,
			setupMocks: func(l *LifecycleMock) {
				l.On("ProcessPayment", mock.Anything, int64(9), mock.Anything, "pay-9").
					Return(models.PaymentResult{}, models.ErrUserNotFound).Once()
			},
		},
		{
			name: "storage failure is retried",
			body: `{"chat_id":1,"amount":"20.00","reference":"pay-1","status":"approved"}`,
			setupMocks: func(l *LifecycleMock) {
				l.On("ProcessPayment", mock.Anything, int64(1), mock.Anything, "pay-1").
					Return(models.PaymentResult{}, errors.New("connection reset")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := new(LifecycleMock)
			tt.setupMocks(l)
			s := New(l, newNoopLogger())

			err := s.Handle(context.Background(), []byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			l.AssertExpectations(t)
		})
	}
}

func TestService_Apply(t *testing.T) {
	l := new(LifecycleMock)
	s := New(l, newNoopLogger())

	_, err := s.Apply(context.Background(), models.PaymentEvent{ChatID: 1, Reference: "x", Status: "pending"})
	assert.ErrorIs(t, err, ErrEventIgnored)

	_, err = s.Apply(context.Background(), models.PaymentEvent{Reference: "x", Status: "approved"})
	assert.ErrorIs(t, err, ErrMalformedEvent)
	assert.True(t, Permanent(err))

	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	l.On("ProcessPayment", mock.Anything, int64(1), amountIs("20"), "x").
		Return(models.PaymentResult{NextDueAt: due}, nil).Once()
	res, err := s.Apply(context.Background(), models.PaymentEvent{ChatID: 1, Amount: decimal.NewFromInt(20), Reference: "x", Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, due, res.NextDueAt)
	l.AssertExpectations(t)
}
