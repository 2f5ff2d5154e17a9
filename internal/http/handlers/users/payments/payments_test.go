package payments

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

type MockService struct{ mock.Mock }

func (m *MockService) ListPayments(ctx context.Context, chatID int64) ([]models.Payment, error) {
	args := m.Called(ctx, chatID)
	if res := args.Get(0); res != nil {
		return res.([]models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	paidAt := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "history",
			setupMock: func(m *MockService) {
				m.On("ListPayments", mock.Anything, int64(3)).Return([]models.Payment{{
					ChatID:    3,
					Amount:    decimal.RequireFromString("20.00"),
					PaidAt:    paidAt,
					Reference: "pay-1",
					Status:    models.PaymentStatusApproved,
				}}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"reference":"pay-1"`,
		},
		{
			name: "no payments yet",
			setupMock: func(m *MockService) {
				m.On("ListPayments", mock.Anything, int64(3)).Return(nil, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"payments":[]`,
		},
		{
			name: "unknown user",
			setupMock: func(m *MockService) {
				m.On("ListPayments", mock.Anything, int64(3)).Return(nil, models.ErrUserNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/3/payments", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("chat_id", "3")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
