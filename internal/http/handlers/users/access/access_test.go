package access

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

type MockService struct{ mock.Mock }

func (m *MockService) CheckAccess(ctx context.Context, chatID int64) (models.AccessDecision, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(models.AccessDecision), args.Error(1)
}

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		chatID         string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedBody   []string
	}{
		{
			name:   "trial access",
			chatID: "1",
			setupMock: func(m *MockService) {
				m.On("CheckAccess", mock.Anything, int64(1)).
					Return(models.Granted(models.AccessTrial, 3, &models.User{ChatID: 1}), nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"access":true`, `"type":"trial"`, `"days_remaining":3`},
		},
		{
			name:   "not registered",
			chatID: "2",
			setupMock: func(m *MockService) {
				m.On("CheckAccess", mock.Anything, int64(2)).
					Return(models.Denied(models.ReasonNotRegistered, nil), nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"access":false`, `"reason":"not_registered"`},
		},
		{
			name:   "internal error",
			chatID: "3",
			setupMock: func(m *MockService) {
				m.On("CheckAccess", mock.Anything, int64(3)).
					Return(models.Denied(models.ReasonInternalError, nil), errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   []string{`"reason":"internal_error"`, `"error":"could not check access"`},
		},
		{
			name:           "bad chat id",
			chatID:         "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{`"error":"invalid chat id"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+tt.chatID+"/access", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("chat_id", tt.chatID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			for _, s := range tt.expectedBody {
				assert.Contains(t, w.Body.String(), s)
			}
			svc.AssertExpectations(t)
		})
	}
}
