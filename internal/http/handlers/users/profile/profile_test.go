package profile

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

func (m *MockService) GetUser(ctx context.Context, chatID int64) (*models.User, error) {
	args := m.Called(ctx, chatID)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		chatID         string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "found",
			chatID: "7",
			setupMock: func(m *MockService) {
				m.On("GetUser", mock.Anything, int64(7)).
					Return(&models.User{ChatID: 7, Name: "Ana", Status: models.StatusTrial}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"trial"`,
		},
		{
			name:   "not found",
			chatID: "7",
			setupMock: func(m *MockService) {
				m.On("GetUser", mock.Anything, int64(7)).Return(nil, models.ErrUserNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"user not found"`,
		},
		{
			name:   "storage failure",
			chatID: "7",
			setupMock: func(m *MockService) {
				m.On("GetUser", mock.Anything, int64(7)).Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not get user"`,
		},
		{
			name:           "bad chat id",
			chatID:         "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid chat id"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+tt.chatID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("chat_id", tt.chatID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
