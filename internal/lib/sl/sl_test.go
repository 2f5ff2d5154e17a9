package sl_test

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
)

func TestErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "plain error", err: errors.New("connection refused"), want: "connection refused"},
		{name: "wrapped error", err: fmt.Errorf("storage.GetUser: %w", errors.New("timeout")), want: "storage.GetUser: timeout"},
		{name: "nil error", err: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr := sl.Err(tt.err)
			assert.Equal(t, "error", attr.Key)
			assert.Equal(t, slog.StringValue(tt.want), attr.Value)
		})
	}
}

func TestChatID(t *testing.T) {
	attr := sl.ChatID(42)
	assert.Equal(t, "chat_id", attr.Key)
	assert.Equal(t, int64(42), attr.Value.Int64())
}
