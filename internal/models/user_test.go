package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "trial", input: "trial", want: StatusTrial},
		{name: "trial expired", input: "trial_expired", want: StatusTrialExpired},
		{name: "paid", input: "paid", want: StatusPaid},
		{name: "expired", input: "expired", want: StatusExpired},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "vip", wantErr: true},
		{name: "wrong case", input: "PAID", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_AllowsActivePlan(t *testing.T) {
	assert.True(t, StatusTrial.AllowsActivePlan())
	assert.True(t, StatusPaid.AllowsActivePlan())
	assert.False(t, StatusTrialExpired.AllowsActivePlan())
	assert.False(t, StatusExpired.AllowsActivePlan())
}

func TestAccessDecisionConstructors(t *testing.T) {
	u := &User{ChatID: 1}

	granted := Granted(AccessPaid, 12, u)
	assert.True(t, granted.Access)
	assert.Equal(t, AccessPaid, granted.Type)
	assert.Equal(t, 12, granted.DaysRemaining)
	assert.Empty(t, granted.Reason)

	denied := Denied(ReasonPlanExpired, u)
	assert.False(t, denied.Access)
	assert.Equal(t, ReasonPlanExpired, denied.Reason)
	assert.Empty(t, denied.Type)
	assert.Same(t, u, denied.User)
}
