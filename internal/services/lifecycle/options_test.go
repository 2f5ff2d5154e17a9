package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/config"
)

func TestOptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(config.Lifecycle{
		Timezone:            "America/Sao_Paulo",
		MonthlyPrice:        "25.50",
		TrialDays:           14,
		BillingDays:         31,
		LookupFailurePolicy: config.LookupFailOpen,
		StatsCacheTTL:       time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "America/Sao_Paulo", opts.Location.String())
	assert.Equal(t, "25.5", opts.MonthlyPrice.String())
	assert.Equal(t, 14, opts.TrialDays)
	assert.Equal(t, 31, opts.BillingDays)
	assert.True(t, opts.LookupFailOpen)
	assert.Equal(t, time.Minute, opts.StatsTTL)
}

func TestOptionsFromConfig_Invalid(t *testing.T) {
	_, err := OptionsFromConfig(config.Lifecycle{Timezone: "Mars/Olympus", MonthlyPrice: "20.00"})
	assert.Error(t, err)

	_, err = OptionsFromConfig(config.Lifecycle{Timezone: "UTC", MonthlyPrice: "twenty"})
	assert.Error(t, err)

	opts, err := OptionsFromConfig(config.Lifecycle{Timezone: "UTC", MonthlyPrice: "20.00", LookupFailurePolicy: config.LookupFailClosed})
	require.NoError(t, err)
	assert.False(t, opts.LookupFailOpen)
}
