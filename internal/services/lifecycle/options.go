package lifecycle

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/config"
)

// OptionsFromConfig переводит секцию lifecycle конфига в Options.
func OptionsFromConfig(cfg config.Lifecycle) (Options, error) {
	const op = "lifecycle.OptionsFromConfig"
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Options{}, fmt.Errorf("%s: %w", op, err)
	}
	price, err := decimal.NewFromString(cfg.MonthlyPrice)
	if err != nil {
		return Options{}, fmt.Errorf("%s: %w", op, err)
	}
	return Options{
		Location:       loc,
		MonthlyPrice:   price,
		TrialDays:      cfg.TrialDays,
		BillingDays:    cfg.BillingDays,
		LookupFailOpen: cfg.LookupFailurePolicy == config.LookupFailOpen,
		StatsTTL:       cfg.StatsCacheTTL,
	}, nil
}
