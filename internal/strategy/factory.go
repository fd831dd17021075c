package strategy

import (
	"fmt"
	"strings"

	sig "revertbot-go/internal/signal"
)

// Strategy defines behaviour shared by strategy implementations used by the bot.
type Strategy interface {
	Evaluate(window []sig.PricePoint, quote sig.Quote) (Decision, error)
	Name() string
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	PriceThresholdPct  float64
	VolumeThresholdPct float64
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "mean_reversion", "meanrev", "mean_revert":
		return NewMeanReversion(params.PriceThresholdPct, params.VolumeThresholdPct), nil
	default:
		return nil, fmt.Errorf("unknown strategy mode %q", mode)
	}
}
