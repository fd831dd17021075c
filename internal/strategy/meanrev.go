// Package strategy contains trading signal generation logic.
package strategy

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"revertbot-go/internal/signal"
)

// ErrInvalidMarketData marks windows or quotes the heuristics cannot be evaluated on.
var ErrInvalidMarketData = errors.New("invalid market data")

const (
	defaultPriceThresholdPct  = 15
	defaultVolumeThresholdPct = 25
)

var hundred = decimal.NewFromInt(100)

// Decision carries both sub-signals, the combined action, and the figures they were derived from.
type Decision struct {
	Price         signal.Signal
	Volume        signal.Signal
	Action        signal.Signal
	AvgPrice      decimal.Decimal
	AvgVolume     decimal.Decimal
	PriceDiffPct  decimal.Decimal
	VolumeDiffPct decimal.Decimal
	Reason        string
}

// MeanReversion buys when price has fallen well below its weekly mean while volume surges,
// and sells when both price and volume sit at or above/below their means.
type MeanReversion struct {
	priceThreshold  decimal.Decimal
	volumeThreshold decimal.Decimal
}

// NewMeanReversion builds the strategy from percentage thresholds; non-positive values fall back to 15 and 25.
func NewMeanReversion(priceThresholdPct, volumeThresholdPct float64) *MeanReversion {
	if priceThresholdPct <= 0 {
		priceThresholdPct = defaultPriceThresholdPct
	}
	if volumeThresholdPct <= 0 {
		volumeThresholdPct = defaultVolumeThresholdPct
	}
	return &MeanReversion{
		priceThreshold:  decimal.NewFromFloat(priceThresholdPct),
		volumeThreshold: decimal.NewFromFloat(volumeThresholdPct),
	}
}

// Name returns the identifier for the strategy implementation.
func (s *MeanReversion) Name() string { return "MeanReversion" }

// Evaluate compares the live quote against the window averages. It has no side effects.
func (s *MeanReversion) Evaluate(window []signal.PricePoint, quote signal.Quote) (Decision, error) {
	if len(window) != signal.WindowSize {
		return Decision{}, fmt.Errorf("%w: window has %d points, need %d", ErrInvalidMarketData, len(window), signal.WindowSize)
	}
	var sumClose, sumVolume decimal.Decimal
	for _, pt := range window {
		if pt.Close.IsNegative() || pt.Volume.IsNegative() {
			return Decision{}, fmt.Errorf("%w: negative close or volume on %s", ErrInvalidMarketData, pt.Time.Format("2006-01-02"))
		}
		sumClose = sumClose.Add(pt.Close)
		sumVolume = sumVolume.Add(pt.Volume)
	}
	n := decimal.NewFromInt(int64(len(window)))
	avgPrice := sumClose.Div(n)
	avgVolume := sumVolume.Div(n)

	if avgPrice.IsZero() {
		return Decision{}, fmt.Errorf("%w: average close is zero", ErrInvalidMarketData)
	}
	if !quote.Price.IsPositive() {
		return Decision{}, fmt.Errorf("%w: quote price %s", ErrInvalidMarketData, quote.Price)
	}
	if quote.Volume.IsZero() {
		return Decision{}, fmt.Errorf("%w: quote volume is zero", ErrInvalidMarketData)
	}
	if quote.Volume.IsNegative() {
		return Decision{}, fmt.Errorf("%w: quote volume %s", ErrInvalidMarketData, quote.Volume)
	}

	priceDiff := avgPrice.Sub(quote.Price).Div(avgPrice).Mul(hundred)
	volumeDiff := quote.Volume.Sub(avgVolume).Div(quote.Volume).Mul(hundred)

	d := Decision{
		Price:         s.priceSignal(priceDiff, avgPrice, quote.Price),
		Volume:        s.volumeSignal(volumeDiff, avgVolume, quote.Volume),
		AvgPrice:      avgPrice,
		AvgVolume:     avgVolume,
		PriceDiffPct:  priceDiff,
		VolumeDiffPct: volumeDiff,
	}
	d.Action = signal.Combine(d.Price, d.Volume)
	d.Reason = fmt.Sprintf("price=%s (Δ=%s%%) volume=%s (Δ=%s%%)",
		d.Price, priceDiff.StringFixed(2), d.Volume, volumeDiff.StringFixed(2))
	return d, nil
}

func (s *MeanReversion) priceSignal(diff, avg, current decimal.Decimal) signal.Signal {
	below := avg.GreaterThan(current)
	switch {
	case diff.GreaterThan(s.priceThreshold) && below:
		return signal.Buy
	case diff.IsPositive() && diff.LessThanOrEqual(s.priceThreshold) && below:
		return signal.Hold
	case !diff.IsPositive() && !below:
		return signal.Sell
	default:
		return signal.Undetermined
	}
}

func (s *MeanReversion) volumeSignal(diff, avg, current decimal.Decimal) signal.Signal {
	surge := current.GreaterThan(avg)
	switch {
	case diff.GreaterThan(s.volumeThreshold) && surge:
		return signal.Buy
	case diff.IsPositive() && diff.LessThanOrEqual(s.volumeThreshold) && surge:
		return signal.Hold
	case !diff.IsPositive() && !surge:
		return signal.Sell
	default:
		return signal.Undetermined
	}
}
