package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revertbot-go/internal/signal"
)

func flatWindow(closePx, volume float64) []signal.PricePoint {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	window := make([]signal.PricePoint, signal.WindowSize)
	for i := range window {
		px := decimal.NewFromFloat(closePx)
		window[i] = signal.PricePoint{
			Time:   start.AddDate(0, 0, i),
			Open:   px,
			High:   px,
			Low:    px,
			Close:  px,
			Volume: decimal.NewFromFloat(volume),
		}
	}
	return window
}

func quote(price, volume float64) signal.Quote {
	return signal.Quote{Price: decimal.NewFromFloat(price), Volume: decimal.NewFromFloat(volume)}
}

func TestPriceBuyBelowAverageAndVolumeHoldIsUndetermined(t *testing.T) {
	strat := NewMeanReversion(15, 25)
	d, err := strat.Evaluate(flatWindow(100, 1000), quote(80, 1300))
	require.NoError(t, err)
	assert.Equal(t, signal.Buy, d.Price)
	assert.Equal(t, signal.Hold, d.Volume)
	assert.Equal(t, signal.Undetermined, d.Action)
	assert.True(t, d.PriceDiffPct.Equal(decimal.NewFromInt(20)), d.PriceDiffPct.String())
	assert.Equal(t, "23.08", d.VolumeDiffPct.StringFixed(2))
}

func TestUnanimousBuy(t *testing.T) {
	strat := NewMeanReversion(15, 25)
	d, err := strat.Evaluate(flatWindow(100, 1000), quote(80, 2000))
	require.NoError(t, err)
	assert.Equal(t, signal.Buy, d.Action, d.Reason)
}

func TestUnanimousSell(t *testing.T) {
	strat := NewMeanReversion(15, 25)
	d, err := strat.Evaluate(flatWindow(100, 1000), quote(110, 800))
	require.NoError(t, err)
	assert.Equal(t, signal.Sell, d.Price)
	assert.Equal(t, signal.Sell, d.Volume)
	assert.Equal(t, signal.Sell, d.Action)
}

func TestUnanimousHold(t *testing.T) {
	strat := NewMeanReversion(15, 25)
	d, err := strat.Evaluate(flatWindow(100, 1000), quote(90, 1100))
	require.NoError(t, err)
	assert.Equal(t, signal.Hold, d.Action, d.Reason)
}

func TestPriceAtAverageIsSell(t *testing.T) {
	strat := NewMeanReversion(15, 25)
	d, err := strat.Evaluate(flatWindow(100, 1000), quote(100, 1000))
	require.NoError(t, err)
	assert.Equal(t, signal.Sell, d.Price)
	assert.Equal(t, signal.Sell, d.Volume)
}

func TestPriceThresholdBoundaryIsHold(t *testing.T) {
	strat := NewMeanReversion(15, 25)
	d, err := strat.Evaluate(flatWindow(100, 1000), quote(85, 1000))
	require.NoError(t, err)
	assert.Equal(t, signal.Hold, d.Price, "exactly 15% below the mean")
}

func TestPriceBuyWheneverDiffExceedsThreshold(t *testing.T) {
	strat := NewMeanReversion(15, 25)
	for _, px := range []float64{84.99, 70, 50, 1, 0.01} {
		d, err := strat.Evaluate(flatWindow(100, 1000), quote(px, 1000))
		require.NoError(t, err, "price %.2f", px)
		assert.Equal(t, signal.Buy, d.Price, "price %.2f", px)
	}
}

func TestActionImpliesAgreement(t *testing.T) {
	strat := NewMeanReversion(15, 25)
	prices := []float64{50, 80, 86, 95, 100, 120}
	volumes := []float64{100, 900, 1000, 1100, 1300, 5000}
	for _, px := range prices {
		for _, vol := range volumes {
			d, err := strat.Evaluate(flatWindow(100, 1000), quote(px, vol))
			require.NoError(t, err)
			if d.Action != signal.Undetermined {
				assert.Equal(t, d.Action, d.Price, "price %.2f volume %.0f", px, vol)
				assert.Equal(t, d.Action, d.Volume, "price %.2f volume %.0f", px, vol)
			}
		}
	}
}

func TestZeroVolumeIsInvalid(t *testing.T) {
	strat := NewMeanReversion(15, 25)
	_, err := strat.Evaluate(flatWindow(100, 1000), quote(80, 0))
	assert.ErrorIs(t, err, ErrInvalidMarketData)
}

func TestZeroAveragePriceIsInvalid(t *testing.T) {
	strat := NewMeanReversion(15, 25)
	_, err := strat.Evaluate(flatWindow(0, 1000), quote(80, 1000))
	assert.ErrorIs(t, err, ErrInvalidMarketData)
}

func TestShortWindowIsInvalid(t *testing.T) {
	strat := NewMeanReversion(15, 25)
	_, err := strat.Evaluate(flatWindow(100, 1000)[:6], quote(80, 1000))
	assert.ErrorIs(t, err, ErrInvalidMarketData)
}

func TestDefaultsApplied(t *testing.T) {
	strat := NewMeanReversion(0, -1)
	assert.True(t, strat.priceThreshold.Equal(decimal.NewFromInt(15)), strat.priceThreshold.String())
	assert.True(t, strat.volumeThreshold.Equal(decimal.NewFromInt(25)), strat.volumeThreshold.String())
}

func TestBuild(t *testing.T) {
	strat, err := Build("mean_reversion", Params{PriceThresholdPct: 10, VolumeThresholdPct: 20})
	require.NoError(t, err)
	assert.Equal(t, "MeanReversion", strat.Name())

	_, err = Build("obi", Params{})
	assert.Error(t, err, "unknown mode")
}
