// Package market retrieves the completed daily history a trading decision is based on.
package market

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"revertbot-go/internal/exchange"
	"revertbot-go/internal/signal"
)

// ErrDataUnavailable is returned when the venue does not have a full window of completed days
// or answers the history request with something unusable.
var ErrDataUnavailable = errors.New("market data unavailable")

const day = 24 * time.Hour

// BarSource is the slice of the venue the fetcher needs.
type BarSource interface {
	HistoricBars(ctx context.Context, pair string, granularity time.Duration) ([]exchange.Bar, error)
}

// Fetcher turns venue candles into a fixed window of daily price points.
type Fetcher struct {
	source BarSource
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures Fetcher construction parameters.
type Option func(*Fetcher)

// WithClock overrides the clock used to find the still-forming current day.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFetcher wraps a bar source.
func NewFetcher(source BarSource, log zerolog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{source: source, log: log, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchWeek returns the last seven completed UTC days for pair, oldest first. The current
// day is excluded because its bar is still forming.
func (f *Fetcher) FetchWeek(ctx context.Context, pair string) ([]signal.PricePoint, error) {
	bars, err := f.source.HistoricBars(ctx, pair, day)
	if errors.Is(err, exchange.ErrBadResponse) {
		return nil, fmt.Errorf("%w: historic bars for %s: %w", ErrDataUnavailable, pair, err)
	}
	if err != nil {
		// connectivity failures arrive tagged with exchange.ErrTransport by the venue
		return nil, fmt.Errorf("historic bars for %s: %w", pair, err)
	}

	today := f.now().UTC().Truncate(day)
	byDay := make(map[time.Time]exchange.Bar, len(bars))
	for _, bar := range bars {
		start := bar.Time.UTC().Truncate(day)
		if !start.Before(today) {
			continue
		}
		byDay[start] = bar
	}
	if len(byDay) < signal.WindowSize {
		return nil, fmt.Errorf("%w: %s has %d completed daily bars, need %d", ErrDataUnavailable, pair, len(byDay), signal.WindowSize)
	}

	days := make([]time.Time, 0, len(byDay))
	for start := range byDay {
		days = append(days, start)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	days = days[len(days)-signal.WindowSize:]

	window := make([]signal.PricePoint, len(days))
	for i, start := range days {
		bar := byDay[start]
		window[i] = signal.PricePoint{
			Time:   start,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		}
	}
	f.log.Debug().
		Str("pair", pair).
		Time("from", days[0]).
		Time("to", days[len(days)-1]).
		Msg("fetched daily window")
	return window, nil
}
