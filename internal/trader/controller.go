// Package trader sequences one fetch, decide, execute and report cycle.
package trader

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"revertbot-go/internal/exchange"
	"revertbot-go/internal/execution"
	"revertbot-go/internal/ledger"
	"revertbot-go/internal/metrics"
	"revertbot-go/internal/signal"
	"revertbot-go/internal/strategy"
)

// WindowSource returns the completed daily window for a pair.
type WindowSource interface {
	FetchWeek(ctx context.Context, pair string) ([]signal.PricePoint, error)
}

// OrderExecutor acts on a combined signal.
type OrderExecutor interface {
	Execute(ctx context.Context, pair string, action signal.Signal, tradeSize decimal.Decimal) (execution.Outcome, error)
}

// Report summarises one run.
type Report struct {
	Pair     string
	Decision strategy.Decision
	Outcome  execution.Outcome
	Ledger   ledger.State
}

// String renders the single status line printed at the end of a run.
func (r Report) String() string {
	var b strings.Builder
	b.WriteString(r.Outcome.Status)
	if r.Outcome.Err != nil {
		fmt.Fprintf(&b, ": %v", r.Outcome.Err)
	}
	fmt.Fprintf(&b, " | pair=%s signal=%s price=%s volume=%s asset_balance=%s available_funds=%s",
		r.Pair, r.Decision.Action, r.Decision.Price, r.Decision.Volume,
		r.Ledger.AssetBalance, r.Ledger.AvailableFunds)
	return b.String()
}

// Controller owns the ledger for a single invocation.
type Controller struct {
	history  WindowSource
	quotes   exchange.QuoteSource
	strategy strategy.Strategy
	executor OrderExecutor
	ledger   *ledger.Ledger
	log      zerolog.Logger
}

// NewController wires the collaborators of a run.
func NewController(history WindowSource, quotes exchange.QuoteSource, strat strategy.Strategy, executor OrderExecutor, book *ledger.Ledger, log zerolog.Logger) *Controller {
	return &Controller{
		history:  history,
		quotes:   quotes,
		strategy: strat,
		executor: executor,
		ledger:   book,
		log:      log,
	}
}

// Run executes the cycle once. Data, quote and evaluation failures abort with an error and
// leave the ledger untouched; order failures are carried in the report.
func (c *Controller) Run(ctx context.Context, pair string, tradeSize decimal.Decimal) (Report, error) {
	report := Report{Pair: pair}

	window, err := c.history.FetchWeek(ctx, pair)
	if err != nil {
		return c.abort(report, fmt.Errorf("fetch history: %w", err))
	}
	quote, err := c.quotes.Quote(ctx, pair)
	if err != nil {
		return c.abort(report, fmt.Errorf("%w: quote %s: %w", exchange.ErrTransport, pair, err))
	}
	decision, err := c.strategy.Evaluate(window, quote)
	if err != nil {
		return c.abort(report, fmt.Errorf("%s evaluate: %w", c.strategy.Name(), err))
	}
	report.Decision = decision
	metrics.SignalsTotal.WithLabelValues(pair, string(decision.Action)).Inc()
	c.log.Info().
		Str("pair", pair).
		Str("strategy", c.strategy.Name()).
		Str("avg_price", decision.AvgPrice.StringFixed(2)).
		Str("avg_volume", decision.AvgVolume.StringFixed(2)).
		Str("price", quote.Price.String()).
		Str("volume", quote.Volume.String()).
		Str("action", string(decision.Action)).
		Msg(decision.Reason)

	outcome, err := c.executor.Execute(ctx, pair, decision.Action, tradeSize)
	if err != nil {
		return c.abort(report, fmt.Errorf("execute %s: %w", decision.Action, err))
	}
	report.Outcome = outcome
	report.Ledger = c.ledger.Snapshot()

	result := "filled"
	switch {
	case outcome.Err != nil:
		result = "failed"
	case !outcome.Filled:
		result = "no_action"
	}
	metrics.RunsTotal.WithLabelValues(result).Inc()
	return report, nil
}

func (c *Controller) abort(report Report, err error) (Report, error) {
	metrics.RunsTotal.WithLabelValues("aborted").Inc()
	report.Ledger = c.ledger.Snapshot()
	report.Outcome.Status = "Run aborted"
	report.Outcome.Err = err
	c.log.Error().Err(err).Str("pair", report.Pair).Msg("run aborted")
	return report, err
}
