// Package execution submits orders for a trade decision and reconciles the ledger once they settle.
package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"revertbot-go/internal/exchange"
	"revertbot-go/internal/ledger"
	"revertbot-go/internal/metrics"
	"revertbot-go/internal/risk"
	"revertbot-go/internal/signal"
	"revertbot-go/internal/strategy"
)

var (
	// ErrOrderSubmissionFailed wraps a rejection or transport failure while placing the order.
	ErrOrderSubmissionFailed = errors.New("order submission failed")
	// ErrOrderStatusUnknown means settlement could not be confirmed either way.
	ErrOrderStatusUnknown = errors.New("order status unknown")
	// ErrOrderNotSettled means the venue answered with a status other than DONE.
	ErrOrderNotSettled = errors.New("order not settled")
	// ErrRiskLimit means the order was blocked before submission.
	ErrRiskLimit = errors.New("risk limit exceeded")
)

// StatusNoAction is reported when the combined signal is not actionable.
const StatusNoAction = "The action signal is either HOLD or has not reached a first-time BUY"

// StatusNoPosition is reported for a SELL while holding nothing.
const StatusNoPosition = "Sell skipped: no position to liquidate"

// Fill is a settled order as written to the audit journal.
type Fill struct {
	OrderID string          `json:"order_id"`
	Pair    string          `json:"pair"`
	Side    exchange.Side   `json:"side"`
	Size    decimal.Decimal `json:"size"`
	Price   decimal.Decimal `json:"price"`
	Time    time.Time       `json:"ts"`
}

// FillRecorder captures settled fills.
type FillRecorder interface {
	Record(Fill)
}

// Venue is what the executor needs from an exchange.
type Venue interface {
	exchange.QuoteSource
	exchange.Trading
}

// OrderResult describes the order placed for a decision.
type OrderResult struct {
	OrderID string
	Pair    string
	Side    exchange.Side
	Size    decimal.Decimal
	Price   decimal.Decimal
	Status  exchange.OrderStatus
}

// Outcome is the result of one Execute call. Order level failures are carried in Err.
type Outcome struct {
	Status string
	Filled bool
	Action signal.Signal
	Result OrderResult
	Err    error
}

// Executor places the order for an actionable signal and updates the ledger on DONE only.
type Executor struct {
	venue    Venue
	ledger   *ledger.Ledger
	log      zerolog.Logger
	settle   Settlement
	limits   risk.Limits
	recorder FillRecorder
	sleep    Sleeper
	now      func() time.Time
}

// Option configures Executor construction parameters.
type Option func(*Executor)

// WithSettlement overrides the settlement polling policy.
func WithSettlement(s Settlement) Option {
	return func(e *Executor) { e.settle = s.normalized() }
}

// WithRiskLimits installs the pre-trade notional guard.
func WithRiskLimits(l risk.Limits) Option {
	return func(e *Executor) { e.limits = l }
}

// WithRecorder sends settled fills to r.
func WithRecorder(r FillRecorder) Option {
	return func(e *Executor) { e.recorder = r }
}

// WithSleeper replaces the settlement wait, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(e *Executor) {
		if s != nil {
			e.sleep = s
		}
	}
}

// NewExecutor wires a venue to the ledger it reconciles.
func NewExecutor(venue Venue, book *ledger.Ledger, log zerolog.Logger, opts ...Option) *Executor {
	e := &Executor{
		venue:  venue,
		ledger: book,
		log:    log,
		settle: DefaultSettlement(),
		sleep:  sleepContext,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if wait := e.settle.TotalWait(); e.settle.Timeout > 0 && wait > e.settle.Timeout {
		e.log.Warn().
			Dur("total_wait", wait).
			Dur("timeout", e.settle.Timeout).
			Msg("settlement timeout shorter than poll schedule, late polls will not run")
	}
	return e
}

// Execute acts on a combined signal. BUY orders tradeSize units, SELL liquidates the whole
// asset balance, both as limit orders at a freshly quoted price. The returned error is only
// set when the quote cannot be obtained; everything after that is reported in the Outcome.
func (e *Executor) Execute(ctx context.Context, pair string, action signal.Signal, tradeSize decimal.Decimal) (Outcome, error) {
	outcome := Outcome{Action: action}

	var side exchange.Side
	switch action {
	case signal.Buy:
		side = exchange.Buy
	case signal.Sell:
		side = exchange.Sell
	default:
		outcome.Status = StatusNoAction
		e.log.Info().Str("pair", pair).Str("signal", string(action)).Msg("no action taken")
		return outcome, nil
	}

	size := tradeSize
	if side == exchange.Sell {
		size = e.ledger.AssetBalance()
		if !size.IsPositive() {
			outcome.Status = StatusNoPosition
			e.log.Info().Str("pair", pair).Msg("sell signal with empty position")
			return outcome, nil
		}
	} else if !size.IsPositive() {
		return outcome, fmt.Errorf("trade size must be positive, got %s", size)
	}

	quote, err := e.venue.Quote(ctx, pair)
	if err != nil {
		return outcome, fmt.Errorf("%w: quote %s: %w", exchange.ErrTransport, pair, err)
	}
	if !quote.Price.IsPositive() {
		return outcome, fmt.Errorf("%w: quoted price %s for %s", strategy.ErrInvalidMarketData, quote.Price, pair)
	}

	outcome.Result = OrderResult{Pair: pair, Side: side, Size: size, Price: quote.Price}
	label := sideLabel(side)

	notional := size.Mul(quote.Price)
	if side == exchange.Buy && !e.limits.Allow(notional) {
		err := fmt.Errorf("%w: notional %s above %s", ErrRiskLimit, notional, e.limits.MaxNotionalPerTrade)
		return e.fail(outcome, label, err), nil
	}

	ack, err := e.venue.PlaceOrder(ctx, exchange.OrderRequest{
		Pair:       pair,
		Side:       side,
		LimitPrice: quote.Price,
		Size:       size,
	})
	if err != nil {
		return e.fail(outcome, label, fmt.Errorf("%w: %w", ErrOrderSubmissionFailed, err)), nil
	}
	metrics.OrdersTotal.WithLabelValues(pair, string(side)).Inc()
	outcome.Result.OrderID = ack.ID
	outcome.Result.Status = exchange.StatusPending
	e.log.Info().
		Str("pair", pair).
		Str("side", string(side)).
		Str("order_id", ack.ID).
		Str("size", size.String()).
		Str("px", quote.Price.String()).
		Msg("order submitted")

	status, err := e.awaitSettlement(ctx, ack.ID)
	outcome.Result.Status = status
	metrics.SettlementsTotal.WithLabelValues(pair, string(status)).Inc()
	if err != nil {
		return e.fail(outcome, label, err), nil
	}
	if status != exchange.StatusDone {
		return e.fail(outcome, label, fmt.Errorf("%w: order %s is %s", ErrOrderNotSettled, ack.ID, status)), nil
	}

	switch side {
	case exchange.Buy:
		e.ledger.ApplyBuy(size, quote.Price)
	case exchange.Sell:
		e.ledger.ApplySell(size, quote.Price)
	}
	if e.recorder != nil {
		e.recorder.Record(Fill{
			OrderID: ack.ID,
			Pair:    pair,
			Side:    side,
			Size:    size,
			Price:   quote.Price,
			Time:    e.now().UTC(),
		})
	}
	state := e.ledger.Snapshot()
	e.log.Info().
		Str("order_id", ack.ID).
		Str("asset_balance", state.AssetBalance.String()).
		Str("available_funds", state.AvailableFunds.String()).
		Msg("order settled")

	outcome.Status = label + " Order Execution Successful"
	outcome.Filled = true
	return outcome, nil
}

// awaitSettlement polls until a terminal status, the attempt budget runs out or the timeout hits.
func (e *Executor) awaitSettlement(ctx context.Context, orderID string) (exchange.OrderStatus, error) {
	if e.settle.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.settle.Timeout)
		defer cancel()
	}

	status := exchange.StatusPending
	var lastErr error
	for attempt := 0; attempt < e.settle.MaxAttempts; attempt++ {
		if err := e.sleep(ctx, e.settle.backoff(attempt)); err != nil {
			return exchange.StatusUnknown, fmt.Errorf("%w: order %s: waiting for settlement: %w", ErrOrderStatusUnknown, orderID, err)
		}
		s, err := e.venue.OrderStatus(ctx, orderID)
		if err != nil {
			lastErr = err
			e.log.Warn().Err(err).Str("order_id", orderID).Int("attempt", attempt+1).Msg("order status check failed")
			continue
		}
		lastErr = nil
		status = s
		e.log.Debug().Str("order_id", orderID).Str("status", string(s)).Int("attempt", attempt+1).Msg("order status")
		if status.Terminal() {
			return status, nil
		}
	}
	if lastErr != nil {
		return exchange.StatusUnknown, fmt.Errorf("%w: order %s: %w", ErrOrderStatusUnknown, orderID, lastErr)
	}
	return status, nil
}

func (e *Executor) fail(o Outcome, label string, err error) Outcome {
	o.Status = label + " Order Execution Unsuccessful"
	o.Err = err
	e.log.Error().
		Err(err).
		Str("pair", o.Result.Pair).
		Str("order_id", o.Result.OrderID).
		Str("status", string(o.Result.Status)).
		Msg("order execution failed")
	return o
}

func sideLabel(side exchange.Side) string {
	if side == exchange.Sell {
		return "Sell"
	}
	return "Buy"
}
