// Package paper simulates order placement against a virtual account while reading live market data.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"revertbot-go/internal/execution"
	"revertbot-go/internal/exchange"
	"revertbot-go/internal/signal"
)

// Venue fills limit orders immediately at their limit price. Market data comes from the wrapped source.
type Venue struct {
	market  exchange.MarketData
	account *Account
	fills   *Ledger
	log     zerolog.Logger
	now     func() time.Time

	mu     sync.Mutex
	orders map[string]exchange.OrderStatus
}

var _ exchange.Venue = (*Venue)(nil)

// NewVenue wraps a market data source and a paper account.
func NewVenue(market exchange.MarketData, account *Account, log zerolog.Logger) *Venue {
	return &Venue{
		market:  market,
		account: account,
		fills:   NewLedger(8),
		log:     log,
		now:     time.Now,
		orders:  make(map[string]exchange.OrderStatus),
	}
}

// HistoricBars delegates to the underlying market data source.
func (v *Venue) HistoricBars(ctx context.Context, pair string, granularity time.Duration) ([]exchange.Bar, error) {
	return v.market.HistoricBars(ctx, pair, granularity)
}

// Quote delegates to the underlying market data source.
func (v *Venue) Quote(ctx context.Context, pair string) (signal.Quote, error) {
	return v.market.Quote(ctx, pair)
}

// PlaceOrder fills against the paper account or returns a wrapped exchange.ErrRejected.
func (v *Venue) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderAck, error) {
	if err := ctx.Err(); err != nil {
		return exchange.OrderAck{}, err
	}
	if err := v.account.Fill(req.Pair, req.Side, req.Size, req.LimitPrice); err != nil {
		v.log.Warn().Err(err).Str("pair", req.Pair).Str("side", string(req.Side)).Msg("paper order refused")
		return exchange.OrderAck{}, fmt.Errorf("paper %s %s: %w", req.Side, req.Pair, err)
	}
	id := uuid.NewString()
	v.mu.Lock()
	v.orders[id] = exchange.StatusDone
	v.mu.Unlock()

	v.fills.Record(execution.Fill{
		OrderID: id,
		Pair:    req.Pair,
		Side:    req.Side,
		Size:    req.Size,
		Price:   req.LimitPrice,
		Time:    v.now().UTC(),
	})
	v.log.Info().
		Str("order_id", id).
		Str("pair", req.Pair).
		Str("side", string(req.Side)).
		Str("size", req.Size.String()).
		Str("px", req.LimitPrice.String()).
		Str("cash", v.account.AvailableCash().String()).
		Msg("paper fill")
	return exchange.OrderAck{ID: id, Status: exchange.StatusDone}, nil
}

// OrderStatus reports DONE for filled paper orders.
func (v *Venue) OrderStatus(ctx context.Context, orderID string) (exchange.OrderStatus, error) {
	if err := ctx.Err(); err != nil {
		return exchange.StatusUnknown, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	status, ok := v.orders[orderID]
	if !ok {
		return exchange.StatusUnknown, fmt.Errorf("paper order %s not found", orderID)
	}
	return status, nil
}

// Fills returns every paper fill so far.
func (v *Venue) Fills() []execution.Fill { return v.fills.Snapshot() }

// Account exposes the simulated balances.
func (v *Venue) Account() *Account { return v.account }

// Fill returns the paper fill for orderID.
func (v *Venue) Fill(orderID string) (execution.Fill, bool) { return v.fills.Last(orderID) }

// Summary is the paper account at the end of a run, marked at the latest quote.
type Summary struct {
	Pair         string
	StartingCash decimal.Decimal
	Cash         decimal.Decimal
	Position     decimal.Decimal
	RealizedPnL  decimal.Decimal
	Equity       decimal.Decimal
	Fills        int
}

// Summary marks the account at the latest quote for pair.
func (v *Venue) Summary(ctx context.Context, pair string) (Summary, error) {
	equity, err := v.Equity(ctx, pair)
	if err != nil {
		return Summary{}, fmt.Errorf("mark paper account: %w", err)
	}
	return Summary{
		Pair:         pair,
		StartingCash: v.account.StartingCash(),
		Cash:         v.account.AvailableCash(),
		Position:     v.account.Position(pair),
		RealizedPnL:  v.account.RealizedPnL(),
		Equity:       equity,
		Fills:        len(v.fills.Snapshot()),
	}, nil
}

// Equity marks the account at the latest quote for pair.
func (v *Venue) Equity(ctx context.Context, pair string) (decimal.Decimal, error) {
	q, err := v.market.Quote(ctx, pair)
	if err != nil {
		return decimal.Zero, err
	}
	return v.account.Snapshot(map[string]decimal.Decimal{pair: q.Price}).Equity, nil
}
