package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"revertbot-go/internal/signal"
)

var (
	// ErrTransport marks connectivity failures talking to a venue.
	ErrTransport = errors.New("exchange transport error")
	// ErrRejected is returned by venues that refuse an order at placement.
	ErrRejected = errors.New("order rejected by venue")
	// ErrBadResponse marks venue answers that arrived but could not be used: API errors and
	// undecodable bodies.
	ErrBadResponse = errors.New("unusable venue response")
)

// Side enumerates order directions.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a closing order.
	Sell Side = "SELL"
)

// OrderStatus is the venue-reported lifecycle state of an order.
type OrderStatus string

const (
	StatusPending  OrderStatus = "PENDING"
	StatusDone     OrderStatus = "DONE"
	StatusRejected OrderStatus = "REJECTED"
	StatusUnknown  OrderStatus = "UNKNOWN"
)

// Terminal reports whether the status can no longer change.
func (s OrderStatus) Terminal() bool {
	return s == StatusDone || s == StatusRejected
}

// Bar is one OHLCV candle as returned by a venue.
type Bar struct {
	Time   time.Time
	Low    decimal.Decimal
	High   decimal.Decimal
	Open   decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// OrderRequest is a limit order placement.
type OrderRequest struct {
	Pair       string
	Side       Side
	LimitPrice decimal.Decimal
	Size       decimal.Decimal
}

// OrderAck is the venue's acknowledgement of an accepted order.
type OrderAck struct {
	ID     string
	Status OrderStatus
}

// QuoteSource yields the live price and volume for a pair.
type QuoteSource interface {
	Quote(ctx context.Context, pair string) (signal.Quote, error)
}

// MarketData exposes historic candles and live quotes.
type MarketData interface {
	QuoteSource
	HistoricBars(ctx context.Context, pair string, granularity time.Duration) ([]Bar, error)
}

// Trading places orders and reports their status.
type Trading interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderAck, error)
	OrderStatus(ctx context.Context, orderID string) (OrderStatus, error)
}

// Venue is the full capability set the bot needs from an exchange.
type Venue interface {
	MarketData
	Trading
}
