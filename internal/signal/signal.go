// Package signal standardizes payloads shared between data ingestion, strategy, and execution layers.
package signal

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint models one daily OHLCV bar consumed by strategies.
type PricePoint struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Quote is the live price and volume observed at decision time.
type Quote struct {
	Price  decimal.Decimal
	Volume decimal.Decimal
	Ts     time.Time
}

// Signal expresses a trading bias produced by a strategy implementation.
type Signal string

const (
	Buy          Signal = "BUY"
	Sell         Signal = "SELL"
	Hold         Signal = "HOLD"
	Undetermined Signal = "UNDETERMINED"
)

// Actionable reports whether the signal should result in an order.
func (s Signal) Actionable() bool {
	return s == Buy || s == Sell
}

// Combine folds the price and volume signals into one action. Anything short of
// unanimous agreement is Undetermined.
func Combine(price, volume Signal) Signal {
	if price != volume {
		return Undetermined
	}
	switch price {
	case Buy, Sell, Hold:
		return price
	default:
		return Undetermined
	}
}

// WindowSize is the number of completed daily bars a decision is based on.
const WindowSize = 7
