// Package risk holds pre-trade guards.
package risk

import "github.com/shopspring/decimal"

// Limits caps order exposure. A zero or negative cap disables the check.
type Limits struct {
	MaxNotionalPerTrade decimal.Decimal
}

func (l Limits) Allow(notional decimal.Decimal) bool {
	if !l.MaxNotionalPerTrade.IsPositive() {
		return true
	}
	return notional.LessThanOrEqual(l.MaxNotionalPerTrade)
}
