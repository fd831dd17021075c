// Package ledger tracks the asset balance and available funds of one trading run.
package ledger

import (
	"sync"

	"github.com/shopspring/decimal"
)

// State is a read-only copy of the ledger balances.
type State struct {
	AssetBalance   decimal.Decimal
	AvailableFunds decimal.Decimal
}

// Ledger holds in-memory balances. It is only mutated once an order has settled.
type Ledger struct {
	mu    sync.Mutex
	asset decimal.Decimal
	funds decimal.Decimal
}

// New constructs a ledger seeded with the starting balances of a run.
func New(assetBalance, availableFunds decimal.Decimal) *Ledger {
	return &Ledger{asset: assetBalance, funds: availableFunds}
}

// ApplyBuy credits the asset and debits size*price of funds.
func (l *Ledger) ApplyBuy(size, price decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.asset = l.asset.Add(size)
	l.funds = l.funds.Sub(size.Mul(price))
}

// ApplySell credits size*price of funds and debits the asset.
func (l *Ledger) ApplySell(size, price decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.funds = l.funds.Add(size.Mul(price))
	l.asset = l.asset.Sub(size)
}

// AssetBalance returns the quantity of the asset currently held.
func (l *Ledger) AssetBalance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.asset
}

// AvailableFunds reports cash that can be deployed into new buys.
func (l *Ledger) AvailableFunds() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.funds
}

// Snapshot returns a copy of both balances.
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{AssetBalance: l.asset, AvailableFunds: l.funds}
}
