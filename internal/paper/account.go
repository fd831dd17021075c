package paper

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"revertbot-go/internal/exchange"
)

type positionState struct {
	Qty     decimal.Decimal
	AvgCost decimal.Decimal
}

// Account tracks virtual cash, realized PnL, and per-pair positions while trading in paper mode.
type Account struct {
	mu                 sync.Mutex
	startingCash       decimal.Decimal
	cash               decimal.Decimal
	realizedPnL        decimal.Decimal
	maxPositionPerPair decimal.Decimal
	positions          map[string]positionState
}

// PositionSnapshot exposes a read-only view of a single pair position.
type PositionSnapshot struct {
	Qty         decimal.Decimal
	AvgCost     decimal.Decimal
	MarketValue decimal.Decimal
	Unrealized  decimal.Decimal
}

// Snapshot represents a thread-safe view of the account state, optionally marked to market using provided prices.
type Snapshot struct {
	Cash        decimal.Decimal
	RealizedPnL decimal.Decimal
	Equity      decimal.Decimal
	Positions   map[string]PositionSnapshot
}

// NewAccount constructs an account with starting cash and an optional position cap (zero disables it).
func NewAccount(startingCash, maxPositionPerPair decimal.Decimal) *Account {
	return &Account{
		startingCash:       startingCash,
		cash:               startingCash,
		maxPositionPerPair: maxPositionPerPair,
		positions:          make(map[string]positionState),
	}
}

// Seed credits an existing position, used when a run starts with a non-zero asset balance.
func (a *Account) Seed(pair string, qty, avgCost decimal.Decimal) {
	if !qty.IsPositive() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.positions[pair] = positionState{Qty: qty, AvgCost: avgCost}
}

// StartingCash returns the initial bankroll.
func (a *Account) StartingCash() decimal.Decimal { return a.startingCash }

// Fill executes an order at price, mutating balances if successful. Refusals wrap exchange.ErrRejected.
func (a *Account) Fill(pair string, side exchange.Side, qty, price decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", exchange.ErrRejected)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", exchange.ErrRejected)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.positions[pair]
	notional := qty.Mul(price)

	switch side {
	case exchange.Buy:
		if notional.GreaterThan(a.cash) {
			return fmt.Errorf("%w: insufficient cash for buy", exchange.ErrRejected)
		}
		newQty := state.Qty.Add(qty)
		if a.maxPositionPerPair.IsPositive() && newQty.GreaterThan(a.maxPositionPerPair) {
			return fmt.Errorf("%w: position limit exceeded", exchange.ErrRejected)
		}
		newAvg := state.AvgCost.Mul(state.Qty).Add(notional).Div(newQty)
		a.cash = a.cash.Sub(notional)
		a.positions[pair] = positionState{Qty: newQty, AvgCost: newAvg}

	case exchange.Sell:
		if !state.Qty.IsPositive() || state.Qty.LessThan(qty) {
			return fmt.Errorf("%w: insufficient position to sell", exchange.ErrRejected)
		}
		a.realizedPnL = a.realizedPnL.Add(price.Sub(state.AvgCost).Mul(qty))
		a.cash = a.cash.Add(notional)
		newQty := state.Qty.Sub(qty)
		if newQty.IsZero() {
			delete(a.positions, pair)
		} else {
			a.positions[pair] = positionState{Qty: newQty, AvgCost: state.AvgCost}
		}

	default:
		return fmt.Errorf("%w: unknown order side %q", exchange.ErrRejected, side)
	}
	return nil
}

// Snapshot returns a copy of balances, optionally marked using the supplied prices map.
func (a *Account) Snapshot(prices map[string]decimal.Decimal) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make(map[string]PositionSnapshot, len(a.positions))
	equity := a.cash
	for pair, pos := range a.positions {
		snap := PositionSnapshot{Qty: pos.Qty, AvgCost: pos.AvgCost}
		if mark, ok := prices[pair]; ok && !mark.IsZero() {
			snap.MarketValue = pos.Qty.Mul(mark)
			snap.Unrealized = mark.Sub(pos.AvgCost).Mul(pos.Qty)
		}
		positions[pair] = snap
		equity = equity.Add(snap.MarketValue)
	}

	return Snapshot{
		Cash:        a.cash,
		RealizedPnL: a.realizedPnL,
		Equity:      equity,
		Positions:   positions,
	}
}

// AvailableCash reports free cash that can be deployed into new longs.
func (a *Account) AvailableCash() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

// Position returns the current position size for the supplied pair.
func (a *Account) Position(pair string) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[pair].Qty
}

// RealizedPnL returns total closed-trade profit and loss.
func (a *Account) RealizedPnL() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realizedPnL
}
