package ledger

import (
	"github.com/shopspring/decimal"
)

// Amount is a (decimal value, symbol) pair. It is the unit every trade,
// lot and realization is expressed in.
type Amount struct {
	Value  decimal.Decimal
	Symbol Symbol
}

// NewAmount builds an Amount, a small convenience over the struct literal
// used throughout the engine and its tests.
func NewAmount(value decimal.Decimal, symbol Symbol) Amount {
	return Amount{Value: value, Symbol: symbol}
}

// String renders the amount using the fiat or bare format depending on its
// symbol's class.
func (a Amount) String() string {
	if a.Symbol.IsFiat() {
		return FormatUSDAmount(a.Value)
	}
	return FormatAmount(a.Value) + " " + a.Symbol.Code()
}

// Mul returns a new Amount with the value scaled by factor; the symbol is
// carried through unchanged. Used when splitting a trade fractionally to
// match a lot size during realization tracing.
func (a Amount) Mul(factor decimal.Decimal) Amount {
	return Amount{Value: a.Value.Mul(factor), Symbol: a.Symbol}
}

// Sub returns a new Amount with other's value subtracted; both amounts must
// share a symbol, which the engine guarantees by construction.
func (a Amount) Sub(other Amount) Amount {
	return Amount{Value: a.Value.Sub(other.Value), Symbol: a.Symbol}
}
