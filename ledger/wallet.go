package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a single parcel of an asset acquired at one moment at one
// effective per-unit cost. A lot whose amount has been reduced to zero is
// dropped from its wallet.
type Lot struct {
	Amount   decimal.Decimal
	UnitCost decimal.Decimal
	Acquired time.Time
}

func (l *Lot) costBasis() decimal.Decimal {
	return l.Amount.Mul(l.UnitCost)
}

// SaleResult is what a Wallet.Sell call returns: the cost basis it could
// trace and the acquisition date of the first lot it drew from.
type SaleResult struct {
	CostBasis      decimal.Decimal
	DateOfPurchase *time.Time
}

// Wallet is the FIFO lot book for a single asset. CumulativeBought and
// CumulativeSold are diagnostic running totals only; they are allowed to
// diverge from the live lot sum when a sale overdraws the book (the
// WalletOverdraw condition, which has no error type of its own).
type Wallet struct {
	Symbol           Symbol
	Lots             []*Lot
	CumulativeBought decimal.Decimal
	CumulativeSold   decimal.Decimal
}

// NewWallet returns an empty lot book for symbol.
func NewWallet(symbol Symbol) *Wallet {
	return &Wallet{
		Symbol:           symbol,
		CumulativeBought: decimal.Zero,
		CumulativeSold:   decimal.Zero,
	}
}

// AddLot appends a newly acquired lot and bumps CumulativeBought.
func (w *Wallet) AddLot(amount, unitCost decimal.Decimal, when time.Time) {
	w.CumulativeBought = w.CumulativeBought.Add(amount)
	w.Lots = append(w.Lots, &Lot{Amount: amount, UnitCost: unitCost, Acquired: when})
}

// Count returns the sum of remaining lot amounts.
func (w *Wallet) Count() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range w.Lots {
		total = total.Add(lot.Amount)
	}
	return total
}

// CostBasis returns the sum over lots of amount * unit_cost.
func (w *Wallet) CostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range w.Lots {
		total = total.Add(lot.costBasis())
	}
	return total
}

// Sell consumes lots oldest-first until amount is satisfied, or until the
// book runs dry (a WalletOverdraw condition: the returned cost basis then
// covers only what existed, and the shortfall is absorbed silently here -
// the realization engine detects overdraw via its own bookkeeping, not via
// an error return). CumulativeSold is incremented by the full requested
// amount regardless of fulfillment.
func (w *Wallet) Sell(amount decimal.Decimal) SaleResult {
	w.CumulativeSold = w.CumulativeSold.Add(amount)

	var dateOfPurchase *time.Time
	total := decimal.Zero
	remaining := amount
	consumed := 0

	for _, lot := range w.Lots {
		if remaining.Sign() <= 0 {
			break
		}
		if dateOfPurchase == nil {
			acquired := lot.Acquired
			dateOfPurchase = &acquired
		}

		if remaining.LessThan(lot.Amount) {
			lot.Amount = lot.Amount.Sub(remaining)
			total = total.Add(remaining.Mul(lot.UnitCost))
			remaining = decimal.Zero
			break
		}

		total = total.Add(lot.costBasis())
		remaining = remaining.Sub(lot.Amount)
		consumed++
	}

	w.Lots = w.Lots[consumed:]

	return SaleResult{CostBasis: total, DateOfPurchase: dateOfPurchase}
}
