package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the canonical ledger row produced by a provider adapter
// or the config's inline transactions and consumed by the collator and the
// report phase. Amount is signed: positive is a buy of Token, negative is
// a sell of Token; Rate and DenominationRate recover the peer leg of the
// trade when reconstructing a Trade from a row.
type Transaction struct {
	ID                 string
	Market             string
	Token              string
	Amount             decimal.Decimal
	Rate               decimal.Decimal
	DenominationRate   decimal.Decimal
	DenominationAmount decimal.Decimal
	CreatedAt          *time.Time
	Provider           string
}

// Before implements the total order used for merging provider streams and
// for processing the ledger in chronological order: transactions with a
// missing timestamp compare equal to everything, so a stable merge (see
// the collate package) is what actually settles their relative order.
func (t Transaction) Before(other Transaction) bool {
	if t.CreatedAt == nil || other.CreatedAt == nil {
		return false
	}
	return t.CreatedAt.Before(*other.CreatedAt)
}

// Trade is an immutable ledger record: a moment in time at which Offered
// was given up in exchange for Gained. Same-symbol trades are tolerated as
// no-ops by the engine rather than rejected.
type Trade struct {
	When    time.Time
	Offered Amount
	Gained  Amount
}

// IsNoOp reports whether offered and gained share a symbol, in which case
// the trade carries no realizable activity.
func (t Trade) IsNoOp() bool {
	return t.Offered.Symbol == t.Gained.Symbol
}
