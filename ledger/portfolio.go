package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio tracks per-asset wallets as trades are replayed into it, and
// on request runs the realization engine that traces cost basis back
// through multi-hop trade chains to produce tax line items.
type Portfolio struct {
	wallets map[Symbol]*Wallet
	trades  []Trade
}

// NewPortfolio returns an empty portfolio.
func NewPortfolio() *Portfolio {
	return &Portfolio{wallets: make(map[Symbol]*Wallet)}
}

// AddTrade replays a trade into the per-asset wallets and records it for
// later realization analysis. Same-symbol trades carry no realizable
// activity and are ignored outright, per the data model's no-op clause.
func (p *Portfolio) AddTrade(trade Trade) {
	if trade.IsNoOp() {
		return
	}

	p.buy(trade.When, trade.Gained)
	p.sell(trade.Offered)
	p.trades = append(p.trades, trade)
}

// Wallet returns the lot book for symbol, or nil if nothing has touched it.
func (p *Portfolio) Wallet(symbol Symbol) *Wallet {
	return p.wallets[symbol]
}

func (p *Portfolio) walletFor(symbol Symbol) *Wallet {
	w, ok := p.wallets[symbol]
	if !ok {
		w = NewWallet(symbol)
		p.wallets[symbol] = w
	}
	return w
}

func (p *Portfolio) buy(when time.Time, gained Amount) {
	p.walletFor(gained.Symbol).AddLot(gained.Value, gained.Value, when)
}

func (p *Portfolio) sell(offered Amount) {
	p.walletFor(offered.Symbol).Sell(offered.Value)
}

// organizeTrades partitions the ledger into a FIFO queue per intermediate
// asset (trades_by_gained) and a single FIFO queue of sales that land
// directly in the denomination (final_sales). Both preserve ledger order,
// which is chronological.
func organizeTrades(trades []Trade, denomination Symbol) (map[Symbol]*saleQueue, saleQueue) {
	tradesByGained := make(map[Symbol]*saleQueue)
	var finalSales saleQueue

	for _, trade := range trades {
		s := sale{
			when:            trade.When,
			originalOffered: trade.Offered,
			offered:         trade.Offered,
			gained:          trade.Gained,
		}

		if trade.Gained.Symbol == denomination {
			finalSales.pushBack(s)
			continue
		}

		q, ok := tradesByGained[trade.Gained.Symbol]
		if !ok {
			q = &saleQueue{}
			tradesByGained[trade.Gained.Symbol] = q
		}
		q.pushBack(s)
	}

	return tradesByGained, finalSales
}

// Realizations runs the realization engine over every trade added so far,
// tracing cost basis back through intermediate assets until each disposal
// into denomination has been fully accounted for (or proven uncovered).
// This is the single hard part of the system; the two matching cases are
// handled by resolveLargerAcquisition and resolveLargerOrEqualSale.
func (p *Portfolio) Realizations(denomination Symbol) []Realization {
	tradesByGained, finalSales := organizeTrades(p.trades, denomination)

	var realizations []Realization

	for {
		trade, ok := finalSales.popFront()
		if !ok {
			break
		}

		description := describeRealization(trade.originalOffered.Symbol, denomination)

		queue, hasQueue := tradesByGained[trade.offered.Symbol]
		if !hasQueue || queue.empty() {
			realizations = append(realizations, uncoveredRealization(trade, description))
			continue
		}

		matching, _ := queue.popFront()

		if matching.gained.Value.GreaterThan(trade.offered.Value) {
			realizations = append(realizations, p.resolveLargerAcquisition(trade, matching, queue, &finalSales, denomination, description)...)
		} else {
			realizations = append(realizations, p.resolveLargerOrEqualSale(trade, matching, &finalSales, denomination, description)...)
		}
	}

	return realizations
}

func uncoveredRealization(trade sale, description string) Realization {
	return Realization{
		Amount:       trade.offered.Value,
		Symbol:       trade.originalOffered.Symbol,
		Description:  description,
		AcquiredWhen: nil,
		DisposedWhen: trade.when,
		Proceeds:     trade.gained.Value,
		CostBasis:    decimal.Zero,
		Gain:         trade.gained.Value,
	}
}

// resolveLargerAcquisition handles the case where the acquiring trade
// (matching) was larger than the current sale: only a fraction r of
// matching is consumed, and its residual is pushed back to the front of
// queue so it can satisfy later sales in ledger order.
func (p *Portfolio) resolveLargerAcquisition(trade, matching sale, queue *saleQueue, finalSales *saleQueue, denomination Symbol, description string) []Realization {
	var out []Realization

	r := trade.offered.Value.Div(matching.gained.Value)
	proceeds := trade.gained.Value
	costBasis := matching.offered.Value.Mul(r)
	gain := proceeds.Sub(costBasis)

	if matching.offered.Symbol == denomination {
		acquired := matching.when
		out = append(out, Realization{
			Amount:       trade.originalOffered.Value,
			Symbol:       trade.originalOffered.Symbol,
			Description:  description,
			AcquiredWhen: &acquired,
			DisposedWhen: trade.when,
			Proceeds:     proceeds,
			CostBasis:    costBasis,
			Gain:         gain,
		})
	} else {
		finalSales.pushFront(sale{
			when:            trade.when,
			originalOffered: trade.originalOffered,
			offered:         NewAmount(matching.offered.Value, matching.offered.Symbol),
			gained:          NewAmount(proceeds, matching.gained.Symbol),
		})
	}

	remainderGained := matching.gained.Value.Sub(trade.offered.Value)
	remainderOffered := matching.offered.Value.Sub(matching.offered.Value.Mul(r))
	queue.pushFront(sale{
		when:            matching.when,
		originalOffered: matching.originalOffered,
		offered:         NewAmount(remainderOffered, matching.offered.Symbol),
		gained:          NewAmount(remainderGained, matching.gained.Symbol),
	})

	return out
}

// resolveLargerOrEqualSale handles the case where the current sale was at
// least as large as the acquiring trade: matching is fully consumed, and
// any unsatisfied remainder of the current sale is pushed back to the
// front of final_sales to be matched again one level further back.
func (p *Portfolio) resolveLargerOrEqualSale(trade, matching sale, finalSales *saleQueue, denomination Symbol, description string) []Realization {
	var out []Realization

	r := matching.gained.Value.Div(trade.offered.Value)
	proceeds := trade.gained.Value.Mul(r)
	costBasis := matching.offered.Value
	gain := proceeds.Sub(costBasis)

	if matching.offered.Symbol == denomination {
		acquired := matching.when
		out = append(out, Realization{
			Amount:       trade.originalOffered.Value.Mul(r),
			Symbol:       trade.originalOffered.Symbol,
			Description:  description,
			AcquiredWhen: &acquired,
			DisposedWhen: trade.when,
			Proceeds:     proceeds,
			CostBasis:    costBasis,
			Gain:         gain,
		})
	} else {
		finalSales.pushFront(sale{
			when:            trade.when,
			originalOffered: NewAmount(trade.originalOffered.Value.Mul(r), trade.originalOffered.Symbol),
			offered:         matching.offered,
			gained:          NewAmount(proceeds, matching.gained.Symbol),
		})
	}

	remainderGained := trade.gained.Value.Sub(proceeds)
	if !remainderGained.IsZero() {
		remainderOffered := trade.offered.Value.Sub(trade.offered.Value.Mul(r))
		remainderOriginalOffered := trade.originalOffered.Value.Mul(decimal.NewFromInt(1).Sub(r))
		finalSales.pushFront(sale{
			when:            trade.when,
			originalOffered: NewAmount(remainderOriginalOffered, trade.originalOffered.Symbol),
			offered:         NewAmount(remainderOffered, trade.offered.Symbol),
			gained:          NewAmount(remainderGained, trade.gained.Symbol),
		})
	}

	return out
}
