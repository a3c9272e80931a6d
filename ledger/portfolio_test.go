package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func usd(amount string) Amount  { return NewAmount(d(amount), USD) }
func btc(amount string) Amount  { return NewAmount(d(amount), BTC) }
func eth(amount string) Amount  { return NewAmount(d(amount), ETH) }
func usdt(amount string) Amount { return NewAmount(d(amount), USDT) }

func TestOrganizeTrades(t *testing.T) {
	trades := []Trade{
		{When: date(2020, 1, 3), Offered: usd("300"), Gained: btc("1")},
		{When: date(2020, 1, 2), Offered: btc("1"), Gained: usd("57000")},
	}

	rest, toUSD := organizeTrades(trades, USD)

	assert.Len(t, rest, 1)
	q := rest[BTC]
	assert.NotNil(t, q)
	assert.Len(t, *q, 1)
	assert.Equal(t, date(2020, 1, 3), (*q)[0].when)

	assert.Len(t, toUSD, 1)
	assert.Equal(t, date(2020, 1, 2), toUSD[0].when)
}

func TestOneToOneProfit(t *testing.T) {
	p := NewPortfolio()
	p.AddTrade(Trade{When: date(2017, 1, 1), Offered: usd("1000"), Gained: btc("1")})
	p.AddTrade(Trade{When: date(2020, 1, 1), Offered: btc("1"), Gained: usd("2000")})

	realizations := p.Realizations(USD)
	assert.Len(t, realizations, 1)
	r := realizations[0]
	assert.Equal(t, "BTC sold via BTC-USD pair", r.Description)
	assert.Equal(t, date(2017, 1, 1), *r.AcquiredWhen)
	assert.Equal(t, date(2020, 1, 1), r.DisposedWhen)
	assert.True(t, d("2000").Equal(r.Proceeds))
	assert.True(t, d("1000").Equal(r.CostBasis))
	assert.True(t, d("1000").Equal(r.Gain))
}

func TestOneToOneLoss(t *testing.T) {
	p := NewPortfolio()
	p.AddTrade(Trade{When: date(2017, 1, 1), Offered: usd("1000"), Gained: btc("1")})
	p.AddTrade(Trade{When: date(2020, 1, 1), Offered: btc("1"), Gained: usd("500")})

	r := p.Realizations(USD)[0]
	assert.True(t, d("500").Equal(r.Proceeds))
	assert.True(t, d("1000").Equal(r.CostBasis))
	assert.True(t, d("-500").Equal(r.Gain))
}

func TestPartialSale(t *testing.T) {
	p := NewPortfolio()
	p.AddTrade(Trade{When: date(2017, 1, 1), Offered: usd("1000"), Gained: btc("1")})
	p.AddTrade(Trade{When: date(2020, 1, 1), Offered: btc("0.5"), Gained: usd("600")})

	realizations := p.Realizations(USD)
	assert.Len(t, realizations, 1)
	r := realizations[0]
	assert.True(t, d("0.5").Equal(r.Amount))
	assert.True(t, d("600").Equal(r.Proceeds))
	assert.True(t, d("500").Equal(r.CostBasis))
	assert.True(t, d("100").Equal(r.Gain))
}

func TestUncoveredSale(t *testing.T) {
	p := NewPortfolio()
	p.AddTrade(Trade{When: date(2017, 1, 1), Offered: usd("1000"), Gained: btc("1")})
	p.AddTrade(Trade{When: date(2020, 1, 1), Offered: btc("2"), Gained: usd("4000")})

	realizations := p.Realizations(USD)
	assert.Len(t, realizations, 2)

	first := realizations[0]
	assert.True(t, d("1").Equal(first.Amount))
	assert.True(t, d("1000").Equal(first.CostBasis))
	assert.True(t, d("2000").Equal(first.Proceeds))
	assert.True(t, d("1000").Equal(first.Gain))
	assert.Equal(t, date(2017, 1, 1), *first.AcquiredWhen)

	second := realizations[1]
	assert.True(t, d("1").Equal(second.Amount))
	assert.True(t, decimal.Zero.Equal(second.CostBasis))
	assert.True(t, d("2000").Equal(second.Proceeds))
	assert.True(t, d("2000").Equal(second.Gain))
	assert.Nil(t, second.AcquiredWhen)
}

func TestMultiHopChain(t *testing.T) {
	p := NewPortfolio()
	p.AddTrade(Trade{When: date(2016, 1, 1), Offered: usd("100"), Gained: usdt("25")})
	p.AddTrade(Trade{When: date(2016, 1, 2), Offered: usd("100"), Gained: usdt("25")})
	p.AddTrade(Trade{When: date(2017, 1, 1), Offered: usd("100"), Gained: usdt("25")})
	p.AddTrade(Trade{When: date(2018, 1, 1), Offered: usdt("40"), Gained: eth("2")})
	p.AddTrade(Trade{When: date(2019, 1, 1), Offered: eth("2"), Gained: btc("0.1")})
	p.AddTrade(Trade{When: date(2020, 1, 2), Offered: btc("0.1"), Gained: usd("4000")})

	realizations := p.Realizations(USD)
	assert.Len(t, realizations, 2)

	first := realizations[0]
	assert.True(t, d("0.0625").Equal(first.Amount))
	assert.True(t, d("100").Equal(first.CostBasis))
	assert.True(t, d("2500").Equal(first.Proceeds))
	assert.Equal(t, date(2016, 1, 1), *first.AcquiredWhen)

	second := realizations[1]
	assert.True(t, d("0.0625").Equal(second.Amount))
	assert.True(t, d("60").Equal(second.CostBasis))
	assert.True(t, d("1500").Equal(second.Proceeds))
	assert.Equal(t, date(2016, 1, 2), *second.AcquiredWhen)
}

func TestExchangeThenLiquidation(t *testing.T) {
	p := NewPortfolio()
	p.AddTrade(Trade{When: date(2017, 1, 1), Offered: usd("1000"), Gained: btc("2")})
	p.AddTrade(Trade{When: date(2018, 1, 1), Offered: btc("1"), Gained: usdt("2000")})
	p.AddTrade(Trade{When: date(2020, 1, 1), Offered: usdt("1000"), Gained: usd("2000")})

	realizations := p.Realizations(USD)
	assert.Len(t, realizations, 1)
	r := realizations[0]
	assert.True(t, d("1000").Equal(r.Amount))
	assert.True(t, d("500").Equal(r.CostBasis))
	assert.True(t, d("2000").Equal(r.Proceeds))
	assert.True(t, d("1500").Equal(r.Gain))
}

func TestRealizationInvariantGainEqualsProceedsMinusCostBasis(t *testing.T) {
	p := NewPortfolio()
	p.AddTrade(Trade{When: date(2016, 1, 1), Offered: usd("1"), Gained: usdt("1")})
	p.AddTrade(Trade{When: date(2016, 1, 2), Offered: usd("1"), Gained: usdt("1")})
	p.AddTrade(Trade{When: date(2016, 1, 3), Offered: usd("1"), Gained: usdt("1")})
	p.AddTrade(Trade{When: date(2020, 1, 1), Offered: usdt("2"), Gained: usd("2")})
	p.AddTrade(Trade{When: date(2020, 1, 2), Offered: usdt("1"), Gained: usd("1")})

	realizations := p.Realizations(USD)
	assert.Len(t, realizations, 3)

	proceedsSum := decimal.Zero
	for _, r := range realizations {
		assert.True(t, r.Gain.Equal(r.Proceeds.Sub(r.CostBasis)))
		proceedsSum = proceedsSum.Add(r.Proceeds)
		if r.AcquiredWhen != nil {
			assert.False(t, r.AcquiredWhen.After(r.DisposedWhen))
		}
	}
	assert.True(t, d("3").Equal(proceedsSum))
}

func TestIgnoresSameSymbolNoOps(t *testing.T) {
	p := NewPortfolio()
	p.AddTrade(Trade{When: date(2020, 1, 1), Offered: usd("5"), Gained: usd("5")})
	assert.Nil(t, p.Wallet(USD))
	assert.Empty(t, p.Realizations(USD))
}
