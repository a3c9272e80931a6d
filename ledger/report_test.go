package ledger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteReportIRS1099B(t *testing.T) {
	acquired := date(2017, 1, 1)
	realizations := []Realization{
		{
			Amount:       d("1"),
			Symbol:       BTC,
			Description:  "BTC sold via BTC-USD pair",
			AcquiredWhen: &acquired,
			DisposedWhen: date(2020, 1, 1),
			Proceeds:     d("2000"),
			CostBasis:    d("1000"),
			Gain:         d("1000"),
		},
	}

	var buf bytes.Buffer
	assert.NoError(t, WriteReport(&buf, realizations, 2020, IRS1099B))

	out := buf.String()
	assert.Contains(t, out, "Description of property,Date acquired,Date sold,Proceeds,Cost basis,Gain or (loss)")
	assert.Contains(t, out, "BTC sold via BTC-USD pair,01/01/17,01/01/20,$2000,$1000,$1000")
	assert.Contains(t, out, "Total,,,$2000,$1000,$1000")
}

func TestWriteReportTurboTaxOmitsTotal(t *testing.T) {
	acquired := date(2017, 1, 1)
	realizations := []Realization{
		{
			Amount:       d("1"),
			Symbol:       BTC,
			Description:  "BTC sold via BTC-USD pair",
			AcquiredWhen: &acquired,
			DisposedWhen: date(2020, 1, 1),
			Proceeds:     d("2000"),
			CostBasis:    d("1000"),
			Gain:         d("1000"),
		},
	}

	var buf bytes.Buffer
	assert.NoError(t, WriteReport(&buf, realizations, 2020, TurboTax))

	out := buf.String()
	assert.Contains(t, out, "Amount,Currency Name,Purchase Date,Date Sold,Cost Basis,Proceeds")
	assert.NotContains(t, out, "Total")
}

func TestWriteReportFiltersByYear(t *testing.T) {
	realizations := []Realization{
		{DisposedWhen: date(2019, 1, 1), Proceeds: d("1"), CostBasis: d("1"), Gain: d("0"), Symbol: BTC, Description: "x"},
		{DisposedWhen: date(2020, 1, 1), Proceeds: d("2"), CostBasis: d("1"), Gain: d("1"), Symbol: BTC, Description: "y"},
	}

	var buf bytes.Buffer
	assert.NoError(t, WriteReport(&buf, realizations, 2020, IRS1099B))

	out := buf.String()
	assert.NotContains(t, out, "x,")
	assert.Contains(t, out, "y,")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	assert.NoError(t, err)
	assert.Equal(t, IRS1099B, f)

	f, err = ParseFormat("TurboTax")
	assert.NoError(t, err)
	assert.Equal(t, TurboTax, f)

	_, err = ParseFormat("schedule-d")
	assert.Error(t, err)
}
