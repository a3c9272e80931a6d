package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"0", "0"},
		{"0.0", "0.0"},
		{"1.1", "1.1"},
		{"(1.0)", "-1.0"},
		{"$1.0", "1.0"},
		{"($3.1427)", "-3.1427"},
	}

	for _, c := range cases {
		got, err := ParseAmount(c.input)
		assert.NoError(t, err)
		want, _ := decimal.NewFromString(c.want)
		assert.True(t, want.Equal(got), "parsing %q: got %s want %s", c.input, got, want)
	}
}

func TestParseAmountInvalid(t *testing.T) {
	_, err := ParseAmount("")
	assert.Error(t, err)
	var invalid *InvalidAmountError
	assert.ErrorAs(t, err, &invalid)
}

func TestFormatAmountParenthesizesNegatives(t *testing.T) {
	assert.Equal(t, "1234.5678", FormatAmount(decimal.RequireFromString("1234.5678")))
	assert.Equal(t, "(1234.5678)", FormatAmount(decimal.RequireFromString("-1234.5678")))
	assert.Equal(t, "$1234.5678", FormatUSDAmount(decimal.RequireFromString("1234.5678")))
	assert.Equal(t, "($1234.5678)", FormatUSDAmount(decimal.RequireFromString("-1234.5678")))
}

func TestAmountFormatRoundTrip(t *testing.T) {
	values := []string{"0", "1", "-1", "1234.5678", "-987654.321", "0.00000001"}
	for _, v := range values {
		d := decimal.RequireFromString(v)

		roundTripped, err := ParseAmount(FormatAmount(d))
		assert.NoError(t, err)
		assert.True(t, d.Equal(roundTripped), "FormatAmount round trip for %s", v)

		roundTrippedUSD, err := ParseAmount(FormatUSDAmount(d))
		assert.NoError(t, err)
		assert.True(t, d.Equal(roundTrippedUSD), "FormatUSDAmount round trip for %s", v)
	}
}
