package ledger

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Multi-hop realization chains divide a fraction of a fraction of a
	// fraction; the default 16-digit division precision is not enough
	// headroom to keep gain == proceeds - cost_basis exact to the cent
	// after three or four hops. shopspring/decimal is arbitrary-precision
	// base-10, never binary float, which is what the engine needs here.
	decimal.DivisionPrecision = 32
}

var parenthesized = regexp.MustCompile(`\A\((.*)\)\z`)

// ParseAmount parses a decimal that may carry a leading "$" and may be
// parenthesized to indicate a negative value, e.g. "($3.14)" -> -3.14.
func ParseAmount(input string) (decimal.Decimal, error) {
	input = strings.TrimSpace(input)
	if m := parenthesized.FindStringSubmatch(input); m != nil {
		body := strings.TrimPrefix(m[1], "$")
		d, err := decimal.NewFromString(body)
		if err != nil {
			return decimal.Decimal{}, &InvalidAmountError{Input: input, Cause: err}
		}
		return d.Neg(), nil
	}

	body := strings.TrimPrefix(input, "$")
	d, err := decimal.NewFromString(body)
	if err != nil {
		return decimal.Decimal{}, &InvalidAmountError{Input: input, Cause: err}
	}
	return d, nil
}

// FormatAmount renders a bare decimal, parenthesizing negatives: "1234.5678"
// or "(1234.5678)". It preserves full precision so that
// ParseAmount(FormatAmount(x)) == x for every finite x.
func FormatAmount(d decimal.Decimal) string {
	if d.Sign() < 0 {
		return "(" + d.Neg().String() + ")"
	}
	return d.String()
}

// FormatUSDAmount renders a fiat-prefixed decimal: "$1234.5678" or
// "($1234.5678)" for negatives.
func FormatUSDAmount(d decimal.Decimal) string {
	if d.Sign() < 0 {
		return "($" + d.Neg().String() + ")"
	}
	return "$" + d.String()
}
