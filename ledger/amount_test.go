package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountString(t *testing.T) {
	assert.Equal(t, "$100", usd("100").String())
	assert.Equal(t, "1 BTC", btc("1").String())
}

func TestAmountMulAndSub(t *testing.T) {
	a := btc("10")
	half := a.Mul(d("0.5"))
	assert.True(t, d("5").Equal(half.Value))
	assert.Equal(t, BTC, half.Symbol)

	diff := a.Sub(btc("3"))
	assert.True(t, d("7").Equal(diff.Value))
}
