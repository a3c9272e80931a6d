package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleCSV = `ID,Market,Token,Amount,Rate,USD Rate,USD Amount,Created At,Provider
1,BTC-USD,BTC,1,10000,10000,10000,2020-01-01T00:00:00Z,coinbase
2,BTC-USD,BTC,-1,20000,20000,20000,2020-06-01T00:00:00Z,coinbase
`

func TestReadTransactions(t *testing.T) {
	txs, err := ReadTransactions(strings.NewReader(sampleCSV))
	assert.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, "1", txs[0].ID)
	assert.Equal(t, "BTC-USD", txs[0].Market)
	assert.True(t, txs[0].Amount.IsPositive())
	assert.True(t, txs[1].Amount.IsNegative())
}

func TestReadTransactionsRejectsBadHeader(t *testing.T) {
	_, err := ReadTransactions(strings.NewReader("Nope\n1\n"))
	assert.Error(t, err)
}

func TestTradesFromTransactions(t *testing.T) {
	txs, err := ReadTransactions(strings.NewReader(sampleCSV))
	assert.NoError(t, err)

	trades, err := TradesFromTransactions(txs)
	assert.NoError(t, err)
	assert.Len(t, trades, 2)

	assert.Equal(t, "USD", trades[0].Offered.Symbol.Code())
	assert.Equal(t, "BTC", trades[0].Gained.Symbol.Code())

	assert.Equal(t, "BTC", trades[1].Offered.Symbol.Code())
	assert.Equal(t, "USD", trades[1].Gained.Symbol.Code())
}
