package providers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleExport = `Transactions
User,someone
Name,Someone
Email,someone@example.com
Account,default
Statement period,2020-01-01 - 2020-12-31
Generated,2021-01-01
Timestamp,Transaction Type,Asset,Quantity Transacted,USD Spot Price at Transaction,USD Subtotal,USD Total (inclusive of fees),USD Fees,Notes
2020-01-01T00:00:00Z,Buy,BTC,1.0,10000,10000,10000,0,bought
2020-06-01T00:00:00Z,Sell,BTC,0.5,20000,10000,10000,0,sold
2020-07-01T00:00:00Z,Convert,BTC,0.1,20000,2000,2000,0,ignored
`

func TestCoinbaseCSVProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")
	assert.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o644))

	p := NewCoinbaseCSVProvider(path)
	txs, err := p.Transactions(context.Background())
	assert.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.True(t, txs[0].Amount.IsPositive())
	assert.True(t, txs[1].Amount.IsNegative())
}
