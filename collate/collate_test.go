package collate

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mkocic/taxledger/ledger"
	"github.com/mkocic/taxledger/providers"
)

type fakeProvider struct {
	name string
	txs  []ledger.Transaction
	err  error
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Transactions(ctx context.Context) ([]ledger.Transaction, error) {
	return f.txs, f.err
}

func at(t *testing.T, when string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, when)
	assert.NoError(t, err)
	return &parsed
}

func TestCollateMergesChronologically(t *testing.T) {
	a := &fakeProvider{name: "a", txs: []ledger.Transaction{
		{ID: "a1", CreatedAt: at(t, "2020-03-01T00:00:00Z")},
	}}
	b := &fakeProvider{name: "b", txs: []ledger.Transaction{
		{ID: "b1", CreatedAt: at(t, "2020-01-01T00:00:00Z")},
		{ID: "b2", CreatedAt: at(t, "2020-05-01T00:00:00Z")},
	}}

	merged, err := Collate(context.Background(), nil, []providers.Provider{a, b})
	assert.NoError(t, err)
	assert.Len(t, merged, 3)
	assert.Equal(t, "b1", merged[0].ID)
	assert.Equal(t, "a1", merged[1].ID)
	assert.Equal(t, "b2", merged[2].ID)
}

func TestCollateSkipsFailedProvider(t *testing.T) {
	ok := &fakeProvider{name: "ok", txs: []ledger.Transaction{
		{ID: "ok1", CreatedAt: at(t, "2020-01-01T00:00:00Z")},
	}}
	bad := &fakeProvider{name: "bad", err: &providers.FailureError{Provider: "bad", Cause: errors.New("boom")}}

	merged, err := Collate(context.Background(), nil, []providers.Provider{ok, bad})
	assert.NoError(t, err)
	assert.Len(t, merged, 1)
	assert.Equal(t, "ok1", merged[0].ID)
}

func TestWriteCanonicalCSV(t *testing.T) {
	txs := []ledger.Transaction{
		{
			ID: "1", Market: "BTC-USD", Token: "BTC",
			Amount: decimal.RequireFromString("1"), Rate: decimal.RequireFromString("10000"),
			DenominationRate: decimal.RequireFromString("10000"), DenominationAmount: decimal.RequireFromString("10000"),
			CreatedAt: at(t, "2020-01-01T00:00:00Z"), Provider: "coinbase",
		},
	}

	var buf bytes.Buffer
	assert.NoError(t, WriteCanonicalCSV(&buf, txs))
	out := buf.String()
	assert.Contains(t, out, "ID,Market,Token,Amount,Rate,USD Rate,USD Amount,Created At,Provider")
	assert.Contains(t, out, "1,BTC-USD,BTC,1,10000,$10000,$10000,2020-01-01T00:00:00Z,coinbase")
}
