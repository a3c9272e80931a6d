package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkocic/taxledger/ledger"
)

const sampleConfig = `
tax_year = 2020
denomination = "USD"
report_format = "TurboTax"

exchanges = [
    { Coinbase = { key = "coinbase-key", secret = "coinbase-secret" } },
    { CoinbasePro = { key = "pro-key", secret = "pro-secret", passphrase = "pro-pass" } },
]

[[transactions]]
id = "0x1"
market = "BTC-USD"
token = "BTC"
amount = "1"
rate = "10000"
usd_rate = "10000"
usd_amount = "10000"
created_at = "2020-01-01"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, sampleConfig)

	cfg, err := Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, 2020, cfg.TaxYear)
	assert.Equal(t, "USD", cfg.Denomination.Code())
	assert.Equal(t, ledger.TurboTax, cfg.ReportFormat)

	assert.Len(t, cfg.Exchanges, 2)
	assert.NotNil(t, cfg.Exchanges[0].Coinbase)
	assert.Equal(t, "coinbase-key", cfg.Exchanges[0].Coinbase.Key)
	assert.NotNil(t, cfg.Exchanges[1].CoinbasePro)
	assert.Equal(t, "pro-pass", cfg.Exchanges[1].CoinbasePro.Passphrase)

	assert.Len(t, cfg.Transactions, 1)
	assert.Equal(t, "0x1", cfg.Transactions[0].ID)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
