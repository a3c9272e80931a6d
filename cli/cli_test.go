package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testCanonicalCSV = `ID,Market,Token,Amount,Rate,USD Rate,USD Amount,Created At,Provider
1,BTC-USD,BTC,1,10000,10000,10000,2017-01-01T00:00:00Z,config
2,BTC-USD,BTC,-1,20000,20000,20000,2020-01-01T00:00:00Z,config
`

const testConfig = `
tax_year = 2020
denomination = "USD"
report_format = "IRS1099B"
`

func TestRunReportProducesRows(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(testConfig), 0o644))

	csvPath := filepath.Join(dir, "transactions.csv")
	assert.NoError(t, os.WriteFile(csvPath, []byte(testCanonicalCSV), 0o644))

	outPath := filepath.Join(dir, "report.csv")
	code := Run([]string{"report", "-config", dir, "-o", outPath, csvPath})
	assert.Equal(t, 0, code)

	out, err := os.ReadFile(outPath)
	assert.NoError(t, err)
	assert.Contains(t, string(out), "BTC sold via BTC-USD pair")
}

func TestRunWithUnknownSubcommand(t *testing.T) {
	assert.Equal(t, 1, Run([]string{"bogus"}))
}

func TestRunWithNoArgs(t *testing.T) {
	assert.Equal(t, 1, Run(nil))
}
