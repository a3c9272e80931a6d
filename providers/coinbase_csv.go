package providers

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/mkocic/taxledger/ledger"
)

var coinbaseCSVHeaders = [9]string{
	"Timestamp", "Transaction Type", "Asset", "Quantity Transacted",
	"USD Spot Price at Transaction", "USD Subtotal", "USD Total (inclusive of fees)",
	"USD Fees", "Notes",
}

// coinbaseCSVBuyTypes and coinbaseCSVSellTypes classify Coinbase's export
// transaction types into a signed Amount direction; every other type (a
// transfer, a reward, a conversion leg) is skipped rather than guessed at.
var coinbaseCSVBuyTypes = map[string]bool{"Buy": true, "Receive": true}
var coinbaseCSVSellTypes = map[string]bool{"Sell": true, "Send": true}

// CoinbaseCSVProvider reads a transaction history file exported from
// Coinbase's web UI for a standard (non-Pro) account. It supplements the
// REST adapter for users who import a downloaded statement instead of, or
// alongside, live API credentials.
type CoinbaseCSVProvider struct {
	path string
}

// NewCoinbaseCSVProvider builds a CoinbaseCSVProvider reading the export at path.
func NewCoinbaseCSVProvider(path string) *CoinbaseCSVProvider {
	return &CoinbaseCSVProvider{path: path}
}

// Name implements Provider.
func (p *CoinbaseCSVProvider) Name() string { return "coinbase-csv" }

// Transactions implements Provider. Coinbase's exported file carries seven
// lines of preamble before the header row, which this reader skips before
// handing the rest to encoding/csv.
func (p *CoinbaseCSVProvider) Transactions(ctx context.Context) ([]ledger.Transaction, error) {
	file, err := os.Open(p.path)
	if err != nil {
		return nil, &FailureError{Provider: p.Name(), Cause: err}
	}
	defer file.Close()

	skipper := bufio.NewReader(file)
	newlines := 0
	for newlines < 7 {
		r, _, err := skipper.ReadRune()
		if err != nil {
			return nil, &FailureError{Provider: p.Name(), Cause: err}
		}
		if r == '\n' {
			newlines++
		}
	}

	reader := csv.NewReader(skipper)
	var out []ledger.Transaction
	headerSeen := false

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FailureError{Provider: p.Name(), Cause: err}
		}

		if !headerSeen {
			for i := range coinbaseCSVHeaders {
				if strings.TrimSpace(record[i]) != coinbaseCSVHeaders[i] {
					return nil, &FailureError{Provider: p.Name(), Cause: fmt.Errorf(
						"invalid header in column %d: found %q, expected %q", i+1, record[i], coinbaseCSVHeaders[i])}
				}
			}
			headerSeen = true
			continue
		}

		tx, ok, err := p.parseRow(record)
		if err != nil {
			log.WithError(err).WithField("row", record).Warn("coinbase-csv: skipping unparseable row")
			continue
		}
		if ok {
			out = append(out, tx)
		}
	}

	return out, nil
}

func (p *CoinbaseCSVProvider) parseRow(record []string) (ledger.Transaction, bool, error) {
	txType := record[1]
	var sign int64
	switch {
	case coinbaseCSVBuyTypes[txType]:
		sign = 1
	case coinbaseCSVSellTypes[txType]:
		sign = -1
	default:
		return ledger.Transaction{}, false, nil
	}

	when, err := time.Parse("2006-01-02T15:04:05Z", record[0])
	if err != nil {
		return ledger.Transaction{}, false, &ledger.InvalidDateError{Input: record[0], Cause: err}
	}

	quantity, err := ledger.ParseAmount(record[3])
	if err != nil {
		return ledger.Transaction{}, false, err
	}
	spot, err := ledger.ParseAmount(record[4])
	if err != nil {
		return ledger.Transaction{}, false, err
	}

	asset := record[2]
	amount := quantity.Mul(decimal.NewFromInt(sign))
	usdAmount := quantity.Mul(spot)

	return ledger.Transaction{
		ID:                 fmt.Sprintf("%s-%s-%s", asset, record[0], txType),
		Market:             asset + "-USD",
		Token:              asset,
		Amount:             amount,
		Rate:               spot,
		DenominationRate:   spot,
		DenominationAmount: usdAmount,
		CreatedAt:          &when,
		Provider:           p.Name(),
	}, true, nil
}
