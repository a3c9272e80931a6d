// Package parser reads the canonical transaction CSV produced by the
// collator and reconstructs the ledger.Trade values the realization engine
// operates on.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/mkocic/taxledger/ledger"
)

// CanonicalHeader is the fixed header row every canonical transaction CSV
// carries.
var CanonicalHeader = []string{
	"ID", "Market", "Token", "Amount", "Rate", "USD Rate", "USD Amount", "Created At", "Provider",
}

const createdAtLayout = time.RFC3339

// ReadTransactions parses a canonical transaction CSV (header row plus
// ID,Market,Token,Amount,Rate,USD Rate,USD Amount,Created At,Provider rows)
// into ledger.Transaction values. A malformed row aborts the read with an
// InvalidAmountError or InvalidDateError, per the report phase's
// fatal-per-row policy.
func ReadTransactions(r io.Reader) ([]ledger.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(CanonicalHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading canonical CSV header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	var transactions []ledger.Transaction
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading canonical CSV row: %w", err)
		}

		tx, err := parseRow(record)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, nil
}

func validateHeader(header []string) error {
	if len(header) != len(CanonicalHeader) {
		return fmt.Errorf("canonical CSV header has %d columns, expected %d", len(header), len(CanonicalHeader))
	}
	for i, want := range CanonicalHeader {
		if header[i] != want {
			return fmt.Errorf("canonical CSV header column %d is %q, expected %q", i, header[i], want)
		}
	}
	return nil
}

func parseRow(record []string) (ledger.Transaction, error) {
	amount, err := ledger.ParseAmount(record[3])
	if err != nil {
		return ledger.Transaction{}, err
	}
	rate, err := ledger.ParseAmount(record[4])
	if err != nil {
		return ledger.Transaction{}, err
	}
	usdRate, err := ledger.ParseAmount(record[5])
	if err != nil {
		return ledger.Transaction{}, err
	}
	usdAmount, err := ledger.ParseAmount(record[6])
	if err != nil {
		return ledger.Transaction{}, err
	}

	var createdAt *time.Time
	if record[7] != "" {
		t, err := time.Parse(createdAtLayout, record[7])
		if err != nil {
			return ledger.Transaction{}, &ledger.InvalidDateError{Input: record[7], Cause: err}
		}
		createdAt = &t
	}

	return ledger.Transaction{
		ID:                 record[0],
		Market:             record[1],
		Token:              record[2],
		Amount:             amount,
		Rate:               rate,
		DenominationRate:   usdRate,
		DenominationAmount: usdAmount,
		CreatedAt:          createdAt,
		Provider:           record[8],
	}, nil
}

// TradesFromTransactions reconstructs one ledger.Trade per transaction. The
// market string splits into a base and quote symbol; Amount's sign
// determines which side of the pair was bought and which was sold, and
// Rate recovers the peer leg's size (Rate is denominated in the quote
// symbol per unit of the base symbol, mirroring how the collator records
// it).
func TradesFromTransactions(transactions []ledger.Transaction) ([]ledger.Trade, error) {
	trades := make([]ledger.Trade, 0, len(transactions))

	for _, tx := range transactions {
		base, quote, err := ledger.ParseMarket(tx.Market)
		if err != nil {
			return nil, err
		}

		if tx.CreatedAt == nil {
			return nil, fmt.Errorf("transaction %s has no timestamp", tx.ID)
		}

		absAmount := tx.Amount.Abs()
		peer := tx.Rate.Mul(absAmount)

		var trade ledger.Trade
		if tx.Amount.Sign() >= 0 {
			trade = ledger.Trade{
				When:    *tx.CreatedAt,
				Offered: ledger.NewAmount(peer, quote),
				Gained:  ledger.NewAmount(absAmount, base),
			}
		} else {
			trade = ledger.Trade{
				When:    *tx.CreatedAt,
				Offered: ledger.NewAmount(absAmount, base),
				Gained:  ledger.NewAmount(peer, quote),
			}
		}

		trades = append(trades, trade)
	}

	return trades, nil
}
