package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Realization closes out one fragment of a position: it names the
// originating asset, the amount of it disposed, and the proceeds/cost
// basis/gain in the run's denomination. AcquiredWhen is nil when the
// engine could not trace the fragment back to an acquisition (an
// uncovered sale).
type Realization struct {
	Amount       decimal.Decimal
	Symbol       Symbol
	Description  string
	AcquiredWhen *time.Time
	DisposedWhen time.Time
	Proceeds     decimal.Decimal
	CostBasis    decimal.Decimal
	Gain         decimal.Decimal
}

func describeRealization(originating, denomination Symbol) string {
	return fmt.Sprintf("%s sold via %s-%s pair", originating, originating, denomination)
}

// Format selects the output layout a report is rendered in.
type Format int

const (
	// IRS1099B is the default output: one row per realization plus a
	// trailing Total row, fiat-formatted amounts, MM/DD/YY dates.
	IRS1099B Format = iota
	// TurboTax omits the Total row, uses bare (unprefixed) amounts and
	// MM/DD/YY HH:MM timestamps.
	TurboTax
)

// ParseFormat accepts the report_format config values and the --format
// CLI flag, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "irs", "irs1099b":
		return IRS1099B, nil
	case "turbotax":
		return TurboTax, nil
	default:
		return 0, fmt.Errorf("unrecognized report format %q", s)
	}
}

// WriteReport filters realizations to those disposed in year and writes
// them to w in the chosen format. IRS1099B is the default when format is
// not otherwise determined by the caller.
func WriteReport(w io.Writer, realizations []Realization, year int, format Format) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	switch format {
	case TurboTax:
		return writeTurboTax(writer, realizations, year)
	default:
		return writeIRS1099B(writer, realizations, year)
	}
}

func writeIRS1099B(writer *csv.Writer, realizations []Realization, year int) error {
	if err := writer.Write([]string{
		"Description of property",
		"Date acquired",
		"Date sold",
		"Proceeds",
		"Cost basis",
		"Gain or (loss)",
	}); err != nil {
		return err
	}

	totalProceeds, totalCost, totalGain := decimal.Zero, decimal.Zero, decimal.Zero

	for _, r := range realizations {
		if r.DisposedWhen.Year() != year {
			continue
		}

		totalProceeds = totalProceeds.Add(r.Proceeds)
		totalCost = totalCost.Add(r.CostBasis)
		totalGain = totalGain.Add(r.Gain)

		acquired := ""
		if r.AcquiredWhen != nil {
			acquired = r.AcquiredWhen.Format("01/02/06")
		}

		if err := writer.Write([]string{
			r.Description,
			acquired,
			r.DisposedWhen.Format("01/02/06"),
			FormatUSDAmount(r.Proceeds),
			FormatUSDAmount(r.CostBasis),
			FormatUSDAmount(r.Gain),
		}); err != nil {
			return err
		}
	}

	return writer.Write([]string{
		"Total",
		"",
		"",
		FormatUSDAmount(totalProceeds),
		FormatUSDAmount(totalCost),
		FormatUSDAmount(totalGain),
	})
}

func writeTurboTax(writer *csv.Writer, realizations []Realization, year int) error {
	if err := writer.Write([]string{
		"Amount",
		"Currency Name",
		"Purchase Date",
		"Date Sold",
		"Cost Basis",
		"Proceeds",
	}); err != nil {
		return err
	}

	for _, r := range realizations {
		if r.DisposedWhen.Year() != year {
			continue
		}

		acquired := ""
		if r.AcquiredWhen != nil {
			acquired = r.AcquiredWhen.Format("01/02/06 15:04")
		}

		if err := writer.Write([]string{
			FormatAmount(r.Amount),
			r.Symbol.Code(),
			acquired,
			r.DisposedWhen.Format("01/02/06 15:04"),
			FormatAmount(r.CostBasis),
			FormatAmount(r.Proceeds),
		}); err != nil {
			return err
		}
	}

	return nil
}
