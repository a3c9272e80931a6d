// Package collate fetches every configured provider's transaction history
// concurrently and merges the per-provider streams into one chronologically
// ordered canonical CSV, the hand-off point between export and report.
package collate

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mkocic/taxledger/ledger"
	"github.com/mkocic/taxledger/parser"
	"github.com/mkocic/taxledger/providers"
)

// Collate fetches every provider's transaction history concurrently,
// appends the inline transactions, and returns one slice merged into
// chronological order. A provider failure is logged and its stream
// dropped rather than aborting the run, matching the non-fatal
// provider-failure policy; a stream that comes back empty is not itself
// an error.
func Collate(ctx context.Context, inline []ledger.Transaction, sources []providers.Provider) ([]ledger.Transaction, error) {
	streams := make([][]ledger.Transaction, len(sources))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, source := range sources {
		i, source := i, source
		group.Go(func() error {
			txs, err := source.Transactions(groupCtx)
			if err != nil {
				var failure *providers.FailureError
				if errors.As(err, &failure) {
					log.WithError(failure.Cause).WithField("provider", failure.Provider).
						Warn("provider failed, skipping its transactions")
					return nil
				}
				return err
			}
			streams[i] = txs
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := make([]ledger.Transaction, 0, len(inline))
	merged = append(merged, inline...)
	for _, stream := range streams {
		merged = append(merged, stream...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Before(merged[j])
	})

	return merged, nil
}

// WriteCanonicalCSV writes transactions to w in the fixed canonical header
// order the report phase expects to read back.
func WriteCanonicalCSV(w io.Writer, transactions []ledger.Transaction) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(parser.CanonicalHeader); err != nil {
		return err
	}

	for _, tx := range transactions {
		createdAt := ""
		if tx.CreatedAt != nil {
			createdAt = tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
		}

		record := []string{
			tx.ID,
			tx.Market,
			tx.Token,
			ledger.FormatAmount(tx.Amount),
			ledger.FormatAmount(tx.Rate),
			ledger.FormatUSDAmount(tx.DenominationRate),
			ledger.FormatUSDAmount(tx.DenominationAmount),
			createdAt,
			tx.Provider,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}
