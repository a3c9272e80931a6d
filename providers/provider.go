// Package providers adapts external exchange and chain APIs into
// ledger.Transaction vectors. Every adapter here is an external
// collaborator in the sense of SPEC_FULL.md section 4.6: the realization
// engine never sees a provider, a credential, or an HTTP client directly,
// only the fully materialized []ledger.Transaction each adapter returns.
package providers

import (
	"context"
	"fmt"

	"github.com/mkocic/taxledger/ledger"
)

// Provider fetches a fully materialized transaction history for one
// exchange or chain account. Implementations are asynchronous I/O
// clients; the core accounting never interleaves with them.
type Provider interface {
	// Name identifies the provider in logs and in the canonical CSV's
	// Provider column.
	Name() string
	Transactions(ctx context.Context) ([]ledger.Transaction, error)
}

// FailureError wraps a provider error so the collator's caller can decide
// whether to log-and-skip (ProviderFailure's non-fatal policy) rather than
// abort the whole export.
type FailureError struct {
	Provider string
	Cause    error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Cause)
}

func (e *FailureError) Unwrap() error { return e.Cause }
