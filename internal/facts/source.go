package facts

import (
	"context"

	"finsight/pkg/contracts/domain"
)

// Source fetches raw filing facts from the upstream filing store.
// Implementations own the network side including retry and timeout; the
// store treats any failure as "no data" and never retries internally.
type Source interface {
	// FetchFact returns the raw fact for one taxonomy concept, or nil when
	// the filer never reported it
	FetchFact(ctx context.Context, ticker, concept, period string, freq domain.Frequency) (*domain.Fact, error)

	// FetchSeries returns the raw fact history for one concept, newest
	// constraints applied upstream
	FetchSeries(ctx context.Context, ticker, concept string, freq domain.Frequency, limit int) ([]domain.Fact, error)
}
