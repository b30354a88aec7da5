package amendments

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// FilingVersion is one filed version of a fact for a reporting period, as
// reported by the upstream filing source.
type FilingVersion struct {
	Accession string          `json:"accession"`
	Form      string          `json:"form"`
	Filed     time.Time       `json:"filed"`
	CIK       string          `json:"cik"`
	Value     decimal.Decimal `json:"value"`
	Unit      string          `json:"unit"`
	// Amends is the accession of the filing this version supersedes, when
	// the filing discloses one
	Amends string `json:"amends,omitempty"`
	// Reason is the disclosed restatement reason, when present
	Reason string `json:"reason,omitempty"`
}

// VersionSource lists the filed versions of a fact. Implementations own the
// network side, including retry and timeout; the controller treats a failure
// as "no data".
type VersionSource interface {
	ListVersions(ctx context.Context, ticker, concept, period string) ([]FilingVersion, error)
}
