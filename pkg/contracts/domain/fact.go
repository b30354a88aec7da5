package domain

import (
	"github.com/shopspring/decimal"
)

// PeriodType distinguishes point-in-time facts from duration facts
type PeriodType string

const (
	// PeriodInstant is a balance-sheet style point-in-time fact
	PeriodInstant PeriodType = "instant"
	// PeriodDuration is an income-statement style duration fact
	PeriodDuration PeriodType = "duration"
)

// Fact represents a single raw financial fact extracted from a regulatory
// filing. Facts are immutable once constructed; the core never mutates them.
type Fact struct {
	Concept      string            `json:"concept" validate:"required"`
	Value        decimal.Decimal   `json:"value"`
	Unit         string            `json:"unit"`
	Period       string            `json:"period"`
	PeriodType   PeriodType        `json:"period_type,omitempty"`
	Accession    string            `json:"accession,omitempty"`
	CIK          string            `json:"cik,omitempty"`
	Filed        string            `json:"filed,omitempty"`
	Form         string            `json:"form,omitempty"`
	Dimensions   map[string]string `json:"dimensions,omitempty"`
	QualityFlags []string          `json:"quality_flags,omitempty"`
}

// ScalingApplied records the scale algebra used during normalization so the
// transformation can be reproduced from the citation alone.
type ScalingApplied struct {
	SourceScale  string  `json:"source_scale"`
	SourceFactor float64 `json:"source_factor"`
	TargetScale  string  `json:"target_scale"`
	TargetFactor float64 `json:"target_factor"`
}

// FXConversion records a currency conversion applied during normalization.
// Absent when no conversion happened or when the FX collaborator failed.
type FXConversion struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Rate         decimal.Decimal `json:"rate"`
	AsOf         string          `json:"asof"`
}

// NormalizedFact is the full audit trail of a unit/scale/currency
// normalization. If NormalizationError is set, NormalizedValue falls back to
// the original value; a failed normalization is never silently dropped.
type NormalizedFact struct {
	OriginalValue      decimal.Decimal `json:"original_value"`
	OriginalUnit       string          `json:"original_unit"`
	NormalizedValue    decimal.Decimal `json:"normalized_value"`
	TargetUnit         string          `json:"target_unit"`
	ScalingApplied     ScalingApplied  `json:"scaling_applied"`
	FXConversion       *FXConversion   `json:"fx_conversion,omitempty"`
	NormalizationError string          `json:"normalization_error,omitempty"`
}

// Citation is the reproducibility contract carried by every fact-bearing
// response. Auditors use it to re-derive the number from the as-filed source.
type Citation struct {
	Source     string        `json:"source"`
	Accession  string        `json:"accession"`
	URL        string        `json:"url"`
	Concept    string        `json:"concept"`
	Unit       string        `json:"unit"`
	Scale      string        `json:"scale"`
	FXUsed     *FXConversion `json:"fx_used,omitempty"`
	Amended    bool          `json:"amended"`
	AsReported bool          `json:"as_reported"`
	Filed      string        `json:"filed,omitempty"`
	Form       string        `json:"form,omitempty"`
}

// StoredFact is a normalized fact composed with its citation, as returned by
// the facts store to synthesis callers.
type StoredFact struct {
	Ticker        string          `json:"ticker"`
	Metric        string          `json:"metric"`
	Value         decimal.Decimal `json:"value"`
	Unit          string          `json:"unit"`
	Period        string          `json:"period"`
	Citation      Citation        `json:"citation"`
	Raw           Fact            `json:"raw_data"`
	Normalization NormalizedFact  `json:"normalization"`
}
