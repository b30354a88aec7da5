package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmendmentInfo describes how a specific filed version of a fact relates to
// the amendment chain for its period.
//
// Invariants: Amended implies OriginalAccession and AmendmentDate are set;
// AsReported implies not Amended.
type AmendmentInfo struct {
	Accession         string     `json:"accession" validate:"required"`
	Amended           bool       `json:"amended"`
	AsReported        bool       `json:"as_reported"`
	OriginalAccession string     `json:"original_accession,omitempty"`
	AmendmentDate     *time.Time `json:"amendment_date,omitempty"`
	RestatementReason string     `json:"restatement_reason,omitempty"`
}

// FactWithAmendment is a financial fact resolved under amendment control,
// pinned to one exact as-filed version.
type FactWithAmendment struct {
	Value         decimal.Decimal `json:"value"`
	Period        string          `json:"period"`
	Concept       string          `json:"concept"`
	Unit          string          `json:"unit"`
	AmendmentInfo AmendmentInfo   `json:"amendment_info"`
	Citation      Citation        `json:"citation"`
}
