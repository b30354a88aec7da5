package domain

import (
	"time"
)

// Operator is the comparison a numeric claim makes against its series
type Operator string

const (
	OpEqual        Operator = "="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpChange       Operator = "change"
	OpYoY          Operator = "yoy"
	OpQoQ          Operator = "qoq"
)

// NumericClaim is a single numeric assertion extracted from generated text,
// to be verified against time-series evidence before it reaches a user.
type NumericClaim struct {
	ID       string     `json:"id"`
	Metric   string     `json:"metric" validate:"required"`
	Operator Operator   `json:"operator" validate:"required"`
	Value    float64    `json:"value"`
	At       *time.Time `json:"at,omitempty"`
	// Window is accepted for change claims but does not select a comparison
	// distance; the diff is always against the immediately preceding sample.
	Window *int `json:"window,omitempty"`
}

// Evidence is the verification outcome for one claim. An unsupported claim is
// ordinary business traffic, not an error: the reason lives in Details under
// the "reason" key.
type Evidence struct {
	ClaimID      string         `json:"claim_id"`
	Supported    bool           `json:"supported"`
	SourceSeries string         `json:"source_series,omitempty"`
	Details      map[string]any `json:"details"`
}

// Reason returns the machine-readable failure reason, if any
func (e Evidence) Reason() string {
	r, _ := e.Details["reason"].(string)
	return r
}
