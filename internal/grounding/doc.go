// Package grounding verifies numeric claims made in generated text against
// time-series evidence before the text is allowed to reach a user.
//
// Each claim names a metric, a comparison operator, and a value; the verifier
// snaps the claim's anchor date onto the series, applies operator-specific
// tolerance rules (absolute 1e-9 for value comparisons, five basis points for
// year-over-year and quarter-over-quarter percentages), and returns Evidence
// with a diagnostic detail map. Unsupported claims are ordinary results, not
// errors: most generated claims verify, some do not, and both outcomes are
// normal business traffic.
package grounding
