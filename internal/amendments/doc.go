// Package amendments resolves which filed version of a financial fact is
// authoritative for a request.
//
// A reported figure can be superseded by a later amendment or restatement for
// the same period. Callers choose between three resolution modes: pin an
// exact accession for reproducibility, ask for the figure as originally
// reported, or take the latest version including amendments. The package also
// exposes the full amendment chain so auditors can see every filed version.
package amendments
