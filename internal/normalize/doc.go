// Package normalize converts raw filing facts to a canonical currency and
// scale while preserving a reproducible audit trail.
//
// A unit string like "EUR-M" is parsed into (currency, scale), the raw value
// is multiplied by the source scale factor, converted through the external FX
// collaborator when the currency differs from the target, and divided by the
// target scale factor. The FX step is allowed to fail: the scaled,
// unconverted value is kept and the conversion metadata is omitted so
// citations never carry a wrong currency label.
//
// Arithmetic uses shopspring/decimal so scale shifts are exact. The currency
// vocabulary combines a symbol/alias table with the go-money ISO registry.
package normalize
