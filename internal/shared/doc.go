// Package shared holds cross-cutting helpers that belong to no single
// domain package.
//
// The testutil subpackage provides a buffering slog handler so tests can
// assert on log output, for example that a failed FX conversion or an
// unavailable filing source was logged at the expected level.
package shared
