// Package unitguard classifies reported unit strings and rejects arithmetic
// that mixes monetary and non-monetary operands.
//
// Classification follows an explicit ordered rule list — monetary, shares,
// ratio, pure, unknown — where the first match wins. Validation of a
// monetary expression fails fast with every offending variable/unit pair
// enumerated; the keyword-based expression pre-check is advisory only.
package unitguard
