package normalize

import (
	"math"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// scaleExponents maps filing scale markers to powers of ten
var scaleExponents = map[string]int32{
	"K": 3,  // thousands
	"M": 6,  // millions
	"B": 9,  // billions
	"T": 12, // trillions
	"U": 0,  // units
}

// scaleOrder is the deterministic scan order for scale markers in unit strings
var scaleOrder = []string{"K", "M", "B", "T"}

// currencyAliases maps symbols and vendor spellings to ISO currency codes.
// ISO codes themselves resolve through the go-money registry.
var currencyAliases = map[string]string{
	"US$": "USD", "$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
	"C$": "CAD",
	"A$": "AUD",
	"NT$": "TWD",
}

// ScaleExponent returns the power-of-ten exponent for a scale marker
func ScaleExponent(scale string) (int32, bool) {
	exp, ok := scaleExponents[scale]
	return exp, ok
}

// ScaleFactor returns the multiplier for a scale marker as a float64, for the
// scaling audit trail
func ScaleFactor(scale string) (float64, bool) {
	exp, ok := scaleExponents[scale]
	if !ok {
		return 0, false
	}
	return math.Pow(10, float64(exp)), true
}

// Shift applies a scale marker to a decimal value
func Shift(value decimal.Decimal, scale string) decimal.Decimal {
	exp, ok := scaleExponents[scale]
	if !ok {
		return value
	}
	return value.Shift(exp)
}

// ResolveCurrency maps a currency token (symbol, alias, or ISO code) to its
// ISO code. The alias table is checked first, then the go-money registry.
func ResolveCurrency(token string) (string, bool) {
	if code, ok := currencyAliases[token]; ok {
		return code, true
	}
	if c := money.GetCurrency(strings.ToUpper(token)); c != nil {
		return c.Code, true
	}
	return "", false
}

// CurrencyTokens returns the known currency symbols and aliases, for
// substring-based monetary classification
func CurrencyTokens() []string {
	tokens := make([]string, 0, len(currencyAliases))
	for alias := range currencyAliases {
		tokens = append(tokens, alias)
	}
	return tokens
}

// ParseUnit splits a filing unit string into (currency, scale).
//
// Match order: explicit scale suffix ("EUR-M"), explicit scale prefix
// ("M-EUR"), then a currency-code/symbol match against the vocabulary. A
// string that matches nothing but contains digits defaults to (USD, U);
// anything else is treated as an unrecognized currency code with scale U.
func ParseUnit(unit string) (currency, scale string) {
	if unit == "" {
		return "USD", "U"
	}

	upper := strings.ToUpper(strings.TrimSpace(unit))

	for _, s := range scaleOrder {
		if strings.HasSuffix(upper, "-"+s) {
			return resolveOrRaw(strings.TrimSuffix(upper, "-"+s)), s
		}
	}

	for _, s := range scaleOrder {
		if strings.HasPrefix(upper, s+"-") {
			return resolveOrRaw(strings.TrimPrefix(upper, s+"-")), s
		}
	}

	if code, ok := ResolveCurrency(upper); ok {
		return code, "U"
	}

	if strings.ContainsFunc(upper, unicode.IsDigit) {
		// Complex compound unit, assume base-currency units
		return "USD", "U"
	}

	return upper, "U"
}

func resolveOrRaw(token string) string {
	if code, ok := ResolveCurrency(token); ok {
		return code
	}
	return token
}
