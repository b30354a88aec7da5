package unitguard

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	apierrors "finsight/internal/errors"
	"finsight/internal/normalize"
	"finsight/pkg/contracts/domain"
)

// monetaryTokens are currency codes and symbols whose presence anywhere in a
// unit string marks it monetary. Ordered so ISO codes and multi-character
// symbols win over the bare dollar sign when extracting the currency.
var monetaryTokens = []string{
	"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "TWD", "CNY",
	"US$", "C$", "A$", "NT$",
	"$", "€", "£", "¥",
}

// shareTokens mark share-based units
var shareTokens = []string{
	"shares", "share", "sh", "common", "preferred", "outstanding",
	"issued", "authorized", "treasury",
}

// ratioTokens mark ratio and percentage units
var ratioTokens = []string{
	"ratio", "percent", "%", "pct", "basis_points", "bp",
	"multiple", "x", "times",
}

// pureTokens mark unitless counts
var pureTokens = []string{
	"pure", "unitless", "count", "number", "ratio",
}

// monetaryKeywords drive the advisory expression pre-check
var monetaryKeywords = []string{
	"revenue", "income", "profit", "margin", "cost", "expense",
	"cash", "flow", "debt", "equity", "assets", "liabilities",
	"earnings", "dividend", "price", "value",
}

// classRule is one step of the ordered classification precedence
type classRule struct {
	class domain.UnitClass
	match func(unit string) bool
}

// rules is the classification precedence, first match wins:
// monetary, shares, ratio, pure, unknown.
var rules = []classRule{
	{domain.UnitMonetary, isMonetaryUnit},
	{domain.UnitShares, containsAnyFold(shareTokens)},
	{domain.UnitRatio, containsAnyFold(ratioTokens)},
	{domain.UnitPure, containsAnyFold(pureTokens)},
}

// Guard blocks arithmetic over incompatible units: a monetary expression must
// not mix in share counts, ratios, or unclassifiable operands.
type Guard struct {
	logger *slog.Logger
}

// NewGuard creates a unit guard
func NewGuard(logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{logger: logger}
}

// ClassifyUnit classifies a unit string by the ordered precedence rules.
// Currency and scale are extracted for monetary units only.
func (g *Guard) ClassifyUnit(unit string) domain.UnitClassification {
	if unit == "" {
		return domain.UnitClassification{Unit: "", Class: domain.UnitUnknown, IsMonetary: false}
	}

	for _, rule := range rules {
		if !rule.match(unit) {
			continue
		}
		c := domain.UnitClassification{
			Unit:       unit,
			Class:      rule.class,
			IsMonetary: rule.class == domain.UnitMonetary,
		}
		if c.IsMonetary {
			c.Currency = extractCurrency(unit)
			c.Scale = extractScale(unit)
		}
		return c
	}

	return domain.UnitClassification{Unit: unit, Class: domain.UnitUnknown, IsMonetary: false}
}

// ValidateMonetaryExpression checks that every input of a monetary expression
// carries a monetary unit, returning per-variable classifications. A
// non-monetary input fails fast with the offending variable/unit pairs
// enumerated in the error.
func (g *Guard) ValidateMonetaryExpression(ctx context.Context, expression string, inputUnits map[string]string) (map[string]domain.UnitClassification, error) {
	classifications := make(map[string]domain.UnitClassification, len(inputUnits))
	offenders := make(map[string]string)

	names := make([]string, 0, len(inputUnits))
	for name := range inputUnits {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := g.ClassifyUnit(inputUnits[name])
		classifications[name] = c
		if !c.IsMonetary {
			offenders[name] = inputUnits[name]
		}
	}

	if len(offenders) > 0 {
		return nil, apierrors.UnsupportedUnits(offenders)
	}

	g.logger.DebugContext(ctx, "monetary expression validated",
		"expression", expression,
		"inputs", len(inputUnits),
	)
	return classifications, nil
}

// IsMonetaryExpression is an advisory keyword check deciding whether full
// unit validation should run at all. It never itself blocks execution.
func (g *Guard) IsMonetaryExpression(expression string) bool {
	lower := strings.ToLower(expression)
	for _, kw := range monetaryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SupportedUnits lists the classification vocabularies by class
func (g *Guard) SupportedUnits() map[domain.UnitClass][]string {
	return map[domain.UnitClass][]string{
		domain.UnitMonetary: append([]string(nil), monetaryTokens...),
		domain.UnitShares:   append([]string(nil), shareTokens...),
		domain.UnitRatio:    append([]string(nil), ratioTokens...),
		domain.UnitPure:     append([]string(nil), pureTokens...),
	}
}

// isMonetaryUnit matches currency tokens anywhere in the unit, falling back
// to an exact ISO-code lookup in the currency registry
func isMonetaryUnit(unit string) bool {
	upper := strings.ToUpper(unit)
	for _, tok := range monetaryTokens {
		if strings.Contains(upper, tok) {
			return true
		}
	}
	_, ok := normalize.ResolveCurrency(strings.TrimSpace(upper))
	return ok
}

func containsAnyFold(tokens []string) func(string) bool {
	return func(unit string) bool {
		lower := strings.ToLower(unit)
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				return true
			}
		}
		return false
	}
}

// extractCurrency returns the ISO code of the first currency token found in
// the unit string
func extractCurrency(unit string) string {
	upper := strings.ToUpper(unit)
	for _, tok := range monetaryTokens {
		if strings.Contains(upper, tok) {
			if code, ok := normalize.ResolveCurrency(tok); ok {
				return code
			}
			return tok
		}
	}
	if code, ok := normalize.ResolveCurrency(strings.TrimSpace(upper)); ok {
		return code
	}
	return ""
}

// extractScale returns the delimited scale marker in the unit string, or "U"
func extractScale(unit string) string {
	upper := strings.ToUpper(unit)
	for _, s := range []string{"K", "M", "B", "T"} {
		if strings.Contains(upper, "-"+s) || strings.Contains(upper, s+"-") {
			return s
		}
	}
	return "U"
}
