package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"finsight/pkg/contracts/domain"
)

// FXConverter converts a monetary value between currencies at a given date.
// The implementation owns sourcing, retry, and timeout; a failed conversion
// is non-fatal to normalization.
type FXConverter interface {
	Convert(ctx context.Context, value decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error)
}

// Normalizer normalizes filing facts for unit scaling and currency
// conversion. It is a pure computation over read-only tables plus the FX
// collaborator and is safe for concurrent use.
type Normalizer struct {
	fx     FXConverter
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. fx may be nil when currency conversion
// is unavailable; cross-currency facts then keep their scaled source value.
func NewNormalizer(fx FXConverter, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{fx: fx, logger: logger}
}

// NormalizeFact converts a raw fact value into the target currency and scale,
// returning the full audit trail. The scale step always succeeds; when the FX
// step fails the scaled, unconverted value is kept and FXConversion is
// omitted. An unknown target scale falls back to the original value with
// NormalizationError set — a failed normalization is never silently dropped.
func (n *Normalizer) NormalizeFact(ctx context.Context, value decimal.Decimal, unit, periodEnd, targetCurrency, targetScale string) domain.NormalizedFact {
	targetExp, ok := scaleExponents[targetScale]
	if !ok {
		n.logger.ErrorContext(ctx, "fact normalization failed",
			"unit", unit,
			"target_scale", targetScale,
			"error", "unknown target scale",
		)
		return domain.NormalizedFact{
			OriginalValue:      value,
			OriginalUnit:       unit,
			NormalizedValue:    value,
			TargetUnit:         unit,
			NormalizationError: fmt.Sprintf("unknown target scale %q", targetScale),
		}
	}

	sourceCurrency, sourceScale := ParseUnit(unit)
	scaled := Shift(value, sourceScale)

	converted := scaled
	var fxUsed *domain.FXConversion

	if sourceCurrency != targetCurrency && n.fx != nil {
		result, err := n.fx.Convert(ctx, scaled, sourceCurrency, targetCurrency, parseAsOf(periodEnd))
		if err != nil {
			n.logger.WarnContext(ctx, "fx conversion failed, using unconverted value",
				"from_currency", sourceCurrency,
				"to_currency", targetCurrency,
				"period", periodEnd,
				"error", err,
			)
		} else {
			converted = result
			rate := decimal.NewFromInt(1)
			if !scaled.IsZero() {
				rate = converted.Div(scaled)
			}
			fxUsed = &domain.FXConversion{
				FromCurrency: sourceCurrency,
				ToCurrency:   targetCurrency,
				Rate:         rate,
				AsOf:         periodEnd,
			}
		}
	}

	final := converted.Shift(-targetExp)

	sourceFactor, _ := ScaleFactor(sourceScale)
	targetFactor, _ := ScaleFactor(targetScale)

	n.logger.DebugContext(ctx, "fact normalized",
		"original_value", value.String(),
		"original_unit", unit,
		"normalized_value", final.String(),
		"target_unit", targetCurrency+"-"+targetScale,
		"fx_applied", fxUsed != nil,
	)

	return domain.NormalizedFact{
		OriginalValue:   value,
		OriginalUnit:    unit,
		NormalizedValue: final,
		TargetUnit:      targetCurrency + "-" + targetScale,
		ScalingApplied: domain.ScalingApplied{
			SourceScale:  sourceScale,
			SourceFactor: sourceFactor,
			TargetScale:  targetScale,
			TargetFactor: targetFactor,
		},
		FXConversion: fxUsed,
	}
}

// ShouldNormalize reports whether a unit needs any conversion to reach the
// target currency and scale
func (n *Normalizer) ShouldNormalize(unit, targetCurrency, targetScale string) bool {
	currency, scale := ParseUnit(unit)
	return currency != targetCurrency || scale != targetScale
}

// UnitDisplay returns a human-readable rendering of a unit string after
// normalization to the target currency
func UnitDisplay(unit, targetCurrency string) string {
	_, scale := ParseUnit(unit)
	if scale == "U" {
		return targetCurrency
	}
	return fmt.Sprintf("%s (%s)", targetCurrency, scale)
}

// parseAsOf parses a period-end date for FX lookup. An unparsable period
// yields the zero time; the converter decides how to treat it.
func parseAsOf(periodEnd string) time.Time {
	t, err := time.Parse("2006-01-02", periodEnd)
	if err != nil {
		return time.Time{}
	}
	return t
}
