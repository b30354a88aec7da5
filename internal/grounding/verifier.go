package grounding

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"finsight/pkg/contracts/domain"
)

const (
	// valueTolerance is the absolute tolerance for equality and change
	// comparisons
	valueTolerance = 1e-9
	// pctTolerance is the tolerance for yoy/qoq percentage comparisons,
	// five basis points
	pctTolerance = 0.05
)

// Verifier checks numeric claims against time-series evidence. It is a pure
// computation over its inputs and safe for concurrent use.
type Verifier struct {
	validate *validator.Validate
	logger   *slog.Logger

	claimsVerified  metric.Int64Counter
	claimsSupported metric.Int64Counter
}

// NewVerifier creates a claim verifier
func NewVerifier(logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter("finsight/grounding")
	verified, _ := meter.Int64Counter("grounding.claims.verified",
		metric.WithDescription("Numeric claims checked against evidence"))
	supported, _ := meter.Int64Counter("grounding.claims.supported",
		metric.WithDescription("Numeric claims supported by evidence"))

	return &Verifier{
		validate:        validator.New(),
		logger:          logger,
		claimsVerified:  verified,
		claimsSupported: supported,
	}
}

// snapIndex finds the insertion point of the target date in the sorted point
// slice, clamped into [0, len-1]
func snapIndex(points []domain.Point, target domain.Point) int {
	i := sort.Search(len(points), func(j int) bool {
		return !points[j].Date.Before(target.Date)
	})
	if i > len(points)-1 {
		i = len(points) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func unsupported(claimID, seriesID string, details map[string]any) domain.Evidence {
	return domain.Evidence{ClaimID: claimID, Supported: false, SourceSeries: seriesID, Details: details}
}

// VerifyClaim checks a single numeric claim against a time series.
//
// The claim's anchor date (or the series' last date when absent) is snapped
// to the nearest sample at or after it, clamped into the series bounds; the
// snapped date and value are always recorded in the evidence details. An
// unverifiable or false claim is an ordinary Evidence value, never an error.
func (v *Verifier) VerifyClaim(ctx context.Context, claim domain.NumericClaim, series domain.TimeSeries) domain.Evidence {
	points := series.Points
	if len(points) == 0 {
		return unsupported(claim.ID, series.SeriesID, map[string]any{"reason": "empty_series"})
	}

	anchor := points[len(points)-1]
	if claim.At != nil {
		anchor = domain.Point{Date: *claim.At}
	}
	idx := snapIndex(points, anchor)
	observed := points[idx].Value

	details := map[string]any{
		"at":    points[idx].Date.Format("2006-01-02"),
		"value": observed,
	}

	switch claim.Operator {
	case domain.OpEqual, domain.OpLess, domain.OpLessEqual, domain.OpGreater, domain.OpGreaterEqual:
		ok := false
		switch claim.Operator {
		case domain.OpEqual:
			ok = math.Abs(observed-claim.Value) <= valueTolerance
		case domain.OpLess:
			ok = observed < claim.Value
		case domain.OpLessEqual:
			ok = observed <= claim.Value
		case domain.OpGreater:
			ok = observed > claim.Value
		case domain.OpGreaterEqual:
			ok = observed >= claim.Value
		}
		return domain.Evidence{ClaimID: claim.ID, Supported: ok, SourceSeries: series.SeriesID, Details: details}

	case domain.OpChange:
		// The claim's window is accepted but does not select a comparison
		// distance: the diff is always against the immediately preceding
		// sample.
		j := idx - 1
		if j < 0 {
			j = 0
		}
		change := observed - points[j].Value
		details["prev_at"] = points[j].Date.Format("2006-01-02")
		details["prev"] = points[j].Value
		details["change"] = change
		ok := math.Abs(change-claim.Value) <= valueTolerance
		return domain.Evidence{ClaimID: claim.ID, Supported: ok, SourceSeries: series.SeriesID, Details: details}

	case domain.OpYoY, domain.OpQoQ:
		var step int
		if claim.Operator == domain.OpYoY {
			step = series.Frequency.PeriodsPerYear()
			if step == 0 {
				return unsupported(claim.ID, series.SeriesID, map[string]any{
					"reason":   "invalid_frequency_for_yoy",
					"freq":     string(series.Frequency),
					"required": []string{"M", "Q", "A"},
				})
			}
		} else {
			step = series.Frequency.PeriodsPerQuarter()
			if step == 0 {
				return unsupported(claim.ID, series.SeriesID, map[string]any{
					"reason":   "invalid_frequency_for_qoq",
					"freq":     string(series.Frequency),
					"required": []string{"M", "Q"},
				})
			}
		}

		j := idx - step
		if j < 0 {
			return unsupported(claim.ID, series.SeriesID, map[string]any{
				"reason":           "insufficient_historical_data",
				"required_periods": step,
				"available":        idx,
			})
		}

		prev := points[j].Value
		details["prev_at"] = points[j].Date.Format("2006-01-02")
		details["prev"] = prev
		details["snapped_date"] = points[idx].Date.Format("2006-01-02")

		if prev == 0 {
			// Undefined percentage against a zero prior value
			details["pct"] = nil
			return domain.Evidence{ClaimID: claim.ID, Supported: false, SourceSeries: series.SeriesID, Details: details}
		}

		pct := (observed/prev - 1.0) * 100.0
		details["pct"] = pct
		ok := math.Abs(pct-claim.Value) <= pctTolerance
		return domain.Evidence{ClaimID: claim.ID, Supported: ok, SourceSeries: series.SeriesID, Details: details}

	default:
		return unsupported(claim.ID, series.SeriesID, map[string]any{"reason": "unsupported_operator"})
	}
}

// GroundClaims verifies every claim against the supplied series, resolving
// each claim's metric by series id. The aggregate flag is true only when
// every claim is supported.
func (v *Verifier) GroundClaims(ctx context.Context, claims []domain.NumericClaim, series []domain.TimeSeries) ([]domain.Evidence, bool) {
	byID := make(map[string]domain.TimeSeries, len(series))
	for _, s := range series {
		byID[s.SeriesID] = s
	}

	evidence := make([]domain.Evidence, 0, len(claims))
	allSupported := true

	for _, claim := range claims {
		if claim.ID == "" {
			// Keep the evidence addressable even for anonymous claims
			claim.ID = uuid.NewString()
		}

		v.claimsVerified.Add(ctx, 1)

		if err := v.validate.Struct(claim); err != nil {
			evidence = append(evidence, domain.Evidence{
				ClaimID:   claim.ID,
				Supported: false,
				Details:   map[string]any{"reason": "invalid_claim", "error": err.Error()},
			})
			allSupported = false
			continue
		}

		s, ok := byID[claim.Metric]
		if !ok {
			evidence = append(evidence, domain.Evidence{
				ClaimID:   claim.ID,
				Supported: false,
				Details:   map[string]any{"reason": "series_not_found", "metric": claim.Metric},
			})
			allSupported = false
			continue
		}

		e := v.VerifyClaim(ctx, claim, s)
		if e.Supported {
			v.claimsSupported.Add(ctx, 1)
		}
		evidence = append(evidence, e)
		allSupported = allSupported && e.Supported
	}

	v.logger.DebugContext(ctx, "claims grounded",
		"claims", len(claims),
		"series", len(series),
		"all_supported", allSupported,
	)

	return evidence, allSupported
}
