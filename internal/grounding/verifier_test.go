package grounding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/contracts/domain"
)

// quarterEnds are the calendar quarter-end month/day pairs
var quarterEnds = [4][2]int{{3, 31}, {6, 30}, {9, 30}, {12, 31}}

func quarterly(id string, values ...float64) domain.TimeSeries {
	points := make([]domain.Point, len(values))
	for i, v := range values {
		end := quarterEnds[i%4]
		points[i] = domain.Point{
			Date:  time.Date(2023+i/4, time.Month(end[0]), end[1], 0, 0, 0, 0, time.UTC),
			Value: v,
		}
	}
	return domain.TimeSeries{SeriesID: id, Frequency: domain.FreqQuarterly, Points: points}
}

func monthly(id string, values ...float64) domain.TimeSeries {
	points := make([]domain.Point, len(values))
	for i, v := range values {
		points[i] = domain.Point{
			Date:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0),
			Value: v,
		}
	}
	return domain.TimeSeries{SeriesID: id, Frequency: domain.FreqMonthly, Points: points}
}

func TestVerifyClaim_EmptySeries(t *testing.T) {
	v := NewVerifier(nil)
	series := domain.TimeSeries{SeriesID: "revenue", Frequency: domain.FreqQuarterly}

	e := v.VerifyClaim(context.Background(), domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: domain.OpEqual, Value: 1}, series)

	assert.False(t, e.Supported)
	assert.Equal(t, "empty_series", e.Reason())
	assert.Equal(t, "revenue", e.SourceSeries)
}

func TestVerifyClaim_Comparisons(t *testing.T) {
	v := NewVerifier(nil)
	series := quarterly("revenue", 100, 105, 110)

	tests := []struct {
		name      string
		operator  domain.Operator
		value     float64
		supported bool
	}{
		{"equal exact", domain.OpEqual, 110, true},
		{"equal within tolerance", domain.OpEqual, 110 + 5e-10, true},
		{"equal outside tolerance", domain.OpEqual, 110.001, false},
		{"less true", domain.OpLess, 111, true},
		{"less false", domain.OpLess, 110, false},
		{"less-equal boundary", domain.OpLessEqual, 110, true},
		{"greater true", domain.OpGreater, 109, true},
		{"greater false", domain.OpGreater, 110, false},
		{"greater-equal boundary", domain.OpGreaterEqual, 110, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: tt.operator, Value: tt.value}
			e := v.VerifyClaim(context.Background(), claim, series)
			assert.Equal(t, tt.supported, e.Supported)
			// Snapped date and value are always recorded
			assert.Equal(t, "2023-09-30", e.Details["at"])
			assert.Equal(t, 110.0, e.Details["value"])
		})
	}
}

func TestVerifyClaim_AnchorSnapping(t *testing.T) {
	v := NewVerifier(nil)
	series := quarterly("revenue", 100, 105, 110)

	anchor := time.Date(2023, time.May, 15, 0, 0, 0, 0, time.UTC)
	claim := domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: domain.OpEqual, Value: 105, At: &anchor}

	e := v.VerifyClaim(context.Background(), claim, series)
	assert.True(t, e.Supported)
	assert.Equal(t, "2023-06-30", e.Details["at"])

	// Anchor after the last point clamps to the final sample
	late := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	claim = domain.NumericClaim{ID: "c2", Metric: "revenue", Operator: domain.OpEqual, Value: 110, At: &late}
	e = v.VerifyClaim(context.Background(), claim, series)
	assert.True(t, e.Supported)

	// Anchor before the first point clamps to the first sample
	early := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	claim = domain.NumericClaim{ID: "c3", Metric: "revenue", Operator: domain.OpEqual, Value: 100, At: &early}
	e = v.VerifyClaim(context.Background(), claim, series)
	assert.True(t, e.Supported)
}

func TestVerifyClaim_Change(t *testing.T) {
	v := NewVerifier(nil)
	series := quarterly("revenue", 100, 105, 110)

	claim := domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: domain.OpChange, Value: 5}
	e := v.VerifyClaim(context.Background(), claim, series)

	assert.True(t, e.Supported)
	assert.Equal(t, 5.0, e.Details["change"])
	assert.Equal(t, "2023-06-30", e.Details["prev_at"])
	assert.Equal(t, 105.0, e.Details["prev"])
}

// The change operator accepts a window but always diffs against the
// immediately preceding sample. This locks in the documented behavior.
func TestVerifyClaim_ChangeIgnoresWindow(t *testing.T) {
	v := NewVerifier(nil)
	series := quarterly("revenue", 100, 105, 110)

	window := 365
	claim := domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: domain.OpChange, Value: 5, Window: &window}
	e := v.VerifyClaim(context.Background(), claim, series)

	// A year-long window still compares 110 against 105, not 100
	assert.True(t, e.Supported)
	assert.Equal(t, 105.0, e.Details["prev"])
}

func TestVerifyClaim_ChangeAtFirstPoint(t *testing.T) {
	v := NewVerifier(nil)
	series := quarterly("revenue", 100, 105)

	anchor := time.Date(2023, time.March, 31, 0, 0, 0, 0, time.UTC)
	claim := domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: domain.OpChange, Value: 0, At: &anchor}
	e := v.VerifyClaim(context.Background(), claim, series)

	// Previous index clamps to the same sample, change is zero
	assert.True(t, e.Supported)
	assert.Equal(t, 0.0, e.Details["change"])
}

func TestVerifyClaim_YoY(t *testing.T) {
	v := NewVerifier(nil)
	// Five consecutive quarters: yoy at the last point is (120/100-1)*100 = 20
	series := quarterly("revenue", 100, 105, 110, 115, 120)

	claim := domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: domain.OpYoY, Value: 20.0}
	e := v.VerifyClaim(context.Background(), claim, series)

	require.True(t, e.Supported)
	assert.InDelta(t, 20.0, e.Details["pct"].(float64), 1e-12)
	assert.Equal(t, "2023-03-31", e.Details["prev_at"])
	assert.Equal(t, 100.0, e.Details["prev"])
	assert.Equal(t, "2024-03-31", e.Details["snapped_date"])

	// Five-basis-point tolerance
	claim.Value = 20.04
	assert.True(t, v.VerifyClaim(context.Background(), claim, series).Supported)
	claim.Value = 20.06
	assert.False(t, v.VerifyClaim(context.Background(), claim, series).Supported)
}

func TestVerifyClaim_YoYInvalidFrequency(t *testing.T) {
	v := NewVerifier(nil)
	series := domain.TimeSeries{
		SeriesID:  "price",
		Frequency: domain.FreqDaily,
		Points:    []domain.Point{{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 10}},
	}

	claim := domain.NumericClaim{ID: "c1", Metric: "price", Operator: domain.OpYoY, Value: 1}
	e := v.VerifyClaim(context.Background(), claim, series)

	assert.False(t, e.Supported)
	assert.Equal(t, "invalid_frequency_for_yoy", e.Reason())
	assert.Equal(t, []string{"M", "Q", "A"}, e.Details["required"])
}

func TestVerifyClaim_YoYInsufficientHistory(t *testing.T) {
	v := NewVerifier(nil)
	// Monthly yoy needs 12 prior points; 11 points means none qualifies
	series := monthly("revenue", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)

	claim := domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: domain.OpYoY, Value: 10}
	e := v.VerifyClaim(context.Background(), claim, series)

	assert.False(t, e.Supported)
	assert.Equal(t, "insufficient_historical_data", e.Reason())
	assert.Equal(t, 12, e.Details["required_periods"])
	assert.Equal(t, 10, e.Details["available"])
}

func TestVerifyClaim_YoYZeroPrior(t *testing.T) {
	v := NewVerifier(nil)
	series := quarterly("revenue", 0, 105, 110, 115, 120)

	claim := domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: domain.OpYoY, Value: 20}
	e := v.VerifyClaim(context.Background(), claim, series)

	assert.False(t, e.Supported)
	assert.Nil(t, e.Details["pct"])
}

func TestVerifyClaim_QoQ(t *testing.T) {
	v := NewVerifier(nil)
	series := quarterly("revenue", 100, 105, 110)

	// (110/105 - 1) * 100 ≈ 4.7619
	claim := domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: domain.OpQoQ, Value: 4.7619}
	e := v.VerifyClaim(context.Background(), claim, series)
	assert.True(t, e.Supported)

	// Annual series has no quarter step
	annual := domain.TimeSeries{
		SeriesID:  "revenue",
		Frequency: domain.FreqAnnual,
		Points:    series.Points,
	}
	e = v.VerifyClaim(context.Background(), claim, annual)
	assert.False(t, e.Supported)
	assert.Equal(t, "invalid_frequency_for_qoq", e.Reason())
}

func TestVerifyClaim_QoQMonthlyStep(t *testing.T) {
	v := NewVerifier(nil)
	series := monthly("revenue", 100, 101, 102, 106)

	// Monthly qoq steps back three samples: (106/101 - 1) * 100
	claim := domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: domain.OpQoQ, Value: (106.0/101.0 - 1) * 100}
	e := v.VerifyClaim(context.Background(), claim, series)
	require.True(t, e.Supported)
	assert.Equal(t, 101.0, e.Details["prev"])
}

func TestVerifyClaim_UnsupportedOperator(t *testing.T) {
	v := NewVerifier(nil)
	series := quarterly("revenue", 100)

	claim := domain.NumericClaim{ID: "c1", Metric: "revenue", Operator: "between", Value: 1}
	e := v.VerifyClaim(context.Background(), claim, series)

	assert.False(t, e.Supported)
	assert.Equal(t, "unsupported_operator", e.Reason())
}

func TestGroundClaims(t *testing.T) {
	v := NewVerifier(nil)
	series := []domain.TimeSeries{
		quarterly("revenue", 100, 105, 110, 115, 120),
		quarterly("netIncome", 10, 11, 12, 13, 14),
	}

	claims := []domain.NumericClaim{
		{ID: "c1", Metric: "revenue", Operator: domain.OpYoY, Value: 20.0},
		{ID: "c2", Metric: "netIncome", Operator: domain.OpEqual, Value: 14},
	}

	evidence, allSupported := v.GroundClaims(context.Background(), claims, series)

	require.Len(t, evidence, 2)
	assert.True(t, allSupported)
	assert.True(t, evidence[0].Supported)
	assert.True(t, evidence[1].Supported)
}

func TestGroundClaims_SeriesNotFound(t *testing.T) {
	v := NewVerifier(nil)
	series := []domain.TimeSeries{quarterly("revenue", 100, 105)}

	claims := []domain.NumericClaim{
		{ID: "c1", Metric: "revenue", Operator: domain.OpEqual, Value: 105},
		{ID: "c2", Metric: "ebitda", Operator: domain.OpEqual, Value: 50},
	}

	evidence, allSupported := v.GroundClaims(context.Background(), claims, series)

	require.Len(t, evidence, 2)
	assert.False(t, allSupported)
	assert.True(t, evidence[0].Supported)
	assert.False(t, evidence[1].Supported)
	assert.Equal(t, "series_not_found", evidence[1].Reason())
	assert.Equal(t, "ebitda", evidence[1].Details["metric"])
	assert.Empty(t, evidence[1].SourceSeries)
}

func TestGroundClaims_AssignsClaimIDs(t *testing.T) {
	v := NewVerifier(nil)
	series := []domain.TimeSeries{quarterly("revenue", 100)}

	claims := []domain.NumericClaim{{Metric: "revenue", Operator: domain.OpEqual, Value: 100}}
	evidence, allSupported := v.GroundClaims(context.Background(), claims, series)

	require.Len(t, evidence, 1)
	assert.True(t, allSupported)
	assert.NotEmpty(t, evidence[0].ClaimID)
}

func TestGroundClaims_InvalidClaim(t *testing.T) {
	v := NewVerifier(nil)

	// Missing metric fails structural validation before any series lookup
	claims := []domain.NumericClaim{{ID: "c1", Operator: domain.OpEqual, Value: 1}}
	evidence, allSupported := v.GroundClaims(context.Background(), claims, nil)

	require.Len(t, evidence, 1)
	assert.False(t, allSupported)
	assert.Equal(t, "invalid_claim", evidence[0].Reason())
}

func TestGroundClaims_Empty(t *testing.T) {
	v := NewVerifier(nil)
	evidence, allSupported := v.GroundClaims(context.Background(), nil, nil)
	assert.Empty(t, evidence)
	assert.True(t, allSupported)
}
