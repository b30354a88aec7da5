package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/shared/testutil"
)

// fixedRateFX converts at a single fixed rate regardless of currency pair
type fixedRateFX struct {
	rate  decimal.Decimal
	calls int
	asOf  time.Time
}

func (f *fixedRateFX) Convert(_ context.Context, value decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error) {
	f.calls++
	f.asOf = asOf
	return value.Mul(f.rate), nil
}

// failingFX always fails, standing in for an unavailable rate source
type failingFX struct{}

func (failingFX) Convert(context.Context, decimal.Decimal, string, string, time.Time) (decimal.Decimal, error) {
	return decimal.Zero, fmt.Errorf("rate source unavailable")
}

func TestNormalizeFact_ScaleAndFX(t *testing.T) {
	// 100 EUR-M at 1.10 USD/EUR = 1.1e8 USD
	fx := &fixedRateFX{rate: decimal.NewFromFloat(1.10)}
	n := NewNormalizer(fx, nil)

	result := n.NormalizeFact(context.Background(), decimal.NewFromInt(100), "EUR-M", "2024-12-31", "USD", "U")

	require.Empty(t, result.NormalizationError)
	assert.True(t, result.NormalizedValue.Equal(decimal.NewFromFloat(1.1e8)),
		"got %s", result.NormalizedValue)
	assert.Equal(t, "USD-U", result.TargetUnit)
	assert.Equal(t, "EUR-M", result.OriginalUnit)

	assert.Equal(t, "M", result.ScalingApplied.SourceScale)
	assert.Equal(t, 1e6, result.ScalingApplied.SourceFactor)
	assert.Equal(t, "U", result.ScalingApplied.TargetScale)
	assert.Equal(t, float64(1), result.ScalingApplied.TargetFactor)

	require.NotNil(t, result.FXConversion)
	assert.Equal(t, "EUR", result.FXConversion.FromCurrency)
	assert.Equal(t, "USD", result.FXConversion.ToCurrency)
	assert.True(t, result.FXConversion.Rate.Equal(decimal.NewFromFloat(1.10)))
	assert.Equal(t, "2024-12-31", result.FXConversion.AsOf)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), fx.asOf)
}

func TestNormalizeFact_TargetScale(t *testing.T) {
	n := NewNormalizer(nil, nil)

	// 2,500,000,000 USD to USD-B
	result := n.NormalizeFact(context.Background(), decimal.NewFromInt(2_500_000_000), "USD", "2024-12-31", "USD", "B")

	require.Empty(t, result.NormalizationError)
	assert.True(t, result.NormalizedValue.Equal(decimal.NewFromFloat(2.5)), "got %s", result.NormalizedValue)
	assert.Equal(t, "USD-B", result.TargetUnit)
	assert.Nil(t, result.FXConversion)
}

func TestNormalizeFact_FXFailureKeepsScaledValue(t *testing.T) {
	n := NewNormalizer(failingFX{}, nil)

	result := n.NormalizeFact(context.Background(), decimal.NewFromInt(100), "EUR-M", "2024-12-31", "USD", "U")

	// Scaled but unconverted; fx_conversion omitted, no error raised
	require.Empty(t, result.NormalizationError)
	assert.True(t, result.NormalizedValue.Equal(decimal.NewFromInt(100_000_000)))
	assert.Nil(t, result.FXConversion)
}

func TestNormalizeFact_FXFailureIsLogged(t *testing.T) {
	logger, rec := testutil.NewLogger(t)
	n := NewNormalizer(failingFX{}, logger)

	n.NormalizeFact(context.Background(), decimal.NewFromInt(100), "EUR-M", "2024-12-31", "USD", "U")

	testutil.AssertLogged(t, rec, slog.LevelWarn, "fx conversion failed")
}

func TestNormalizeFact_NoConverterSkipsFX(t *testing.T) {
	n := NewNormalizer(nil, nil)

	result := n.NormalizeFact(context.Background(), decimal.NewFromInt(5), "EUR-K", "2024-12-31", "USD", "U")

	assert.True(t, result.NormalizedValue.Equal(decimal.NewFromInt(5000)))
	assert.Nil(t, result.FXConversion)
}

func TestNormalizeFact_SameCurrencyNoFXCall(t *testing.T) {
	fx := &fixedRateFX{rate: decimal.NewFromFloat(1.10)}
	n := NewNormalizer(fx, nil)

	n.NormalizeFact(context.Background(), decimal.NewFromInt(7), "USD-M", "2024-12-31", "USD", "U")

	assert.Zero(t, fx.calls)
}

func TestNormalizeFact_UnknownTargetScaleFallsBack(t *testing.T) {
	n := NewNormalizer(nil, nil)

	result := n.NormalizeFact(context.Background(), decimal.NewFromInt(42), "USD-M", "2024-12-31", "USD", "Z")

	assert.NotEmpty(t, result.NormalizationError)
	assert.True(t, result.NormalizedValue.Equal(decimal.NewFromInt(42)))
	assert.Equal(t, "USD-M", result.TargetUnit)
	assert.Nil(t, result.FXConversion)
}

func TestNormalizeFact_ZeroValue(t *testing.T) {
	fx := &fixedRateFX{rate: decimal.NewFromFloat(1.10)}
	n := NewNormalizer(fx, nil)

	result := n.NormalizeFact(context.Background(), decimal.Zero, "EUR-M", "2024-12-31", "USD", "U")

	require.NotNil(t, result.FXConversion)
	assert.True(t, result.NormalizedValue.IsZero())
	assert.True(t, result.FXConversion.Rate.Equal(decimal.NewFromInt(1)))
}

func TestShouldNormalize(t *testing.T) {
	n := NewNormalizer(nil, nil)

	assert.False(t, n.ShouldNormalize("USD", "USD", "U"))
	assert.True(t, n.ShouldNormalize("USD-M", "USD", "U"))
	assert.True(t, n.ShouldNormalize("EUR", "USD", "U"))
	assert.False(t, n.ShouldNormalize("EUR-M", "EUR", "M"))
}

func TestUnitDisplay(t *testing.T) {
	assert.Equal(t, "USD", UnitDisplay("USD", "USD"))
	assert.Equal(t, "USD (M)", UnitDisplay("EUR-M", "USD"))
}
