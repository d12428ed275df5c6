package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCurrentYear = 2026

// TestComputeMilesAnomaly_HighMileage verifies a listing well past expected
// wear labels HIGH
func TestComputeMilesAnomaly_HighMileage(t *testing.T) {
	cfg := AnomalyConfig{
		MilesPerYear:     12000,
		AnomalyGoodMiles: -15000,
		AnomalyBadMiles:  15000,
	}

	result := ComputeMilesAnomaly(testCurrentYear-5, 90000, testCurrentYear, cfg)

	require.NotNil(t, result)
	assert.Equal(t, 5, result.AgeYears)
	assert.Equal(t, 60000.0, result.ExpectedMiles)
	assert.Equal(t, 30000.0, result.AnomalyMiles)
	assert.InDelta(t, 0.5, result.AnomalyPct, 1e-9)
	assert.Equal(t, AnomalyHigh, result.Label)
}

// TestComputeMilesAnomaly_LowMileage verifies fewer miles than expected
// labels LOW
func TestComputeMilesAnomaly_LowMileage(t *testing.T) {
	cfg := DefaultAnomalyConfig()

	result := ComputeMilesAnomaly(testCurrentYear-10, 40000, testCurrentYear, cfg)

	require.NotNil(t, result)
	assert.Equal(t, 120000.0, result.ExpectedMiles)
	assert.Equal(t, -80000.0, result.AnomalyMiles)
	assert.Equal(t, AnomalyLow, result.Label)
}

// TestComputeMilesAnomaly_Normal verifies wear near expectation labels
// NORMAL
func TestComputeMilesAnomaly_Normal(t *testing.T) {
	cfg := DefaultAnomalyConfig()

	result := ComputeMilesAnomaly(testCurrentYear-5, 65000, testCurrentYear, cfg)

	require.NotNil(t, result)
	assert.Equal(t, AnomalyNormal, result.Label)
}

// TestComputeMilesAnomaly_ZeroAge verifies a current-model-year listing is
// expected to have one year's wear, not zero
func TestComputeMilesAnomaly_ZeroAge(t *testing.T) {
	cfg := DefaultAnomalyConfig()

	result := ComputeMilesAnomaly(testCurrentYear, 8000, testCurrentYear, cfg)

	require.NotNil(t, result)
	assert.Equal(t, 0, result.AgeYears)
	assert.Equal(t, 12000.0, result.ExpectedMiles)
	assert.Equal(t, -4000.0, result.AnomalyMiles)
}

// TestComputeMilesAnomaly_FutureModelYear verifies age clamps at zero for
// next-model-year listings
func TestComputeMilesAnomaly_FutureModelYear(t *testing.T) {
	cfg := DefaultAnomalyConfig()

	result := ComputeMilesAnomaly(testCurrentYear+1, 500, testCurrentYear, cfg)

	require.NotNil(t, result)
	assert.Equal(t, 0, result.AgeYears)
	assert.Equal(t, 12000.0, result.ExpectedMiles)
}

// TestComputeMilesAnomaly_NonFiniteInput verifies nil on unusable input
func TestComputeMilesAnomaly_NonFiniteInput(t *testing.T) {
	cfg := DefaultAnomalyConfig()

	assert.Nil(t, ComputeMilesAnomaly(math.NaN(), 90000, testCurrentYear, cfg))
	assert.Nil(t, ComputeMilesAnomaly(2020, math.Inf(-1), testCurrentYear, cfg))
}
