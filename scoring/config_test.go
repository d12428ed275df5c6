package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDealConfigNormalized_NonFiniteFallsBack verifies NaN and Inf fields
// recover to the documented defaults
func TestDealConfigNormalized_NonFiniteFallsBack(t *testing.T) {
	cfg := DealConfig{
		AnchorYear:               math.NaN(),
		AnchorMiles:              math.Inf(1),
		AnchorPrice:              45000,
		DollarsPerMile:           0.15,
		DollarsPerYear:           1500,
		GoodDealThresholdDollars: 2000,
		BadDealThresholdDollars:  -2000,
	}

	n := cfg.normalized()

	assert.Equal(t, 2017.0, n.AnchorYear)
	assert.Equal(t, 100000.0, n.AnchorMiles)
	assert.Equal(t, 45000.0, n.AnchorPrice)
}

// TestDealConfigNormalized_TruncatesAnchorYear verifies the integer-typed
// field is truncated, not rounded
func TestDealConfigNormalized_TruncatesAnchorYear(t *testing.T) {
	cfg := DefaultDealConfig()
	cfg.AnchorYear = 2018.9

	assert.Equal(t, 2018.0, cfg.normalized().AnchorYear)
}

// TestScoreConfigNormalized_ClampsWeights verifies negative weights clamp
// to zero
func TestScoreConfigNormalized_ClampsWeights(t *testing.T) {
	cfg := DefaultScoreConfig()
	cfg.RatingWeight = -3
	cfg.MilesWeight = -0.5

	n := cfg.normalized()

	assert.Equal(t, 0.0, n.RatingWeight)
	assert.Equal(t, 0.0, n.MilesWeight)
}

// TestAnomalyConfigNormalized_NonFiniteFallsBack verifies anomaly defaults
func TestAnomalyConfigNormalized_NonFiniteFallsBack(t *testing.T) {
	cfg := AnomalyConfig{
		MilesPerYear:     math.NaN(),
		AnomalyGoodMiles: math.NaN(),
		AnomalyBadMiles:  20000,
	}

	n := cfg.normalized()

	assert.Equal(t, 12000.0, n.MilesPerYear)
	assert.Equal(t, -15000.0, n.AnomalyGoodMiles)
	assert.Equal(t, 20000.0, n.AnomalyBadMiles)
}
