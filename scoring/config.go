package scoring

import "math"

// DealConfig holds the parameters of the linear price-expectation model.
// The anchor describes a reference listing; the per-unit coefficients price
// the distance from it.
type DealConfig struct {
	AnchorYear               float64
	AnchorMiles              float64
	AnchorPrice              float64
	DollarsPerMile           float64
	DollarsPerYear           float64
	GoodDealThresholdDollars float64
	BadDealThresholdDollars  float64
}

// DefaultDealConfig returns the documented deal-model defaults.
func DefaultDealConfig() DealConfig {
	return DealConfig{
		AnchorYear:               2017,
		AnchorMiles:              100000,
		AnchorPrice:              45000,
		DollarsPerMile:           0.15,
		DollarsPerYear:           1500,
		GoodDealThresholdDollars: 2000,
		BadDealThresholdDollars:  -2000,
	}
}

// normalized coerces every field to a finite value, substituting the
// documented default otherwise. The anchor year is an integer-valued field
// and gets truncated.
func (c DealConfig) normalized() DealConfig {
	d := DefaultDealConfig()
	return DealConfig{
		AnchorYear:               math.Trunc(finiteOr(c.AnchorYear, d.AnchorYear)),
		AnchorMiles:              finiteOr(c.AnchorMiles, d.AnchorMiles),
		AnchorPrice:              finiteOr(c.AnchorPrice, d.AnchorPrice),
		DollarsPerMile:           finiteOr(c.DollarsPerMile, d.DollarsPerMile),
		DollarsPerYear:           finiteOr(c.DollarsPerYear, d.DollarsPerYear),
		GoodDealThresholdDollars: finiteOr(c.GoodDealThresholdDollars, d.GoodDealThresholdDollars),
		BadDealThresholdDollars:  finiteOr(c.BadDealThresholdDollars, d.BadDealThresholdDollars),
	}
}

// AnomalyConfig holds the parameters of the mileage-anomaly model.
type AnomalyConfig struct {
	MilesPerYear     float64
	AnomalyGoodMiles float64
	AnomalyBadMiles  float64
}

// DefaultAnomalyConfig returns the documented anomaly-model defaults. The
// good threshold is negative: fewer miles than expected is good.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		MilesPerYear:     12000,
		AnomalyGoodMiles: -15000,
		AnomalyBadMiles:  15000,
	}
}

func (c AnomalyConfig) normalized() AnomalyConfig {
	d := DefaultAnomalyConfig()
	return AnomalyConfig{
		MilesPerYear:     finiteOr(c.MilesPerYear, d.MilesPerYear),
		AnomalyGoodMiles: finiteOr(c.AnomalyGoodMiles, d.AnomalyGoodMiles),
		AnomalyBadMiles:  finiteOr(c.AnomalyBadMiles, d.AnomalyBadMiles),
	}
}

// ScoreConfig holds the parameters of the composite weighted deal score.
type ScoreConfig struct {
	RatingWeight float64
	MilesWeight  float64
	MilesScale   float64
	GoodScoreCut float64
	PoorScoreCut float64
}

// DefaultScoreConfig returns the documented composite-score defaults.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		RatingWeight: 1,
		MilesWeight:  1,
		MilesScale:   25000,
		GoodScoreCut: 70,
		PoorScoreCut: 40,
	}
}

// normalized coerces fields to finite values and clamps the blend weights
// non-negative. The cut points are integer-valued and get truncated.
func (c ScoreConfig) normalized() ScoreConfig {
	d := DefaultScoreConfig()
	return ScoreConfig{
		RatingWeight: math.Max(finiteOr(c.RatingWeight, d.RatingWeight), 0),
		MilesWeight:  math.Max(finiteOr(c.MilesWeight, d.MilesWeight), 0),
		MilesScale:   finiteOr(c.MilesScale, d.MilesScale),
		GoodScoreCut: math.Trunc(finiteOr(c.GoodScoreCut, d.GoodScoreCut)),
		PoorScoreCut: math.Trunc(finiteOr(c.PoorScoreCut, d.PoorScoreCut)),
	}
}

// finiteOr returns value if it is finite, fallback otherwise.
func finiteOr(value, fallback float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fallback
	}
	return value
}
