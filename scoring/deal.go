package scoring

import "math"

// DealLabel is the verdict of the linear price-expectation model.
type DealLabel string

// Deal labels.
const (
	DealGood       DealLabel = "GOOD"
	DealFair       DealLabel = "FAIR"
	DealOverpriced DealLabel = "OVERPRICED"
)

// DealAssessment is the immutable output of the deal model: a label plus the
// numeric deltas that justify it. A non-finite ExpectedPrice means the
// listing could not be assessed; callers must treat it as "cannot assess",
// not as a price.
type DealAssessment struct {
	ExpectedPrice float64
	DealDelta     float64
	DealDeltaPct  float64
	Label         DealLabel
}

// ExpectedPrice computes the reference price for a listing from the linear
// model: the anchor price adjusted by model-year distance and mileage
// distance from the anchor listing. Returns NaN when either input is
// non-finite.
func ExpectedPrice(year, miles float64, cfg DealConfig) float64 {
	c := cfg.normalized()

	if !isFinite(year) || !isFinite(miles) {
		return math.NaN()
	}

	yearAdjustment := (year - c.AnchorYear) * c.DollarsPerYear
	mileAdjustment := (c.AnchorMiles - miles) * c.DollarsPerMile
	return c.AnchorPrice + yearAdjustment + mileAdjustment
}

// AssessDeal compares the asking price against the expected price and labels
// the delta. Pure: identical inputs always produce identical assessments.
// On any non-finite input the result is the NaN sentinel with a neutral
// label rather than a failure.
func AssessDeal(year, miles, price float64, cfg DealConfig) DealAssessment {
	c := cfg.normalized()
	expected := ExpectedPrice(year, miles, c)

	if !isFinite(expected) || !isFinite(price) {
		return DealAssessment{
			ExpectedPrice: math.NaN(),
			DealDelta:     math.NaN(),
			DealDeltaPct:  math.NaN(),
			Label:         DealFair,
		}
	}

	delta := expected - price

	deltaPct := 0.0
	if expected != 0 {
		deltaPct = delta / expected * 100
	}

	label := DealFair
	if delta >= c.GoodDealThresholdDollars {
		label = DealGood
	} else if delta <= c.BadDealThresholdDollars {
		label = DealOverpriced
	}

	return DealAssessment{
		ExpectedPrice: expected,
		DealDelta:     delta,
		DealDeltaPct:  deltaPct,
		Label:         label,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
