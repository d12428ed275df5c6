package scoring

import "math"

// ScoreTier buckets a composite deal score.
type ScoreTier string

// Score tiers.
const (
	TierGood    ScoreTier = "good"
	TierNeutral ScoreTier = "neutral"
	TierPoor    ScoreTier = "poor"
)

// DealScore is the immutable output of the composite weighted model: a
// 0-100 score blending a third-party rating signal with the mileage delta,
// plus the normalized components that produced it.
type DealScore struct {
	Score            int
	NormalizedRating float64
	NormalizedMiles  float64
	Blend            float64
	Tier             ScoreTier
}

// weightEpsilon keeps the weight normalization defined when both weights
// are zero.
const weightEpsilon = 1e-9

// ComputeDealScore blends a rating in [0, 1] with a mileage delta into a
// 0-100 score. The rating maps to [-1, 1] around its midpoint; the mileage
// delta maps to [-1, 1] by clamping against the configured scale (fewer
// miles than expected scores positive). Weights are normalized to sum to 1.
func ComputeDealScore(rating, deltaMiles float64, cfg ScoreConfig) DealScore {
	c := cfg.normalized()

	if !isFinite(rating) {
		rating = 0
	}
	if !isFinite(deltaMiles) {
		deltaMiles = 0
	}

	normalizedRating := (rating - 0.5) * 2

	normalizedMiles := 0.0
	if c.MilesScale > 0 {
		normalizedMiles = clamp(-deltaMiles/c.MilesScale, -1, 1)
	}

	totalWeight := c.RatingWeight + c.MilesWeight + weightEpsilon
	blend := (c.RatingWeight/totalWeight)*normalizedRating +
		(c.MilesWeight/totalWeight)*normalizedMiles

	score := int(math.Round((blend + 1) / 2 * 100))

	tier := TierNeutral
	if float64(score) >= c.GoodScoreCut {
		tier = TierGood
	} else if float64(score) <= c.PoorScoreCut {
		tier = TierPoor
	}

	return DealScore{
		Score:            score,
		NormalizedRating: normalizedRating,
		NormalizedMiles:  normalizedMiles,
		Blend:            blend,
		Tier:             tier,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
