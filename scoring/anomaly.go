package scoring

import "math"

// AnomalyLabel is the verdict of the mileage-anomaly model.
type AnomalyLabel string

// Anomaly labels.
const (
	AnomalyLow    AnomalyLabel = "LOW"
	AnomalyNormal AnomalyLabel = "NORMAL"
	AnomalyHigh   AnomalyLabel = "HIGH"
)

// MilesAnomaly is the immutable output of the mileage-anomaly model.
type MilesAnomaly struct {
	AgeYears      int
	ExpectedMiles float64
	AnomalyMiles  float64
	AnomalyPct    float64
	Label         AnomalyLabel
}

// ComputeMilesAnomaly compares a listing's odometer reading against the
// expected accumulation for its age. A zero-age listing is expected to have
// one year's worth of wear, not zero, so a current-model-year listing with a
// few thousand miles doesn't read as anomalous. Returns nil when either
// input is non-finite. currentYear is injected so callers control the clock.
func ComputeMilesAnomaly(year, miles float64, currentYear int, cfg AnomalyConfig) *MilesAnomaly {
	if !isFinite(year) || !isFinite(miles) {
		return nil
	}

	c := cfg.normalized()

	ageYears := currentYear - int(year)
	if ageYears < 0 {
		ageYears = 0
	}

	expectedMiles := c.MilesPerYear
	if ageYears > 0 {
		expectedMiles = float64(ageYears) * c.MilesPerYear
	}

	if !isFinite(expectedMiles) {
		return nil
	}

	anomalyMiles := miles - expectedMiles
	anomalyPct := anomalyMiles / math.Max(expectedMiles, 1)

	label := AnomalyNormal
	if anomalyMiles <= c.AnomalyGoodMiles {
		label = AnomalyLow
	} else if anomalyMiles >= c.AnomalyBadMiles {
		label = AnomalyHigh
	}

	return &MilesAnomaly{
		AgeYears:      ageYears,
		ExpectedMiles: expectedMiles,
		AnomalyMiles:  anomalyMiles,
		AnomalyPct:    anomalyPct,
		Label:         label,
	}
}
