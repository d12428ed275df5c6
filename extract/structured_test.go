package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseJSON(t *testing.T, raw string) any {
	t.Helper()
	var parsed any
	require.NoError(t, json.Unmarshal([]byte(raw), &parsed))
	return parsed
}

// TestScanStructured_VehicleFields verifies year, mileage and price read
// from a schema.org Vehicle fragment
func TestScanStructured_VehicleFields(t *testing.T) {
	parsed := parseJSON(t, `{
		"@type": "Vehicle",
		"vehicleModelDate": "2018",
		"mileageFromOdometer": {"@type": "QuantitativeValue", "value": 72000, "unitCode": "SMI"},
		"offers": {"@type": "Offer", "price": 21500}
	}`)

	sig := &Signals{}
	scanStructured(parsed, sig)

	require.NotNil(t, sig.Year)
	assert.Equal(t, 2018, *sig.Year)
	require.NotNil(t, sig.Miles)
	assert.Equal(t, 72000.0, *sig.Miles)
	require.NotNil(t, sig.Price)
	assert.Equal(t, 21500.0, *sig.Price)
}

// TestScanStructured_YearFromName verifies the name field is a fallback
// for the model year
func TestScanStructured_YearFromName(t *testing.T) {
	parsed := parseJSON(t, `{"name": "Certified 2020 Toyota Camry SE"}`)

	sig := &Signals{}
	scanStructured(parsed, sig)

	require.NotNil(t, sig.Year)
	assert.Equal(t, 2020, *sig.Year)
}

// TestScanStructured_OfferListFirstNumericPriceWins verifies offer-list
// handling skips offers without a numeric price
func TestScanStructured_OfferListFirstNumericPriceWins(t *testing.T) {
	parsed := parseJSON(t, `{
		"offers": [
			{"availability": "InStock"},
			{"price": "18995"},
			{"price": 17500}
		]
	}`)

	sig := &Signals{}
	scanStructured(parsed, sig)

	require.NotNil(t, sig.Price)
	assert.Equal(t, 18995.0, *sig.Price)
}

// TestScanStructured_MileageAsString verifies a stringly-typed odometer
// value parses through the mileage extractor
func TestScanStructured_MileageAsString(t *testing.T) {
	parsed := parseJSON(t, `{"mileageFromOdometer": "45,231 mi"}`)

	sig := &Signals{}
	scanStructured(parsed, sig)

	require.NotNil(t, sig.Miles)
	assert.Equal(t, 45231.0, *sig.Miles)
}

// TestScanStructured_NestedGraph verifies the walk descends nested
// objects and arrays
func TestScanStructured_NestedGraph(t *testing.T) {
	parsed := parseJSON(t, `{
		"@graph": [
			{"@type": "WebPage"},
			{"about": {"vehicleModelDate": "2016", "price": "$13,400"}}
		]
	}`)

	sig := &Signals{}
	scanStructured(parsed, sig)

	require.NotNil(t, sig.Year)
	assert.Equal(t, 2016, *sig.Year)
	require.NotNil(t, sig.Price)
	assert.Equal(t, 13400.0, *sig.Price)
}

// TestScanStructured_ShortCircuitPerField verifies the first branch that
// supplies a field wins
func TestScanStructured_ShortCircuitPerField(t *testing.T) {
	parsed := parseJSON(t, `[
		{"vehicleModelDate": "2019"},
		{"vehicleModelDate": "1999"}
	]`)

	sig := &Signals{}
	scanStructured(parsed, sig)

	require.NotNil(t, sig.Year)
	assert.Equal(t, 2019, *sig.Year)
}

// TestScanStructured_EmptyFragment verifies nothing is filled from data
// without recognized fields
func TestScanStructured_EmptyFragment(t *testing.T) {
	parsed := parseJSON(t, `{"headline": "shop our inventory", "count": 42}`)

	sig := &Signals{}
	scanStructured(parsed, sig)

	assert.Nil(t, sig.Year)
	assert.Nil(t, sig.Miles)
	assert.Nil(t, sig.Price)
}

// TestWalkObjects_DepthCap verifies the defensive depth bound stops the
// walk instead of recursing without limit
func TestWalkObjects_DepthCap(t *testing.T) {
	deep := "1"
	for i := 0; i < maxWalkDepth+10; i++ {
		deep = `{"nested": ` + deep + `}`
	}

	visited := 0
	walkObjects(parseJSON(t, deep), 0, func(obj map[string]any) {
		visited++
	})

	assert.LessOrEqual(t, visited, maxWalkDepth+1)
}
