package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func testSelectors() SelectorSet {
	return SelectorSet{
		Year:   []string{"h1", "[data-testid*='title']"},
		Miles:  []string{"[data-testid*='mileage']", "span"},
		Price:  []string{"[data-testid*='price']", "h2"},
		Rating: []string{"[data-testid*='badge']"},
	}
}

// TestCascade_SelectorsWin verifies the layout source satisfies all fields
// when the page matches the profile
func TestCascade_SelectorsWin(t *testing.T) {
	doc := docFromHTML(t, `<html><head><title>listing</title></head><body>
		<h1>2019 Honda Accord</h1>
		<span data-testid="mileage">80,000 miles</span>
		<div data-testid="price">$40,000</div>
		<em data-testid="badge">Great Price</em>
	</body></html>`)

	prov := NewProvenance()
	sig := NewCascade(testSelectors()).Run(doc.Selection, prov)

	require.NotNil(t, sig.Year)
	assert.Equal(t, 2019, *sig.Year)
	require.NotNil(t, sig.Miles)
	assert.Equal(t, 80000.0, *sig.Miles)
	require.NotNil(t, sig.Price)
	assert.Equal(t, 40000.0, *sig.Price)
	require.NotNil(t, sig.Rating)
	assert.Equal(t, RatingGreatPrice, *sig.Rating)

	assert.Equal(t, "layout:h1", prov.Sources["year"])
	assert.Equal(t, "layout:[data-testid*='mileage']", prov.Sources["miles"])
}

// TestCascade_FieldsAreIndependent verifies one field can come from the
// layout source while another falls through to structured data
func TestCascade_FieldsAreIndependent(t *testing.T) {
	doc := docFromHTML(t, `<html><head>
		<script type="application/ld+json">{"offers": {"price": 23750}}</script>
	</head><body>
		<h1>2021 Subaru Outback</h1>
		<span>62,500 miles</span>
	</body></html>`)

	prov := NewProvenance()
	sig := NewCascade(testSelectors()).Run(doc.Selection, prov)

	require.NotNil(t, sig.Year)
	assert.Equal(t, 2021, *sig.Year)
	require.NotNil(t, sig.Price)
	assert.Equal(t, 23750.0, *sig.Price)

	assert.Equal(t, "layout:h1", prov.Sources["year"])
	assert.Equal(t, "jsonld", prov.Sources["price"])
}

// TestCascade_TitleFallbackForYear verifies the page title supplies the
// year when no tagged region does
func TestCascade_TitleFallbackForYear(t *testing.T) {
	doc := docFromHTML(t, `<html><head>
		<title>Used 2017 Mazda CX-5 for sale</title>
	</head><body><p>nothing structured here</p></body></html>`)

	prov := NewProvenance()
	sig := NewCascade(testSelectors()).Run(doc.Selection, prov)

	require.NotNil(t, sig.Year)
	assert.Equal(t, 2017, *sig.Year)
	assert.Equal(t, "title", prov.Sources["year"])
}

// TestCascade_DocTextFallback verifies the bounded whole-document scan is
// the last resort for miles and price
func TestCascade_DocTextFallback(t *testing.T) {
	doc := docFromHTML(t, `<html><head><title>x</title></head><body>
		<p>Odometer shows 91,200 miles and we ask $8,995 firm.</p>
	</body></html>`)

	prov := NewProvenance()
	sig := NewCascade(SelectorSet{}).Run(doc.Selection, prov)

	require.NotNil(t, sig.Miles)
	assert.Equal(t, 91200.0, *sig.Miles)
	require.NotNil(t, sig.Price)
	assert.Equal(t, 8995.0, *sig.Price)
	assert.Equal(t, "doctext", prov.Sources["miles"])
	assert.Equal(t, "doctext", prov.Sources["price"])
}

// TestCascade_MissingFieldsStayNil verifies an exhausted cascade yields
// nil, not an error or a bogus value
func TestCascade_MissingFieldsStayNil(t *testing.T) {
	doc := docFromHTML(t, `<html><body><p>coming soon</p></body></html>`)

	prov := NewProvenance()
	sig := NewCascade(testSelectors()).Run(doc.Selection, prov)

	assert.Nil(t, sig.Year)
	assert.Nil(t, sig.Miles)
	assert.Nil(t, sig.Price)
	assert.Nil(t, sig.Rating)
	assert.False(t, sig.Complete())
}

// TestCascade_NodeCapPerSelector verifies at most maxNodesPerSelector
// candidates are inspected for one selector
func TestCascade_NodeCapPerSelector(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := 0; i < maxNodesPerSelector+5; i++ {
		b.WriteString(`<span>filler text</span>`)
	}
	// The only parseable span sits beyond the inspection cap.
	b.WriteString(`<span>77,000 miles</span></body></html>`)

	doc := docFromHTML(t, b.String())
	prov := NewProvenance()

	miles := firstFromSelectors(doc.Selection, []string{"span"}, "miles", prov, ParseMiles)

	assert.Nil(t, miles)
}

// TestCascade_MalformedStructuredDataIsSkipped verifies a broken JSON-LD
// block doesn't break the cascade
func TestCascade_MalformedStructuredDataIsSkipped(t *testing.T) {
	doc := docFromHTML(t, `<html><head>
		<script type="application/ld+json">{not valid json</script>
		<script type="application/ld+json">{"vehicleModelDate": "2014"}</script>
	</head><body></body></html>`)

	prov := NewProvenance()
	sig := NewCascade(SelectorSet{}).Run(doc.Selection, prov)

	require.NotNil(t, sig.Year)
	assert.Equal(t, 2014, *sig.Year)
}

// TestNewProvenance_TraceIdentifiesPass verifies the trace opens with the
// pass ID
func TestNewProvenance_TraceIdentifiesPass(t *testing.T) {
	prov := NewProvenance()

	require.NotEmpty(t, prov.Lines)
	assert.Contains(t, prov.Lines[0], prov.PassID.String())
}

// TestProvenance_FirstRecordWins verifies later sources never overwrite a
// field's winning source
func TestProvenance_FirstRecordWins(t *testing.T) {
	prov := NewProvenance()
	prov.Record("year", "layout:h1")
	prov.Record("year", "jsonld")

	assert.Equal(t, "layout:h1", prov.Sources["year"])
}

// TestRatingOrNeutral verifies the nil rating maps to the neutral value
func TestRatingOrNeutral(t *testing.T) {
	sig := &Signals{}
	assert.Equal(t, RatingNeutral, sig.RatingOrNeutral())

	rating := RatingGreatPrice
	sig.Rating = &rating
	assert.Equal(t, RatingGreatPrice, sig.RatingOrNeutral())
}
