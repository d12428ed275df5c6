package classify

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealscope/dealscope/layout"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

// TestClassify_DetailPage verifies a page with a title, a price and a spec
// block yields a single eligible unit spanning the whole document
func TestClassify_DetailPage(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<h1>2021 Honda Accord EX-L</h1>
		<div data-cmp="pricing">$24,500</div>
		<div data-cmp="specifications">45,231 miles</div>
	</body></html>`)

	mode, units := Classify(doc, layout.Default())

	assert.Equal(t, ModeDetail, mode)
	require.Len(t, units, 1)
	assert.Equal(t, "detail", units[0].ID)
	assert.True(t, units[0].Eligible)
}

// TestClassify_DetailRequiresAllThreeSignals verifies a page missing the
// spec block is not treated as a detail view
func TestClassify_DetailRequiresAllThreeSignals(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<h1>2021 Honda Accord EX-L</h1>
		<div data-cmp="pricing">$24,500</div>
	</body></html>`)

	mode, _ := Classify(doc, layout.Default())

	assert.NotEqual(t, ModeDetail, mode)
}

// TestClassify_ResultsPage verifies each card becomes a unit with a stable
// positional ID
func TestClassify_ResultsPage(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<article><h2>2019 Toyota Camry</h2><h3>$18,995</h3></article>
		<article><h2>2020 Mazda CX-5</h2><h3>$22,450</h3></article>
	</body></html>`)

	mode, units := Classify(doc, layout.Default())

	assert.Equal(t, ModeResults, mode)
	require.Len(t, units, 2)
	assert.Equal(t, "card-0", units[0].ID)
	assert.Equal(t, "card-1", units[1].ID)
	assert.True(t, units[0].Eligible)
	assert.True(t, units[1].Eligible)
}

// TestClassify_NoUnits verifies a page with neither shape yields ModeNone
func TestClassify_NoUnits(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>nothing to see</p></body></html>`)

	mode, units := Classify(doc, layout.Default())

	assert.Equal(t, ModeNone, mode)
	assert.Empty(t, units)
}

// TestClassify_CardWithoutPriceIneligible verifies a card lacking a price
// element is returned but flagged ineligible so stale annotations on it can
// still be removed
func TestClassify_CardWithoutPriceIneligible(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<article><h2>2019 Toyota Camry</h2><h3>$18,995</h3></article>
		<article><h2>Coming soon</h2></article>
	</body></html>`)

	_, units := Classify(doc, layout.Default())

	require.Len(t, units, 2)
	assert.True(t, units[0].Eligible)
	assert.False(t, units[1].Eligible)
	assert.Equal(t, "no price element", units[1].Reason)
}

// TestClassify_SponsoredLinkExcluded verifies promotional link targets make
// a card ineligible
func TestClassify_SponsoredLinkExcluded(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<article>
			<h2>2019 Toyota Camry</h2><h3>$18,995</h3>
			<a href="/listing?utm_medium=promoted&id=7">View</a>
		</article>
	</body></html>`)

	_, units := Classify(doc, layout.Default())

	require.Len(t, units, 1)
	assert.False(t, units[0].Eligible)
	assert.Contains(t, units[0].Reason, "sponsored link")
}

// TestClassify_IllustrationPhraseExcluded verifies the stock-photo
// disclaimer phrase makes a card ineligible
func TestClassify_IllustrationPhraseExcluded(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<article>
			<h2>2019 Toyota Camry</h2><h3>$18,995</h3>
			<p>Image shown for illustration purposes only.</p>
		</article>
	</body></html>`)

	_, units := Classify(doc, layout.Default())

	require.Len(t, units, 1)
	assert.False(t, units[0].Eligible)
	assert.Contains(t, units[0].Reason, "excluded phrase")
}

// TestClassify_BannerMarkerStandaloneOnly verifies a banner marker counts
// only as the standalone text of a label node, not as a substring of a
// legitimate description
func TestClassify_BannerMarkerStandaloneOnly(t *testing.T) {
	banner := parseDoc(t, `<html><body>
		<article>
			<h2>2019 Toyota Camry</h2><h3>$18,995</h3>
			<span> Sponsored </span>
		</article>
	</body></html>`)

	_, units := Classify(banner, layout.Default())
	require.Len(t, units, 1)
	assert.False(t, units[0].Eligible)
	assert.Contains(t, units[0].Reason, "banner marker")

	mention := parseDoc(t, `<html><body>
		<article>
			<h2>2019 Toyota Camry</h2><h3>$18,995</h3>
			<p>This dealership sponsored our local little league.</p>
		</article>
	</body></html>`)

	_, units = Classify(mention, layout.Default())
	require.Len(t, units, 1)
	assert.True(t, units[0].Eligible)
}

// TestClassify_FirstCardSelectorWins verifies cards come from the first
// selector that matches anything, not from a union of all selectors
func TestClassify_FirstCardSelectorWins(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div data-cmp="inventoryListing"><h2>2019 Toyota Camry</h2><h3>$18,995</h3></div>
		<article><h2>2020 Mazda CX-5</h2><h3>$22,450</h3></article>
	</body></html>`)

	_, units := Classify(doc, layout.Default())

	require.Len(t, units, 1)
	assert.Equal(t, "card-0", units[0].ID)
}
