package extract

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/google/uuid"
)

const (
	// maxNodesPerSelector bounds candidate inspection on pages with many
	// repeated nodes.
	maxNodesPerSelector = 30

	// maxDocTextChars bounds the whole-document fallback scan so a huge page
	// can't turn one pass into a runaway.
	maxDocTextChars = 120000
)

// Signals holds the extracted facts for one listing unit. A field is nil
// only if every source in the cascade failed to produce it. Signals are
// recomputed fresh on every pass, never cached.
type Signals struct {
	Year   *int
	Miles  *float64
	Price  *float64
	Rating *float64
}

// Complete reports whether the three facts required for a deal assessment
// are all present. Rating is optional; it only feeds the composite score.
func (s *Signals) Complete() bool {
	return s.Year != nil && s.Miles != nil && s.Price != nil
}

// RatingOrNeutral returns the extracted rating, or the neutral value when no
// rating element was found.
func (s *Signals) RatingOrNeutral() float64 {
	if s.Rating == nil {
		return RatingNeutral
	}
	return *s.Rating
}

// Provenance records which source satisfied which field, plus a free-form
// trace of the cascade, for diagnostics.
type Provenance struct {
	PassID  uuid.UUID
	Sources map[string]string
	Lines   []string
}

// NewProvenance creates a provenance trail with a fresh pass ID. The trace
// opens with the pass ID so the debug trail identifies which pass wrote it.
func NewProvenance() *Provenance {
	p := &Provenance{
		PassID:  uuid.New(),
		Sources: make(map[string]string),
	}
	p.Logf("pass %s", p.PassID)
	return p
}

// Record notes the source that satisfied a field. The first record for a
// field wins; later sources never overwrite it.
func (p *Provenance) Record(field, sourceTag string) {
	if _, ok := p.Sources[field]; !ok {
		p.Sources[field] = sourceTag
	}
}

// Logf appends a formatted line to the trace.
func (p *Provenance) Logf(format string, args ...any) {
	p.Lines = append(p.Lines, fmt.Sprintf(format, args...))
}

// Source is one strategy for recovering facts from a listing unit. Sources
// fill only the fields that are still nil and must never fail: a source that
// finds nothing simply leaves the signals untouched.
type Source interface {
	Name() string
	Extract(unit *goquery.Selection, sig *Signals, prov *Provenance)
}

// SelectorSet holds the per-field selector lists for the layout-selector
// source, in priority order.
type SelectorSet struct {
	Year   []string
	Miles  []string
	Price  []string
	Rating []string
}

// Cascade runs an ordered list of sources over listing units. Earlier
// sources are higher confidence; the first source to produce a validated
// value for a field wins for that field. Fields are independent: year and
// price may come from different sources.
type Cascade struct {
	sources []Source
}

// NewCascade builds the standard cascade for a selector set: layout
// selectors, embedded structured data, page title, then a bounded
// whole-document text scan.
func NewCascade(selectors SelectorSet) *Cascade {
	return &Cascade{
		sources: []Source{
			&SelectorSource{Selectors: selectors},
			&StructuredSource{},
			&TitleSource{},
			&DocTextSource{},
		},
	}
}

// NewCascadeWithSources builds a cascade from an explicit source list.
func NewCascadeWithSources(sources ...Source) *Cascade {
	return &Cascade{sources: sources}
}

// Run extracts signals for one listing unit. It never fails; a field that
// exhausts every source stays nil and downstream scoring handles the
// missing-data case explicitly.
func (c *Cascade) Run(unit *goquery.Selection, prov *Provenance) *Signals {
	sig := &Signals{}

	for _, source := range c.sources {
		if sig.Complete() && sig.Rating != nil {
			break
		}
		source.Extract(unit, sig, prov)
	}

	prov.Logf("final: year=%s, miles=%s, price=%s",
		intOrMissing(sig.Year), floatOrMissing(sig.Miles), floatOrMissing(sig.Price))

	return sig
}

func intOrMissing(v *int) string {
	if v == nil {
		return "missing"
	}
	return fmt.Sprintf("%d", *v)
}

func floatOrMissing(v *float64) string {
	if v == nil {
		return "missing"
	}
	return fmt.Sprintf("%g", *v)
}

// SelectorSource reads fields from page-specific known locations: tagged
// regions of the document believed to hold each field on the current layout.
type SelectorSource struct {
	Selectors SelectorSet
}

// Name identifies the source in provenance records.
func (s *SelectorSource) Name() string { return "layout" }

// Extract fills still-missing fields from the selector lists.
func (s *SelectorSource) Extract(unit *goquery.Selection, sig *Signals, prov *Provenance) {
	if sig.Year == nil {
		sig.Year = firstFromSelectors(unit, s.Selectors.Year, "year", prov, func(text string) *int {
			return ParseYear(text)
		})
	}

	if sig.Miles == nil {
		sig.Miles = firstFromSelectors(unit, s.Selectors.Miles, "miles", prov, func(text string) *float64 {
			return ParseMiles(text)
		})
	}

	if sig.Price == nil {
		sig.Price = firstFromSelectors(unit, s.Selectors.Price, "price", prov, func(text string) *float64 {
			return ParsePrice(text)
		})
	}

	if sig.Rating == nil {
		sig.Rating = firstFromSelectors(unit, s.Selectors.Rating, "rating", prov, parseKnownRating)
	}
}

// parseKnownRating returns a rating only for known phrases. Consumers map a
// fully absent rating to neutral via RatingOrNeutral.
func parseKnownRating(text string) *float64 {
	lowered := strings.ToLower(text)
	if strings.Contains(lowered, "great price") {
		rating := RatingGreatPrice
		return &rating
	}
	if strings.Contains(lowered, "good price") {
		rating := RatingGoodPrice
		return &rating
	}
	return nil
}

// firstFromSelectors tries each selector in order, inspecting at most
// maxNodesPerSelector nodes per selector, and returns the first parsed
// value. Generic over the field's value type.
func firstFromSelectors[T any](
	unit *goquery.Selection,
	selectors []string,
	field string,
	prov *Provenance,
	parse func(text string) *T,
) *T {
	for _, selector := range selectors {
		var found *T

		unit.Find(selector).EachWithBreak(func(i int, node *goquery.Selection) bool {
			if i >= maxNodesPerSelector {
				return false
			}

			if parsed := parse(CleanText(node.Text())); parsed != nil {
				found = parsed
				return false
			}
			return true
		})

		if found != nil {
			prov.Record(field, "layout:"+selector)
			prov.Logf("%s: %v (selector %q)", field, *found, selector)
			return found
		}
	}

	prov.Logf("%s: no selector match", field)
	return nil
}

// StructuredSource reads embedded machine-readable listing data from
// JSON-LD script blocks. The first script that supplies any field wins; the
// walk inside a script short-circuits per field across nested branches.
type StructuredSource struct{}

// Name identifies the source in provenance records.
func (s *StructuredSource) Name() string { return "jsonld" }

// Extract fills still-missing fields from parsed JSON-LD fragments.
func (s *StructuredSource) Extract(unit *goquery.Selection, sig *Signals, prov *Provenance) {
	before := *sig

	unit.Find("script[type='application/ld+json']").EachWithBreak(func(i int, script *goquery.Selection) bool {
		var parsed any
		if err := json.Unmarshal([]byte(script.Text()), &parsed); err != nil {
			return true // malformed fragment, try the next one
		}

		scanStructured(parsed, sig)

		// Stop at the first script that produced anything.
		return sig.Year == before.Year && sig.Miles == before.Miles && sig.Price == before.Price
	})

	changed := false
	if sig.Year != before.Year {
		prov.Record("year", s.Name())
		changed = true
	}
	if sig.Miles != before.Miles {
		prov.Record("miles", s.Name())
		changed = true
	}
	if sig.Price != before.Price {
		prov.Record("price", s.Name())
		changed = true
	}

	if changed {
		prov.Logf("jsonld: year=%s, miles=%s, price=%s",
			intOrMissing(sig.Year), floatOrMissing(sig.Miles), floatOrMissing(sig.Price))
	} else {
		prov.Logf("jsonld: no useful values")
	}
}

// TitleSource recovers the model year from the page title. Only whole-page
// units have a title element; for result cards this source is a no-op.
type TitleSource struct{}

// Name identifies the source in provenance records.
func (s *TitleSource) Name() string { return "title" }

// Extract fills a still-missing year from the title text.
func (s *TitleSource) Extract(unit *goquery.Selection, sig *Signals, prov *Provenance) {
	if sig.Year != nil {
		return
	}

	title := CleanText(unit.Find("title").First().Text())
	if title == "" {
		return
	}

	if year := ParseYear(title); year != nil {
		sig.Year = year
		prov.Record("year", s.Name())
		prov.Logf("year: %d (title fallback)", *year)
	}
}

// DocTextSource is the last resort: a scan over the unit's whole text,
// bounded to a fixed character budget. For document-level units it first
// tries a readability harvest, which strips navigation chrome and leaves the
// listing copy; on failure it falls back to the raw node text.
type DocTextSource struct{}

// Name identifies the source in provenance records.
func (s *DocTextSource) Name() string { return "doctext" }

// Extract fills still-missing fields from the bounded text scan. The
// readability harvest can drop short headings a field lives in, so the raw
// text is scanned as well for anything the harvest did not supply.
func (s *DocTextSource) Extract(unit *goquery.Selection, sig *Signals, prov *Provenance) {
	for _, raw := range harvestTexts(unit) {
		if sig.Complete() {
			return
		}

		text := capChars(CleanText(raw), maxDocTextChars)
		if text == "" {
			continue
		}

		if sig.Year == nil {
			if year := ParseYear(text); year != nil {
				sig.Year = year
				prov.Record("year", s.Name())
				prov.Logf("year: %d (document text fallback)", *year)
			}
		}

		if sig.Miles == nil {
			if miles := ParseMiles(text); miles != nil {
				sig.Miles = miles
				prov.Record("miles", s.Name())
				prov.Logf("miles: %g (document text fallback)", *miles)
			}
		}

		if sig.Price == nil {
			if price := ParsePrice(text); price != nil {
				sig.Price = price
				prov.Record("price", s.Name())
				prov.Logf("price: %g (document text fallback)", *price)
			}
		}
	}
}

// harvestTexts returns the texts to scan for a unit, best first. Document
// shaped units get a readability harvest, which strips navigation chrome;
// the raw node text is always the last entry.
func harvestTexts(unit *goquery.Selection) []string {
	if len(unit.Nodes) == 0 {
		return nil
	}

	var texts []string
	if html, err := goquery.OuterHtml(unit); err == nil && strings.Contains(html, "<body") {
		pageURL, _ := url.Parse("http://localhost/")
		if article, err := readability.FromReader(strings.NewReader(html), pageURL); err == nil {
			if text := CleanText(article.TextContent); text != "" {
				texts = append(texts, text)
			}
		}
	}

	return append(texts, unit.Text())
}

// capChars truncates text to at most n runes.
func capChars(text string, n int) string {
	if len(text) <= n {
		return text
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
