// Package classify decides which DOM subtrees are eligible listing units on
// the current page: the whole document on a single-listing detail view, or
// individual result cards on a search-results view.
package classify

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dealscope/dealscope/layout"
)

// PageMode is the detected kind of page.
type PageMode string

// Page modes.
const (
	ModeDetail  PageMode = "detail"
	ModeResults PageMode = "results"
	ModeNone    PageMode = "none"
)

// Unit is one candidate listing subtree. The ID is stable across passes for
// the same document shape, so annotation write-back can find and update its
// own prior output instead of duplicating it. Ineligible units are returned
// too: any prior annotation on them must be cleaned up, never left stale.
type Unit struct {
	ID        string
	Mode      PageMode
	Selection *goquery.Selection
	Eligible  bool
	Reason    string
}

// Classify inspects a document and returns its mode plus every candidate
// listing unit. A detail page yields exactly one unit spanning the whole
// document; a results page yields one unit per card.
func Classify(doc *goquery.Document, profile layout.Profile) (PageMode, []Unit) {
	if isDetailPage(doc, profile.Detail) {
		return ModeDetail, []Unit{{
			ID:        "detail",
			Mode:      ModeDetail,
			Selection: doc.Selection,
			Eligible:  true,
		}}
	}

	units := resultCards(doc, profile.Card)
	if len(units) == 0 {
		return ModeNone, nil
	}
	return ModeResults, units
}

// isDetailPage applies the structural heuristic for a single-listing view:
// a title, a price element and a specification block must all be present.
func isDetailPage(doc *goquery.Document, rules layout.DetailRules) bool {
	return anyHasText(doc.Selection, rules.TitleSelectors) &&
		anyHasText(doc.Selection, rules.PriceSelectors) &&
		anyHasText(doc.Selection, rules.SpecSelectors)
}

// resultCards collects card subtrees from the first card selector that
// matches anything, marking each eligible or not.
func resultCards(doc *goquery.Document, rules layout.CardRules) []Unit {
	var units []Unit

	for _, selector := range rules.Selectors {
		cards := doc.Find(selector)
		if cards.Length() == 0 {
			continue
		}

		cards.Each(func(i int, card *goquery.Selection) {
			unit := Unit{
				ID:        fmt.Sprintf("card-%d", i),
				Mode:      ModeResults,
				Selection: card,
			}
			unit.Eligible, unit.Reason = cardEligible(card, rules)
			units = append(units, unit)
		})
		break
	}

	return units
}

// cardEligible checks one card against the structural requirements and the
// exclusion markers.
func cardEligible(card *goquery.Selection, rules layout.CardRules) (bool, string) {
	if !anyHasText(card, rules.TitleSelectors) {
		return false, "no title element"
	}
	if !anyHasText(card, rules.PriceSelectors) {
		return false, "no price element"
	}

	if hint := sponsoredLink(card, rules.SponsoredLinkHints); hint != "" {
		return false, "sponsored link: " + hint
	}

	text := strings.ToLower(card.Text())
	for _, phrase := range rules.ExcludedPhrases {
		if strings.Contains(text, strings.ToLower(phrase)) {
			return false, "excluded phrase: " + phrase
		}
	}
	for _, marker := range rules.BannerMarkers {
		if bannerPresent(card, marker) {
			return false, "banner marker: " + marker
		}
	}

	return true, ""
}

// sponsoredLink reports the first promotional hint found in the card's link
// targets, or "".
func sponsoredLink(card *goquery.Selection, hints []string) string {
	found := ""
	card.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		href = strings.ToLower(href)
		for _, hint := range hints {
			if strings.Contains(href, strings.ToLower(hint)) {
				found = hint
				return false
			}
		}
		return true
	})
	return found
}

// bannerPresent looks for a marker as the standalone text of a small label
// node. Matching against the card's whole text would reject legitimate
// listings whose descriptions happen to contain the word.
func bannerPresent(card *goquery.Selection, marker string) bool {
	marker = strings.ToLower(marker)
	found := false
	card.Find("span, div, p, em, small").EachWithBreak(func(_ int, node *goquery.Selection) bool {
		if strings.ToLower(strings.TrimSpace(node.Text())) == marker {
			found = true
			return false
		}
		return true
	})
	return found
}

// anyHasText reports whether any selector matches a node with non-empty
// text.
func anyHasText(root *goquery.Selection, selectors []string) bool {
	for _, selector := range selectors {
		match := false
		root.Find(selector).EachWithBreak(func(_ int, node *goquery.Selection) bool {
			if strings.TrimSpace(node.Text()) != "" {
				match = true
				return false
			}
			return true
		})
		if match {
			return true
		}
	}
	return false
}
