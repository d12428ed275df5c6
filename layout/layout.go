// Package layout describes where listing facts live on a page. A profile is
// a set of selector lists per field plus the structural rules the classifier
// uses to recognize listing units. Profiles are data: the built-in default
// tracks the layouts seen in the wild, and a YAML file can override it when
// a site reshuffles its markup without waiting for a release.
package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dealscope/dealscope/extract"
)

// Profile holds the selector lists for one page layout.
type Profile struct {
	Name   string   `yaml:"name"`
	Year   []string `yaml:"year"`
	Miles  []string `yaml:"miles"`
	Price  []string `yaml:"price"`
	Rating []string `yaml:"rating"`

	Detail DetailRules `yaml:"detail"`
	Card   CardRules   `yaml:"card"`
}

// DetailRules recognizes a single-listing detail view: the page qualifies
// when a title, a price and a specification block are all present.
type DetailRules struct {
	TitleSelectors []string `yaml:"title_selectors"`
	PriceSelectors []string `yaml:"price_selectors"`
	SpecSelectors  []string `yaml:"spec_selectors"`
}

// CardRules recognizes result cards in a multi-listing view and carries the
// exclusion markers for sponsored or illustrative units.
type CardRules struct {
	Selectors          []string `yaml:"selectors"`
	TitleSelectors     []string `yaml:"title_selectors"`
	PriceSelectors     []string `yaml:"price_selectors"`
	SponsoredLinkHints []string `yaml:"sponsored_link_hints"`
	BannerMarkers      []string `yaml:"banner_markers"`
	ExcludedPhrases    []string `yaml:"excluded_phrases"`
}

// Selectors converts a profile into the extraction cascade's selector set.
func (p Profile) Selectors() extract.SelectorSet {
	return extract.SelectorSet{
		Year:   p.Year,
		Miles:  p.Miles,
		Price:  p.Price,
		Rating: p.Rating,
	}
}

// Default returns the built-in profile. Selector order is priority order:
// tightly-scoped, layout-specific selectors first, generic elements last.
func Default() Profile {
	return Profile{
		Name: "default",
		Year: []string{
			"#vehicle-details-heading",
			"[data-cmp='listingTitleContainer'] h1[data-cmp='heading']",
			"[data-cmp='listingTitleContainer'] h1",
			"h1",
			"[data-cmp='heading']",
			"[data-testid*='title']",
		},
		Miles: []string{
			"[data-cmp='listingTitleContainer'] + [data-cmp='section'] span.no-wrap",
			"[data-cmp='listingTitleContainer'] + [data-cmp='section'] span",
			"[data-cmp='mileage']",
			"[data-cmp*='mile']",
			"[data-testid*='mileage']",
			"[data-testid*='odometer']",
			"[data-cmp='section'] span.no-wrap",
			"span.no-wrap",
			"li",
			"span",
		},
		Price: []string{
			"[data-cmp='pricing'] [data-cmp='firstPrice']",
			"[data-cmp='pricingBreakdown'] tr:first-child td:last-child",
			"[data-cmp='firstPrice']",
			"[data-cmp='pricing']",
			"[data-cmp='priceSection'] [data-cmp='heading'] + div",
			"[data-cmp='price']",
			"[data-testid*='price']",
			"h2",
			"h3",
		},
		Rating: []string{
			"[data-cmp='priceBadge']",
			"[data-testid*='rating']",
			"[data-testid*='badge']",
		},
		Detail: DetailRules{
			TitleSelectors: []string{
				"#vehicle-details-heading",
				"[data-cmp='listingTitleContainer'] h1",
				"h1",
			},
			PriceSelectors: []string{
				"[data-cmp='pricing']",
				"[data-cmp='firstPrice']",
				"[data-testid*='price']",
			},
			SpecSelectors: []string{
				"[data-cmp='listingTitleContainer'] + [data-cmp='section']",
				"[data-cmp='specifications']",
				"[data-testid*='spec']",
			},
		},
		Card: CardRules{
			Selectors: []string{
				"[data-cmp='inventoryListing']",
				"[data-testid*='listing-card']",
				"article",
			},
			TitleSelectors: []string{
				"h2",
				"h3",
				"[data-cmp='subheading']",
			},
			PriceSelectors: []string{
				"[data-cmp='firstPrice']",
				"[data-testid*='price']",
				"h2",
				"h3",
			},
			SponsoredLinkHints: []string{
				"sponsored",
				"utm_medium=promoted",
				"clicktype=spotlight",
			},
			BannerMarkers: []string{
				"sponsored",
				"featured listing",
				"advertisement",
			},
			ExcludedPhrases: []string{
				"for illustration purposes only",
			},
		},
	}
}

// Load reads a profile from a YAML file. A missing file is not an error:
// the default profile is returned. Fields left empty in the file inherit
// the default, so an override file only needs the selectors that changed.
func Load(path string) (Profile, error) {
	profile := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("failed to read layout profile: %w", err)
	}

	var override Profile
	if err := yaml.Unmarshal(data, &override); err != nil {
		return profile, fmt.Errorf("failed to parse layout profile: %w", err)
	}

	return profile.merge(override), nil
}

// merge overlays non-empty fields of an override onto the profile.
func (p Profile) merge(o Profile) Profile {
	if o.Name != "" {
		p.Name = o.Name
	}
	if len(o.Year) > 0 {
		p.Year = o.Year
	}
	if len(o.Miles) > 0 {
		p.Miles = o.Miles
	}
	if len(o.Price) > 0 {
		p.Price = o.Price
	}
	if len(o.Rating) > 0 {
		p.Rating = o.Rating
	}

	if len(o.Detail.TitleSelectors) > 0 {
		p.Detail.TitleSelectors = o.Detail.TitleSelectors
	}
	if len(o.Detail.PriceSelectors) > 0 {
		p.Detail.PriceSelectors = o.Detail.PriceSelectors
	}
	if len(o.Detail.SpecSelectors) > 0 {
		p.Detail.SpecSelectors = o.Detail.SpecSelectors
	}

	if len(o.Card.Selectors) > 0 {
		p.Card.Selectors = o.Card.Selectors
	}
	if len(o.Card.TitleSelectors) > 0 {
		p.Card.TitleSelectors = o.Card.TitleSelectors
	}
	if len(o.Card.PriceSelectors) > 0 {
		p.Card.PriceSelectors = o.Card.PriceSelectors
	}
	if len(o.Card.SponsoredLinkHints) > 0 {
		p.Card.SponsoredLinkHints = o.Card.SponsoredLinkHints
	}
	if len(o.Card.BannerMarkers) > 0 {
		p.Card.BannerMarkers = o.Card.BannerMarkers
	}
	if len(o.Card.ExcludedPhrases) > 0 {
		p.Card.ExcludedPhrases = o.Card.ExcludedPhrases
	}

	return p
}
