package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	yearPattern  = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	pricePattern = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	milesPattern = regexp.MustCompile(`([0-9][0-9,]*(?:\.[0-9]+)?)\s*([km])?\s*(?:mi|miles)\b`)
)

// Rating values for known third-party price-quality phrases. Unknown or
// absent text maps to the neutral value 0.
const (
	RatingGreatPrice = 1.0
	RatingGoodPrice  = 0.75
	RatingNeutral    = 0.0
)

// CleanText collapses runs of whitespace into single spaces and trims the
// result. All extractors expect their input to be cleaned first.
func CleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// ParseYear returns the first plausible vehicle model year in text (a
// four-digit token starting with 19 or 20), or nil if none is present.
func ParseYear(text string) *int {
	match := yearPattern.FindString(text)
	if match == "" {
		return nil
	}

	year, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}

	return &year
}

// ParsePrice returns the first dollar-denominated amount in text, with
// thousands separators stripped, or nil if none is present. A bare number
// without a currency marker is not treated as a price; free text is full of
// numbers that aren't.
func ParsePrice(text string) *float64 {
	match := pricePattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	price, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return nil
	}

	return &price
}

// ParseMiles returns the odometer reading in text, or nil if no mileage
// candidate survives. Candidates are numeric tokens followed by a distance
// unit ("mi"/"miles"), with an optional magnitude suffix (k = x1,000,
// m = x1,000,000). A candidate whose trailing text window contains "away" is
// rejected: that's distance from the buyer, not an odometer reading. Among
// survivors, an odometer-scale value (>= 1000) beats a smaller one, and the
// larger value wins otherwise. Downstream behavior depends on this exact
// tie-break order.
func ParseMiles(text string) *float64 {
	lowered := strings.ToLower(CleanText(text))

	matches := milesPattern.FindAllStringSubmatchIndex(lowered, -1)
	if matches == nil {
		return nil
	}

	var best *float64
	for _, m := range matches {
		// 28 chars is enough to cover "<number> mi away" phrasings.
		end := m[0] + 28
		if end > len(lowered) {
			end = len(lowered)
		}
		if strings.Contains(lowered[m[0]:end], "away") {
			continue
		}

		raw := strings.ReplaceAll(lowered[m[2]:m[3]], ",", "")
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			continue
		}

		if m[4] >= 0 {
			switch lowered[m[4]:m[5]] {
			case "k":
				parsed *= 1000
			case "m":
				parsed *= 1000000
			}
		}

		if best == nil {
			best = &parsed
			continue
		}

		bestIsOdometer := *best >= 1000
		parsedIsOdometer := parsed >= 1000

		if (parsedIsOdometer && !bestIsOdometer) || parsed > *best {
			best = &parsed
		}
	}

	return best
}

// ParseRating maps a third-party price-quality phrase to a fixed value in
// [0, 1]. Text without a known phrase rates neutral.
func ParseRating(text string) float64 {
	lowered := strings.ToLower(text)

	if strings.Contains(lowered, "great price") {
		return RatingGreatPrice
	}
	if strings.Contains(lowered, "good price") {
		return RatingGoodPrice
	}

	return RatingNeutral
}
