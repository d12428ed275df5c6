package extract

import (
	"encoding/json"
	"strconv"
	"strings"
)

// maxWalkDepth bounds the recursive walk over parsed structured data. The
// input is freshly deserialized text so cycles are impossible, but a depth
// cap keeps a pathological fragment from blowing the stack.
const maxWalkDepth = 32

// walkObjects recursively visits every JSON object nested anywhere inside a
// parsed fragment. encoding/json produces a closed union of value shapes:
// map[string]any, []any, and scalars (string, float64, bool, nil). Only
// objects are interesting to the visitor; arrays and scalars are traversed
// or skipped.
func walkObjects(value any, depth int, visit func(obj map[string]any)) {
	if depth > maxWalkDepth {
		return
	}

	switch v := value.(type) {
	case []any:
		for _, item := range v {
			walkObjects(item, depth+1, visit)
		}
	case map[string]any:
		visit(v)
		for _, nested := range v {
			walkObjects(nested, depth+1, visit)
		}
	}
}

// numberField reads a numeric field from a JSON object, accepting either a
// JSON number or a numeric string.
func numberField(obj map[string]any, key string) *float64 {
	return asNumber(obj[key])
}

// asNumber coerces a parsed JSON scalar to a float64 if it represents one.
// Strings are accepted only when they are plain numerals; unit- and
// currency-laden strings are handled by the field-specific readers.
func asNumber(value any) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case json.Number:
		if parsed, err := v.Float64(); err == nil {
			return &parsed
		}
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return &parsed
		}
	}
	return nil
}

// stringField reads a string field from a JSON object, or "" if absent or
// not a string.
func stringField(obj map[string]any, key string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

// scanStructured walks one parsed JSON-LD fragment and opportunistically
// fills missing signals. Each field short-circuits across nested branches:
// the first branch that supplies it wins.
func scanStructured(parsed any, sig *Signals) {
	walkObjects(parsed, 0, func(obj map[string]any) {
		if sig.Year == nil {
			for _, key := range []string{"vehicleModelDate", "modelDate", "name"} {
				if year := ParseYear(CleanText(stringField(obj, key))); year != nil {
					sig.Year = year
					break
				}
			}
		}

		if sig.Miles == nil {
			sig.Miles = structuredMiles(obj["mileageFromOdometer"])
		}

		if sig.Price == nil {
			sig.Price = structuredPrice(obj)
		}
	})
}

// structuredMiles reads a mileage value that may be a bare number, a numeric
// string, or a QuantitativeValue-style object with a "value" field.
func structuredMiles(raw any) *float64 {
	if obj, ok := raw.(map[string]any); ok {
		if miles := asNumber(obj["value"]); miles != nil {
			return miles
		}
		if miles := ParseMiles(CleanText(stringField(obj, "value"))); miles != nil {
			return miles
		}
		return nil
	}

	if miles := asNumber(raw); miles != nil {
		return miles
	}
	if s, ok := raw.(string); ok {
		return ParseMiles(CleanText(s))
	}
	return nil
}

// structuredPrice reads a price from offer structures. An offer list wins
// with its first numeric price; a single offer object or a top-level price
// field is the fallback.
func structuredPrice(obj map[string]any) *float64 {
	switch offers := obj["offers"].(type) {
	case []any:
		for _, item := range offers {
			offer, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if price := numberField(offer, "price"); price != nil {
				return price
			}
		}
	case map[string]any:
		if price := numberField(offers, "price"); price != nil {
			return price
		}
	}

	if price := numberField(obj, "price"); price != nil {
		return price
	}
	if price := ParsePrice(CleanText(stringField(obj, "price"))); price != nil {
		return price
	}
	return nil
}
