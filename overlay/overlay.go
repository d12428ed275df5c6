// Package overlay is the reference renderer: it writes deal badges into the
// document as marked subtrees. All output lives under nodes carrying the
// annotation marker attribute, so the mutation watcher can tell the
// system's own writes from real page changes, and every write is an upsert
// keyed by unit ID, so re-rendering never accumulates duplicate badges.
package overlay

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dealscope/dealscope/annotate"
	"github.com/dealscope/dealscope/classify"
)

// Overlay renders annotation badges into goquery documents.
type Overlay struct {
	printer *message.Printer
}

// New creates a renderer.
func New() *Overlay {
	return &Overlay{printer: message.NewPrinter(language.English)}
}

// Render upserts the badge for one unit. Identical reports produce
// byte-identical markup.
func (o *Overlay) Render(doc *goquery.Document, report annotate.Report) error {
	container, err := o.ensureContainer(doc, report.Unit)
	if err != nil {
		return err
	}

	container.SetHtml(o.buildHTML(report))
	return nil
}

// Clear removes any prior annotation for a unit. A no-op when none exists.
func (o *Overlay) Clear(doc *goquery.Document, unitID string) error {
	doc.Find(unitSelector(unitID)).Remove()
	return nil
}

func unitSelector(unitID string) string {
	return fmt.Sprintf("[%s='%s']", annotate.UnitAttr, unitID)
}

// ensureContainer finds the unit's badge container, creating it if absent.
// A detail badge attaches to the document body; a card badge attaches to
// the card subtree itself. The lookup is scoped to the unit's own subtree:
// unit IDs are positional, so after a card reorder a card can physically
// contain a badge labeled with another unit's ID. Such badges are stale and
// removed, and stray extra containers for the same unit are removed too, so
// a damaged document heals on the next pass.
func (o *Overlay) ensureContainer(doc *goquery.Document, unit classify.Unit) (*goquery.Selection, error) {
	scope := unit.Selection
	target := unit.Selection
	if unit.Mode == classify.ModeDetail {
		scope = doc.Selection
		if body := doc.Find("body"); body.Length() > 0 {
			target = body.First()
		}
	}
	if scope == nil || scope.Length() == 0 {
		return nil, fmt.Errorf("no attachment point for unit %s", unit.ID)
	}

	scope.Find("[" + annotate.UnitAttr + "]").Each(func(_ int, node *goquery.Selection) {
		if id, _ := node.Attr(annotate.UnitAttr); id != unit.ID {
			node.Remove()
		}
	})

	existing := scope.Find(unitSelector(unit.ID))
	if existing.Length() > 1 {
		existing.Slice(1, existing.Length()).Remove()
		existing = existing.First()
	}
	if existing.Length() == 1 {
		return existing, nil
	}

	if target == nil || target.Length() == 0 {
		return nil, fmt.Errorf("no attachment point for unit %s", unit.ID)
	}

	target.AppendHtml(fmt.Sprintf(
		`<section %s="" %s="%s" class="dealscope-overlay"></section>`,
		annotate.MarkerAttr, annotate.UnitAttr, unit.ID,
	))

	created := scope.Find(unitSelector(unit.ID)).First()
	if created.Length() == 0 {
		return nil, fmt.Errorf("failed to create container for unit %s", unit.ID)
	}
	return created, nil
}

// buildHTML renders one report deterministically.
func (o *Overlay) buildHTML(report annotate.Report) string {
	var b strings.Builder

	label := "N/A"
	badgeClass := "dealscope-badge-none"
	if report.Assessment != nil {
		label = string(report.Assessment.Label)
		badgeClass = "dealscope-badge-" + strings.ToLower(label)
	}

	b.WriteString(`<div class="dealscope-header"><span class="dealscope-name">dealscope</span>`)
	fmt.Fprintf(&b, `<span class="dealscope-badge %s">%s</span></div>`, badgeClass, html.EscapeString(label))

	switch {
	case report.Degraded != "":
		fmt.Fprintf(&b, `<div class="dealscope-degraded">error: %s</div>`, html.EscapeString(report.Degraded))

	case report.Assessment == nil || !isFinite(report.Assessment.ExpectedPrice):
		b.WriteString(`<div class="dealscope-degraded">insufficient data</div>`)

	default:
		a := report.Assessment
		sig := report.Signals

		fmt.Fprintf(&b, `<div class="dealscope-row">Price: <strong>%s</strong></div>`, o.currency(floatOrNaN(sig.Price)))
		fmt.Fprintf(&b, `<div class="dealscope-row">Year: <strong>%d</strong></div>`, *sig.Year)
		fmt.Fprintf(&b, `<div class="dealscope-row">Miles: <strong>%s</strong></div>`, o.number(floatOrNaN(sig.Miles)))
		fmt.Fprintf(&b, `<div class="dealscope-row">Expected price: <strong>%s</strong></div>`, o.currency(a.ExpectedPrice))
		fmt.Fprintf(&b, `<div class="dealscope-row">Deal delta: <strong>%s%s</strong> (%s%s)</div>`,
			sign(a.DealDelta), o.currency(a.DealDelta), sign(a.DealDeltaPct), o.percent(a.DealDeltaPct))

		if report.Anomaly != nil {
			fmt.Fprintf(&b, `<div class="dealscope-row">Miles vs expected: <strong>%s%s</strong> (%s)</div>`,
				sign(report.Anomaly.AnomalyMiles), o.number(report.Anomaly.AnomalyMiles), report.Anomaly.Label)
		}

		if report.Score != nil {
			fmt.Fprintf(&b, `<div class="dealscope-row">Deal score: <strong>%d</strong>/100 (%s)</div>`,
				report.Score.Score, report.Score.Tier)
		}
	}

	if report.Debug && report.Provenance != nil {
		b.WriteString(`<pre class="dealscope-debug">`)
		b.WriteString(html.EscapeString(strings.Join(provenanceLines(report), "\n")))
		b.WriteString(`</pre>`)
	}

	return b.String()
}

// provenanceLines flattens the trace plus the per-field winning sources in
// a stable order.
func provenanceLines(report annotate.Report) []string {
	lines := append([]string{}, report.Provenance.Lines...)

	fields := make([]string, 0, len(report.Provenance.Sources))
	for field := range report.Provenance.Sources {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		lines = append(lines, fmt.Sprintf("source[%s] = %s", field, report.Provenance.Sources[field]))
	}

	return lines
}

// currency formats a dollar amount with thousands separators, dropping
// cents. Non-finite values render as "n/a".
func (o *Overlay) currency(v float64) string {
	if !isFinite(v) {
		return "n/a"
	}
	if v < 0 {
		return "-$" + o.printer.Sprintf("%.0f", -v)
	}
	return "$" + o.printer.Sprintf("%.0f", v)
}

// number formats a count with thousands separators, rounded.
func (o *Overlay) number(v float64) string {
	if !isFinite(v) {
		return "n/a"
	}
	if v < 0 {
		return "-" + o.printer.Sprintf("%.0f", -v)
	}
	return o.printer.Sprintf("%.0f", v)
}

// percent formats a percentage to one decimal place.
func (o *Overlay) percent(v float64) string {
	if !isFinite(v) {
		return "n/a"
	}
	if v < 0 {
		return "-" + o.printer.Sprintf("%.1f%%", -v)
	}
	return o.printer.Sprintf("%.1f%%", v)
}

// sign returns the explicit prefix for a positive value; negative values
// carry their own sign through the formatter.
func sign(v float64) string {
	if isFinite(v) && v > 0 {
		return "+"
	}
	return ""
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
