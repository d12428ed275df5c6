// Package annotate drives the extraction-scoring-render cycle against a
// continuously changing document. A Controller owns the scheduling state for
// one document context: triggers from any source (mutations, navigation,
// settings changes) are debounced and coalesced into passes, at most one
// pass runs at a time, and a trigger arriving mid-pass schedules exactly one
// follow-up pass instead of being dropped.
package annotate

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/dealscope/dealscope/classify"
	"github.com/dealscope/dealscope/extract"
	"github.com/dealscope/dealscope/scoring"
)

// Attributes marking nodes the system generated. Everything under a node
// carrying MarkerAttr is the system's own output: the mutation watcher
// ignores it and re-annotation replaces it in place.
const (
	MarkerAttr = "data-dealscope"
	UnitAttr   = "data-dealscope-unit"
)

// DocumentSource supplies the current document and accepts annotated
// write-back. Location identifies the document's current address so the
// watcher can detect page-internal navigation.
type DocumentSource interface {
	Snapshot() (*goquery.Document, error)
	Commit(doc *goquery.Document) error
	Location() string
}

// Report is what the controller hands the renderer for one listing unit:
// the extracted facts, the verdicts that could be computed from them, and
// the provenance trail for debug display. A nil Assessment means the unit
// had insufficient data; a non-empty Degraded message means the pass itself
// failed.
type Report struct {
	Unit       classify.Unit
	Signals    *extract.Signals
	Provenance *extract.Provenance
	Assessment *scoring.DealAssessment
	Anomaly    *scoring.MilesAnomaly
	Score      *scoring.DealScore
	Degraded   string
	Debug      bool
}

// Renderer owns DOM write-back. Render must be idempotent: called twice
// with identical inputs it produces identical markup with no duplicate
// nodes. Clear removes any prior annotation for a unit and is a no-op when
// none exists.
type Renderer interface {
	Render(doc *goquery.Document, report Report) error
	Clear(doc *goquery.Document, unitID string) error
}
