package annotate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultPollInterval is how often the watcher re-reads the document when
// no interval is configured.
const DefaultPollInterval = 500 * time.Millisecond

// Digest hashes a document with every system-generated subtree stripped.
// Two documents that differ only in annotation output digest identically,
// which is what keeps annotation write-back from re-triggering a pass.
func Digest(doc *goquery.Document) (string, error) {
	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize document: %w", err)
	}

	// Re-parse so stripping doesn't mutate the caller's document.
	clean, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to reparse document: %w", err)
	}

	clean.Find("[" + MarkerAttr + "]").Remove()

	stripped, err := clean.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize stripped document: %w", err)
	}

	sum := sha256.Sum256([]byte(stripped))
	return hex.EncodeToString(sum[:]), nil
}

// Watcher is the mutation and navigation trigger source. It polls a
// document source, digests each snapshot with self-generated nodes
// stripped, and notifies on any change that did not originate from the
// system's own writes. A location change notifies as navigation.
type Watcher struct {
	source   DocumentSource
	notify   func(reason string)
	interval time.Duration

	lastDigest   string
	lastLocation string
}

// NewWatcher creates a watcher that feeds triggers into notify, typically a
// Controller's Notify method.
func NewWatcher(source DocumentSource, notify func(reason string), interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		source:   source,
		notify:   notify,
		interval: interval,
	}
}

// Run polls until the context is cancelled. The first observation seeds the
// baseline without notifying; the controller's init trigger covers the
// initial pass.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.observe(true); err != nil {
		log.Printf("WARN: initial document observation failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.observe(false); err != nil {
				log.Printf("WARN: document observation failed: %v", err)
			}
		}
	}
}

// observe takes one snapshot and fires triggers for real changes.
func (w *Watcher) observe(seed bool) error {
	doc, err := w.source.Snapshot()
	if err != nil {
		return err
	}

	digest, err := Digest(doc)
	if err != nil {
		return err
	}
	location := w.source.Location()

	if seed {
		w.lastDigest = digest
		w.lastLocation = location
		return nil
	}

	if location != w.lastLocation {
		w.lastLocation = location
		w.lastDigest = digest
		w.notify("navigation")
		return nil
	}

	if digest != w.lastDigest {
		w.lastDigest = digest
		w.notify("mutation")
	}

	return nil
}
