package annotate

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dealscope/dealscope/classify"
	"github.com/dealscope/dealscope/extract"
	"github.com/dealscope/dealscope/layout"
	"github.com/dealscope/dealscope/scoring"
	"github.com/dealscope/dealscope/settings"
)

// State is the scheduler's position in its Idle -> Scheduled -> Running
// cycle.
type State int

// Scheduler states.
const (
	StateIdle State = iota
	StateScheduled
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateRunning:
		return "running"
	default:
		return "idle"
	}
}

// DefaultDebounce is the delay between a trigger and the pass it schedules.
// Mutation bursts inside one window collapse into a single pass.
const DefaultDebounce = 350 * time.Millisecond

// ControllerConfig tunes a Controller.
type ControllerConfig struct {
	// Debounce delay for trigger coalescing. DefaultDebounce when zero.
	Debounce time.Duration
	// CurrentYear for the mileage-anomaly model. time.Now's year when zero.
	CurrentYear int
}

// SettingsSource provides configuration snapshots and change
// notifications. *settings.Store satisfies it.
type SettingsSource interface {
	Snapshot() (*settings.Snapshot, error)
	Watch() <-chan string
}

// Controller owns the annotation loop for one document context. All
// scheduling state lives here rather than in package globals, so tests can
// run controllers side by side.
type Controller struct {
	source   DocumentSource
	store    SettingsSource
	renderer Renderer
	profile  layout.Profile
	debounce time.Duration
	year     int

	triggers chan string
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu           sync.Mutex
	state        State
	lastLocation string
	passCount    int

	engineOnce sync.Once
	cascade    *extract.Cascade
}

// NewController wires a controller to its collaborators.
func NewController(
	source DocumentSource,
	store SettingsSource,
	renderer Renderer,
	profile layout.Profile,
	cfg ControllerConfig,
) *Controller {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	year := cfg.CurrentYear
	if year == 0 {
		year = time.Now().Year()
	}

	return &Controller{
		source:   source,
		store:    store,
		renderer: renderer,
		profile:  profile,
		debounce: debounce,
		year:     year,
		triggers: make(chan string, 1),
		stopChan: make(chan struct{}),
	}
}

// Notify reports a trigger event. Safe from any goroutine. A trigger that
// arrives while one is already pending coalesces into it: the scheduler
// only promises that the most recent trigger's resulting state is
// eventually reflected, not a pass per trigger.
func (c *Controller) Notify(reason string) {
	select {
	case c.triggers <- reason:
	default:
	}
}

// State returns the scheduler's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PassCount returns the number of completed passes.
func (c *Controller) PassCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passCount
}

// Run executes the annotation loop until Stop is called or the context is
// cancelled. An initial pass is scheduled immediately; settings changes
// feed the trigger channel for the loop's lifetime.
func (c *Controller) Run(ctx context.Context) error {
	log.Println("INFO: annotation controller starting")

	changes := c.store.Watch()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for key := range changes {
			c.Notify("settings:" + key)
		}
	}()

	c.Notify("init")
	err := c.loop(ctx)

	c.wg.Wait()
	log.Println("INFO: annotation controller stopped")
	return err
}

// Stop signals the controller to stop after any in-flight pass completes.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// loop is the scheduler proper. It runs in a single goroutine, which is
// what guarantees at most one concurrent pass: a trigger arriving while a
// pass runs waits in the channel and re-arms the timer afterwards, so it is
// deferred, never dropped and never run concurrently.
func (c *Controller) loop(ctx context.Context) error {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-c.stopChan:
			return nil

		case reason := <-c.triggers:
			if timerC != nil {
				continue // already scheduled, coalesce
			}
			pending = reason
			timer = time.NewTimer(c.debounce)
			timerC = timer.C
			c.setState(StateScheduled)

		case <-timerC:
			timer = nil
			timerC = nil
			c.setState(StateRunning)

			if err := c.runPass(pending); err != nil {
				log.Printf("ERROR: pass failed (%s): %v", pending, err)
				c.renderDegraded(err)
			}

			c.finishPass()
		}
	}
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// finishPass returns the machine to Idle and counts the pass. Runs on every
// completion, success or failure.
func (c *Controller) finishPass() {
	c.mu.Lock()
	c.state = StateIdle
	c.passCount++
	c.mu.Unlock()
}

// resolve returns the cached extraction cascade and a fresh configuration
// snapshot. The cascade is built lazily on first use and cached; the
// snapshot is read per pass. Both resolve in one call so a pass stalls at
// most once.
func (c *Controller) resolve() (*extract.Cascade, *settings.Snapshot, error) {
	c.engineOnce.Do(func() {
		c.cascade = extract.NewCascade(c.profile.Selectors())
	})

	snap, err := c.store.Snapshot()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read settings: %w", err)
	}

	return c.cascade, snap, nil
}

// RunOnce executes a single pass synchronously, outside the scheduler
// loop, and returns the per-unit reports. Pass failures degrade the
// rendered document the same way scheduled passes do.
func (c *Controller) RunOnce(reason string) ([]Report, error) {
	c.setState(StateRunning)
	reports, err := c.executePass(reason)
	if err != nil {
		c.renderDegraded(err)
	}
	c.finishPass()
	return reports, err
}

// runPass executes one scheduled pass, discarding the reports.
func (c *Controller) runPass(reason string) error {
	_, err := c.executePass(reason)
	return err
}

// executePass runs one full extraction, scoring and render cycle. This is
// the single fault boundary: extractors and models never fail, so any error
// here is infrastructure (snapshot, settings, write-back) and surfaces as a
// degraded render rather than a crash.
func (c *Controller) executePass(reason string) (reports []Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pass panic: %v", r)
		}
	}()

	doc, err := c.source.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot document: %w", err)
	}

	cascade, snap, err := c.resolve()
	if err != nil {
		return nil, err
	}

	mode, units := classify.Classify(doc, c.profile)
	log.Printf("INFO: pass (%s): mode=%s units=%d", reason, mode, len(units))

	pruneStale(doc, units)

	for _, unit := range units {
		if !unit.Eligible {
			if err := c.renderer.Clear(doc, unit.ID); err != nil {
				return reports, fmt.Errorf("failed to clear unit %s: %w", unit.ID, err)
			}
			log.Printf("INFO: unit %s excluded: %s", unit.ID, unit.Reason)
			continue
		}

		clean, err := stripOwnOutput(unit.Selection)
		if err != nil {
			return reports, fmt.Errorf("failed to isolate unit %s: %w", unit.ID, err)
		}

		prov := extract.NewProvenance()
		sig := cascade.Run(clean, prov)
		report := c.buildReport(unit, sig, prov, snap)

		if err := c.renderer.Render(doc, report); err != nil {
			return reports, fmt.Errorf("failed to render unit %s: %w", unit.ID, err)
		}
		reports = append(reports, report)
	}

	if err := c.source.Commit(doc); err != nil {
		return reports, fmt.Errorf("failed to commit document: %w", err)
	}

	c.mu.Lock()
	c.lastLocation = c.source.Location()
	c.mu.Unlock()

	return reports, nil
}

// buildReport scores one unit's signals. Missing facts become NaN inputs,
// which the models answer with their sentinel results, so a partial listing
// degrades to "insufficient data" instead of failing.
func (c *Controller) buildReport(
	unit classify.Unit,
	sig *extract.Signals,
	prov *extract.Provenance,
	snap *settings.Snapshot,
) Report {
	report := Report{
		Unit:       unit,
		Signals:    sig,
		Provenance: prov,
		Debug:      snap.Debug,
	}

	if !sig.Complete() {
		return report
	}

	year := floatOrNaN(intToFloat(sig.Year))
	miles := floatOrNaN(sig.Miles)
	price := floatOrNaN(sig.Price)

	assessment := scoring.AssessDeal(year, miles, price, snap.Deal)
	report.Assessment = &assessment

	report.Anomaly = scoring.ComputeMilesAnomaly(year, miles, c.year, snap.Anomaly)

	// The composite score needs the third-party rating signal; without it
	// the deal and anomaly verdicts stand alone.
	if sig.Rating != nil && report.Anomaly != nil {
		score := scoring.ComputeDealScore(*sig.Rating, report.Anomaly.AnomalyMiles, snap.Score)
		report.Score = &score
	}

	return report
}

// renderDegraded makes a best-effort attempt to surface a pass failure in
// the document instead of leaving stale annotations behind. Failures here
// are logged and swallowed; the scheduler still returns to idle.
func (c *Controller) renderDegraded(passErr error) {
	doc, err := c.source.Snapshot()
	if err != nil {
		log.Printf("WARN: cannot render degraded state: %v", err)
		return
	}

	debug := false
	if snap, err := c.store.Snapshot(); err == nil {
		debug = snap.Debug
	}

	report := Report{
		Unit: classify.Unit{
			ID:        "detail",
			Mode:      classify.ModeDetail,
			Selection: doc.Selection,
			Eligible:  true,
		},
		Signals:    &extract.Signals{},
		Provenance: extract.NewProvenance(),
		Degraded:   passErr.Error(),
		Debug:      debug,
	}

	if err := c.renderer.Render(doc, report); err != nil {
		log.Printf("WARN: degraded render failed: %v", err)
		return
	}
	if err := c.source.Commit(doc); err != nil {
		log.Printf("WARN: degraded commit failed: %v", err)
	}
}

// stripOwnOutput returns a detached copy of a unit's subtree with every
// system-generated node removed. Extraction runs on the copy, so badge text
// written by a prior pass can never feed back into the signals.
func stripOwnOutput(sel *goquery.Selection) (*goquery.Selection, error) {
	html, err := goquery.OuterHtml(sel)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize unit: %w", err)
	}

	clean, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to reparse unit: %w", err)
	}

	clean.Find("[" + MarkerAttr + "]").Remove()
	return clean.Selection, nil
}

// pruneStale removes every system-generated node that no current unit
// claims. A page that mutated away from a listing view loses its badges
// instead of keeping a stale verdict.
func pruneStale(doc *goquery.Document, units []classify.Unit) {
	ids := make(map[string]bool, len(units))
	for _, unit := range units {
		ids[unit.ID] = true
	}

	doc.Find("[" + MarkerAttr + "]").Each(func(_ int, node *goquery.Selection) {
		if id, _ := node.Attr(UnitAttr); !ids[id] {
			node.Remove()
		}
	})
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
