// Package settings persists the user-tunable scoring parameters in SQLite
// and notifies subscribers when one changes. Readers take a snapshot at the
// start of a pass; they never observe a half-applied update.
package settings

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dealscope/dealscope/scoring"
)

// Parameter keys.
const (
	KeyAnchorYear               = "anchorYear"
	KeyAnchorMiles              = "anchorMiles"
	KeyAnchorPrice              = "anchorPrice"
	KeyDollarsPerMile           = "dollarsPerMile"
	KeyDollarsPerYear           = "dollarsPerYear"
	KeyGoodDealThresholdDollars = "goodDealThresholdDollars"
	KeyBadDealThresholdDollars  = "badDealThresholdDollars"
	KeyMilesPerYear             = "milesPerYear"
	KeyAnomalyGoodMiles         = "anomalyGoodMiles"
	KeyAnomalyBadMiles          = "anomalyBadMiles"
	KeyRatingWeight             = "ratingWeight"
	KeyMilesWeight              = "milesWeight"
	KeyMilesScale               = "milesScale"
	KeyGoodScoreCut             = "goodScoreCut"
	KeyPoorScoreCut             = "poorScoreCut"
	KeyDebug                    = "debug"
)

// integerKeys are truncated to whole numbers on write.
var integerKeys = map[string]bool{
	KeyAnchorYear:   true,
	KeyAnchorMiles:  true,
	KeyGoodScoreCut: true,
	KeyPoorScoreCut: true,
}

// KnownKeys returns every parameter key, in a stable order.
func KnownKeys() []string {
	return []string{
		KeyAnchorYear, KeyAnchorMiles, KeyAnchorPrice,
		KeyDollarsPerMile, KeyDollarsPerYear,
		KeyGoodDealThresholdDollars, KeyBadDealThresholdDollars,
		KeyMilesPerYear, KeyAnomalyGoodMiles, KeyAnomalyBadMiles,
		KeyRatingWeight, KeyMilesWeight, KeyMilesScale,
		KeyGoodScoreCut, KeyPoorScoreCut,
		KeyDebug,
	}
}

// Snapshot is an immutable view of the full configuration, already split
// into the per-model config structs. Absent or malformed values have been
// replaced with the documented defaults.
type Snapshot struct {
	Deal    scoring.DealConfig
	Anomaly scoring.AnomalyConfig
	Score   scoring.ScoreConfig
	Debug   bool
}

// Store manages scoring parameters using SQLite.
type Store struct {
	db *sql.DB

	mu       sync.Mutex
	watchers []chan string
	closed   bool
}

// NewStore opens (creating if necessary) a settings store at the given
// database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the settings table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection and every watcher channel.
func (s *Store) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for _, ch := range s.watchers {
			close(ch)
		}
		s.watchers = nil
	}
	s.mu.Unlock()

	return s.db.Close()
}

// Get returns the stored raw value for a key and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return value, true, nil
}

// Put stores a value for a known parameter key and notifies watchers.
// Integer-typed parameters are truncated to whole numbers.
func (s *Store) Put(key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown setting: %s", key)
	}

	if integerKeys[key] {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			value = strconv.FormatFloat(math.Trunc(parsed), 'f', -1, 64)
		}
	}

	query := "INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)"
	if _, err := s.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to update setting %s: %w", key, err)
	}

	s.notify(key)
	return nil
}

// Watch returns a channel that receives the name of each changed parameter.
// The channel is buffered and lossy: an update is dropped when the
// subscriber lags, which is harmless because subscribers re-read a full
// snapshot per pass anyway. Closed when the store closes.
func (s *Store) Watch() <-chan string {
	ch := make(chan string, 16)

	s.mu.Lock()
	if s.closed {
		close(ch)
	} else {
		s.watchers = append(s.watchers, ch)
	}
	s.mu.Unlock()

	return ch
}

// notify fans a changed key out to watchers without blocking.
func (s *Store) notify(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.watchers {
		select {
		case ch <- key:
		default:
		}
	}
}

// Snapshot reads the full configuration. A missing or unparseable value
// falls back to its documented default silently; a snapshot is always
// usable.
func (s *Store) Snapshot() (*Snapshot, error) {
	values := make(map[string]string)

	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	return snapshotFromValues(values), nil
}

// snapshotFromValues assembles a snapshot from raw stored values.
func snapshotFromValues(values map[string]string) *Snapshot {
	deal := scoring.DefaultDealConfig()
	anomaly := scoring.DefaultAnomalyConfig()
	score := scoring.DefaultScoreConfig()

	num := func(key string, fallback float64) float64 {
		raw, ok := values[key]
		if !ok {
			return fallback
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return fallback
		}
		return parsed
	}

	deal.AnchorYear = num(KeyAnchorYear, deal.AnchorYear)
	deal.AnchorMiles = num(KeyAnchorMiles, deal.AnchorMiles)
	deal.AnchorPrice = num(KeyAnchorPrice, deal.AnchorPrice)
	deal.DollarsPerMile = num(KeyDollarsPerMile, deal.DollarsPerMile)
	deal.DollarsPerYear = num(KeyDollarsPerYear, deal.DollarsPerYear)
	deal.GoodDealThresholdDollars = num(KeyGoodDealThresholdDollars, deal.GoodDealThresholdDollars)
	deal.BadDealThresholdDollars = num(KeyBadDealThresholdDollars, deal.BadDealThresholdDollars)

	anomaly.MilesPerYear = num(KeyMilesPerYear, anomaly.MilesPerYear)
	anomaly.AnomalyGoodMiles = num(KeyAnomalyGoodMiles, anomaly.AnomalyGoodMiles)
	anomaly.AnomalyBadMiles = num(KeyAnomalyBadMiles, anomaly.AnomalyBadMiles)

	score.RatingWeight = num(KeyRatingWeight, score.RatingWeight)
	score.MilesWeight = num(KeyMilesWeight, score.MilesWeight)
	score.MilesScale = num(KeyMilesScale, score.MilesScale)
	score.GoodScoreCut = num(KeyGoodScoreCut, score.GoodScoreCut)
	score.PoorScoreCut = num(KeyPoorScoreCut, score.PoorScoreCut)

	debug := false
	if raw, ok := values[KeyDebug]; ok {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			debug = parsed
		}
	}

	return &Snapshot{
		Deal:    deal,
		Anomaly: anomaly,
		Score:   score,
		Debug:   debug,
	}
}

func isKnownKey(key string) bool {
	for _, known := range KnownKeys() {
		if key == known {
			return true
		}
	}
	return false
}
