// Package store persists backtest results. A SQLite metadata index answers
// filtered queries over summary metrics without touching the heavier
// payloads; Parquet files hold the per-backtest equity curves and trade
// logs; daily bars are kept in Parquet as the simulation's price source.
package store

import (
	"context"
	"time"

	"quantlab/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with existing data.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns all bars for the given symbol in timestamp order.
	ReadBars(ctx context.Context, symbol string) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored bars.
	ListSymbols(ctx context.Context) ([]string, error)
}

// Row is one metadata index entry: the composite key, its decoded
// parameters, and the summary metrics.
type Row struct {
	Symbol     string
	Strategy   string
	ParamsHash string
	ExitRule   string
	Params     map[string]float64
	Metrics    domain.Metrics
	StartDate  string
	EndDate    string
	CreatedAt  time.Time
}

// Filter selects metadata rows. Zero-value fields are ignored; supplied
// fields are AND-combined. Params filters by its canonical hash.
type Filter struct {
	Symbol   string
	Strategy string
	Params   map[string]float64
	ExitRule string
}

// Lookup identifies a single stored backtest.
type Lookup struct {
	Symbol   string
	Strategy string
	Params   map[string]float64
	ExitRule string
}

// Summary describes the overall contents of the result store.
type Summary struct {
	Total            int
	UniqueSymbols    int
	UniqueStrategies int
	SizeBytes        int64
}

// ResultStore is the public contract of the backtest result store. All
// operations are synchronous; not-found is reported as nil/empty/false,
// never as an error.
type ResultStore interface {
	// Store upserts the metadata row for the key derived from (symbol,
	// strategy, params, exitRule) and best-effort persists the optional
	// sub-artifacts. It returns the record id. Artifact write failures are
	// logged and swallowed; the metrics remain retrievable regardless.
	Store(symbol, strategy string, params map[string]float64, exitRule string,
		metrics domain.Metrics, equity []float64, positions []domain.Signal,
		dates []string, trades []domain.TradeLogEntry) (string, error)

	// Query returns the metadata rows matching the filter. An empty filter
	// returns the full table.
	Query(f Filter) ([]Row, error)

	// GetDetailed returns the full record for a key, merging stored
	// sub-artifacts, or nil when the key has no metadata row.
	GetDetailed(symbol, strategy string, params map[string]float64, exitRule string) (*domain.Record, error)

	// BulkGet returns the first matching row per lookup, silently skipping
	// misses.
	BulkGet(lookups []Lookup) ([]Row, error)

	// Delete removes the matching metadata row and its sub-artifacts. It
	// returns false when nothing matched.
	Delete(symbol, strategy string, params map[string]float64, exitRule string) (bool, error)

	// Summary reports store-wide totals.
	Summary() (Summary, error)

	// SaveGroupSet persists a named batch preset, overwriting any previous
	// set with the same name.
	SaveGroupSet(gs domain.GroupSet) error

	// LoadGroupSet returns a saved preset, or nil when the name is unknown.
	LoadGroupSet(name string) (*domain.GroupSet, error)

	// ListGroupSets returns the sorted names of all saved presets.
	ListGroupSets() ([]string, error)

	// DeleteGroupSet removes a preset, returning false when the name is
	// unknown.
	DeleteGroupSet(name string) (bool, error)
}
