package store

import (
	"log/slog"
	"os"
	"time"

	"quantlab/internal/domain"
)

// Compile-time interface check.
var _ ResultStore = (*Results)(nil)

// Results is the centralized backtest result store: the SQLite metadata
// index for fast filtered queries plus the Parquet artifact store for the
// heavy payloads. All index mutations go through SQLite's atomic upsert, so
// repeated stores of the same key are last-write-wins and a future parallel
// batch driver cannot corrupt the index.
type Results struct {
	index     *SQLiteIndex
	artifacts *ArtifactStore
	dbPath    string
	log       *slog.Logger
}

// OpenResults opens the result store backed by the SQLite database at dbPath
// and Parquet artifacts under dataDir.
func OpenResults(dbPath, dataDir string, log *slog.Logger) (*Results, error) {
	index, err := NewSQLiteIndex(dbPath)
	if err != nil {
		return nil, err
	}
	return &Results{
		index:     index,
		artifacts: NewArtifactStore(dataDir),
		dbPath:    dbPath,
		log:       log,
	}, nil
}

// Close closes the underlying index database.
func (r *Results) Close() error {
	return r.index.Close()
}

// Store upserts the metadata row and best-effort persists the optional
// sub-artifacts. The equity artifact is written when equity is non-nil; the
// trade artifact when trades is non-nil (an empty non-nil log is stored as
// an empty artifact). Artifact failures are logged and swallowed — the
// metrics stay retrievable regardless.
func (r *Results) Store(symbol, strategy string, params map[string]float64, exitRule string,
	metrics domain.Metrics, equity []float64, positions []domain.Signal,
	dates []string, trades []domain.TradeLogEntry) (string, error) {

	key := domain.Key{
		Symbol:     symbol,
		Strategy:   strategy,
		ParamsHash: domain.HashParams(params),
		ExitRule:   exitRule,
	}

	startDate, endDate := "", ""
	if len(dates) > 0 {
		startDate, endDate = dates[0], dates[len(dates)-1]
	}

	if err := r.index.Upsert(key, metrics, startDate, endDate, time.Now()); err != nil {
		return "", err
	}
	if err := r.index.InternParams(key.ParamsHash, domain.CanonicalParams(params)); err != nil {
		return "", err
	}

	recordID := key.ID()

	if equity != nil {
		if err := r.artifacts.WriteEquity(recordID, equity, positions, dates); err != nil {
			r.log.Warn("writing equity artifact", "record_id", recordID, "error", err)
		}
	}
	if trades != nil {
		if err := r.artifacts.WriteTrades(recordID, trades); err != nil {
			r.log.Warn("writing trade artifact", "record_id", recordID, "error", err)
		}
	}

	return recordID, nil
}

// Query returns the metadata rows matching the filter. An empty filter
// returns the full table.
func (r *Results) Query(f Filter) ([]Row, error) {
	return r.index.Select(f)
}

// GetDetailed returns the full record for a key, merging stored
// sub-artifacts, or nil when the key has no metadata row.
func (r *Results) GetDetailed(symbol, strategy string, params map[string]float64, exitRule string) (*domain.Record, error) {
	rows, err := r.index.Select(Filter{
		Symbol: symbol, Strategy: strategy, Params: params, ExitRule: exitRule,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	rec := &domain.Record{
		Key: domain.Key{
			Symbol:     row.Symbol,
			Strategy:   row.Strategy,
			ParamsHash: row.ParamsHash,
			ExitRule:   row.ExitRule,
		},
		Params:    row.Params,
		Metrics:   row.Metrics,
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
	}

	recordID := rec.Key.ID()

	equity, positions, dates, ok, err := r.artifacts.ReadEquity(recordID)
	if err != nil {
		r.log.Warn("reading equity artifact", "record_id", recordID, "error", err)
	} else if ok {
		rec.Equity = equity
		rec.Positions = positions
		rec.Dates = dates
	}

	trades, ok, err := r.artifacts.ReadTrades(recordID)
	if err != nil {
		r.log.Warn("reading trade artifact", "record_id", recordID, "error", err)
	} else if ok {
		rec.Trades = trades
	}

	return rec, nil
}

// BulkGet returns the first matching row per lookup, silently skipping
// misses.
func (r *Results) BulkGet(lookups []Lookup) ([]Row, error) {
	out := make([]Row, 0, len(lookups))
	for _, l := range lookups {
		rows, err := r.index.Select(Filter{
			Symbol: l.Symbol, Strategy: l.Strategy, Params: l.Params, ExitRule: l.ExitRule,
		})
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			out = append(out, rows[0])
		}
	}
	return out, nil
}

// Delete removes the metadata row and both sub-artifacts for a key. It
// returns false when no metadata row matched.
func (r *Results) Delete(symbol, strategy string, params map[string]float64, exitRule string) (bool, error) {
	key := domain.Key{
		Symbol:     symbol,
		Strategy:   strategy,
		ParamsHash: domain.HashParams(params),
		ExitRule:   exitRule,
	}

	deleted, err := r.index.Delete(key)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	r.artifacts.Delete(key.ID())
	return true, nil
}

// Summary reports store-wide totals: row count, distinct symbols and
// strategies, and the combined on-disk size of the index and artifacts.
func (r *Results) Summary() (Summary, error) {
	total, symbols, strategies, err := r.index.Counts()
	if err != nil {
		return Summary{}, err
	}

	size := r.artifacts.SizeBytes()
	if info, err := os.Stat(r.dbPath); err == nil {
		size += info.Size()
	}

	return Summary{
		Total:            total,
		UniqueSymbols:    symbols,
		UniqueStrategies: strategies,
		SizeBytes:        size,
	}, nil
}

// SaveGroupSet persists a named batch preset, overwriting any previous set
// with the same name. A zero CreatedAt is stamped with the current time.
func (r *Results) SaveGroupSet(gs domain.GroupSet) error {
	if gs.CreatedAt.IsZero() {
		gs.CreatedAt = time.Now()
	}
	return r.index.SaveGroupSet(gs)
}

// LoadGroupSet returns a saved preset, or nil when the name is unknown.
func (r *Results) LoadGroupSet(name string) (*domain.GroupSet, error) {
	return r.index.LoadGroupSet(name)
}

// ListGroupSets returns the sorted names of all saved presets.
func (r *Results) ListGroupSets() ([]string, error) {
	return r.index.ListGroupSets()
}

// DeleteGroupSet removes a preset, returning false when the name is unknown.
func (r *Results) DeleteGroupSet(name string) (bool, error) {
	return r.index.DeleteGroupSet(name)
}
