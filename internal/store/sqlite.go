package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"quantlab/internal/domain"
)

// schema creates the metadata index, the params intern table, and the group
// set table. The composite primary key on backtests gives upsert
// (last-write-wins) semantics for repeated stores of the same key.
const schema = `
CREATE TABLE IF NOT EXISTS backtests (
	symbol       TEXT NOT NULL,
	strategy     TEXT NOT NULL,
	params_hash  TEXT NOT NULL,
	exit_rule    TEXT NOT NULL,
	win_rate     REAL NOT NULL,
	num_trades   INTEGER NOT NULL,
	total_return REAL NOT NULL,
	cagr         REAL NOT NULL,
	sharpe_ratio REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	expectancy   REAL NOT NULL,
	start_date   TEXT NOT NULL DEFAULT '',
	end_date     TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	PRIMARY KEY (symbol, strategy, params_hash, exit_rule)
);

CREATE INDEX IF NOT EXISTS idx_backtests_symbol ON backtests(symbol);
CREATE INDEX IF NOT EXISTS idx_backtests_strategy ON backtests(strategy);

CREATE TABLE IF NOT EXISTS params (
	params_hash TEXT PRIMARY KEY,
	params_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS group_sets (
	name             TEXT PRIMARY KEY,
	symbols_json     TEXT NOT NULL,
	strategies_json  TEXT NOT NULL,
	params_list_json TEXT NOT NULL,
	exit_rules_json  TEXT NOT NULL,
	created_at       TEXT NOT NULL
);
`

// SQLiteIndex is the metadata index backing the result store: one row per
// stored backtest plus the params intern table and group set presets.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex opens (or creates) the index database at dbPath and applies
// the schema.
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &SQLiteIndex{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces the metadata row for a key. Repeated stores of
// the same composite key keep the latest metrics.
func (s *SQLiteIndex) Upsert(key domain.Key, m domain.Metrics, startDate, endDate string, createdAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO backtests
		(symbol, strategy, params_hash, exit_rule,
		 win_rate, num_trades, total_return, cagr, sharpe_ratio, max_drawdown, expectancy,
		 start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, strategy, params_hash, exit_rule) DO UPDATE SET
			win_rate = excluded.win_rate,
			num_trades = excluded.num_trades,
			total_return = excluded.total_return,
			cagr = excluded.cagr,
			sharpe_ratio = excluded.sharpe_ratio,
			max_drawdown = excluded.max_drawdown,
			expectancy = excluded.expectancy,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			created_at = excluded.created_at`,
		key.Symbol, key.Strategy, key.ParamsHash, key.ExitRule,
		m.WinRate, m.NumTrades, m.TotalReturn, m.CAGR, m.SharpeRatio, m.MaxDrawdown, m.Expectancy,
		startDate, endDate, createdAt.Format(time.RFC3339Nano),
	)
	return err
}

// InternParams records the canonical JSON encoding of a parameter set under
// its hash. One entry per distinct parameter set ever seen.
func (s *SQLiteIndex) InternParams(paramsHash, paramsJSON string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO params (params_hash, params_json) VALUES (?, ?)`,
		paramsHash, paramsJSON,
	)
	return err
}

// Select returns the metadata rows matching the filter, joined with their
// decoded parameters. Zero-value filter fields are ignored.
func (s *SQLiteIndex) Select(f Filter) ([]Row, error) {
	query := `
		SELECT b.symbol, b.strategy, b.params_hash, b.exit_rule,
		       b.win_rate, b.num_trades, b.total_return, b.cagr,
		       b.sharpe_ratio, b.max_drawdown, b.expectancy,
		       b.start_date, b.end_date, b.created_at,
		       COALESCE(p.params_json, '{}')
		FROM backtests b
		LEFT JOIN params p ON p.params_hash = b.params_hash`

	var conds []string
	var args []any
	if f.Symbol != "" {
		conds = append(conds, "b.symbol = ?")
		args = append(args, f.Symbol)
	}
	if f.Strategy != "" {
		conds = append(conds, "b.strategy = ?")
		args = append(args, f.Strategy)
	}
	if f.Params != nil {
		conds = append(conds, "b.params_hash = ?")
		args = append(args, domain.HashParams(f.Params))
	}
	if f.ExitRule != "" {
		conds = append(conds, "b.exit_rule = ?")
		args = append(args, f.ExitRule)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY b.symbol, b.strategy, b.params_hash, b.exit_rule"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var createdAt, paramsJSON string
		if err := rows.Scan(
			&r.Symbol, &r.Strategy, &r.ParamsHash, &r.ExitRule,
			&r.Metrics.WinRate, &r.Metrics.NumTrades, &r.Metrics.TotalReturn, &r.Metrics.CAGR,
			&r.Metrics.SharpeRatio, &r.Metrics.MaxDrawdown, &r.Metrics.Expectancy,
			&r.StartDate, &r.EndDate, &createdAt, &paramsJSON,
		); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
			r.Params = map[string]float64{}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes the metadata rows for a key, reporting whether anything
// matched.
func (s *SQLiteIndex) Delete(key domain.Key) (bool, error) {
	res, err := s.db.Exec(
		`DELETE FROM backtests WHERE symbol = ? AND strategy = ? AND params_hash = ? AND exit_rule = ?`,
		key.Symbol, key.Strategy, key.ParamsHash, key.ExitRule,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Counts returns the total row count and the distinct symbol and strategy
// counts.
func (s *SQLiteIndex) Counts() (total, symbols, strategies int, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT symbol), COUNT(DISTINCT strategy)
		FROM backtests`).Scan(&total, &symbols, &strategies)
	return total, symbols, strategies, err
}

// ---------------------------------------------------------------------------
// Group sets
// ---------------------------------------------------------------------------

// SaveGroupSet inserts or replaces a named batch preset.
func (s *SQLiteIndex) SaveGroupSet(gs domain.GroupSet) error {
	symbols, err := json.Marshal(gs.Symbols)
	if err != nil {
		return err
	}
	strategies, err := json.Marshal(gs.Strategies)
	if err != nil {
		return err
	}
	paramsList, err := json.Marshal(gs.ParamsList)
	if err != nil {
		return err
	}
	exitRules, err := json.Marshal(gs.ExitRules)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO group_sets
		(name, symbols_json, strategies_json, params_list_json, exit_rules_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		gs.Name, string(symbols), string(strategies), string(paramsList), string(exitRules),
		gs.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// LoadGroupSet returns a saved preset, or nil when the name is unknown.
func (s *SQLiteIndex) LoadGroupSet(name string) (*domain.GroupSet, error) {
	var gs domain.GroupSet
	var symbols, strategies, paramsList, exitRules, createdAt string

	err := s.db.QueryRow(`
		SELECT name, symbols_json, strategies_json, params_list_json, exit_rules_json, created_at
		FROM group_sets WHERE name = ?`, name).
		Scan(&gs.Name, &symbols, &strategies, &paramsList, &exitRules, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(symbols), &gs.Symbols); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(strategies), &gs.Strategies); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(paramsList), &gs.ParamsList); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(exitRules), &gs.ExitRules); err != nil {
		return nil, err
	}
	gs.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	return &gs, nil
}

// ListGroupSets returns the sorted names of all saved presets.
func (s *SQLiteIndex) ListGroupSets() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM group_sets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteGroupSet removes a preset, reporting whether it existed.
func (s *SQLiteIndex) DeleteGroupSet(name string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM group_sets WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
