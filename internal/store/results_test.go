package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"quantlab/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestResults(t *testing.T) *Results {
	t.Helper()
	dir := t.TempDir()
	r, err := OpenResults(filepath.Join(dir, "quantlab.db"), dir, testLogger())
	if err != nil {
		t.Fatalf("OpenResults: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

var testMetrics = domain.Metrics{
	WinRate:     0.55,
	NumTrades:   12,
	TotalReturn: 0.31,
	CAGR:        0.14,
	SharpeRatio: 1.21,
	MaxDrawdown: -0.18,
	Expectancy:  0.0258,
}

func TestStoreAndQueryRoundTrip(t *testing.T) {
	r := openTestResults(t)
	params := map[string]float64{"fast_period": 20, "slow_period": 50}

	id, err := r.Store("AAPL", "ma_crossover", params, "default", testMetrics, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if id == "" {
		t.Fatal("Store returned empty record id")
	}

	rows, err := r.Query(Filter{Symbol: "AAPL"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Query returned %d rows, want 1", len(rows))
	}

	// Metrics round-trip bit-equal through the SQLite REAL columns.
	if rows[0].Metrics != testMetrics {
		t.Errorf("metrics round-trip mismatch:\n  got  %+v\n  want %+v", rows[0].Metrics, testMetrics)
	}
	if rows[0].Params["fast_period"] != 20 || rows[0].Params["slow_period"] != 50 {
		t.Errorf("decoded params = %v, want fast=20 slow=50", rows[0].Params)
	}
}

func TestStoreUpsertLastWriteWins(t *testing.T) {
	r := openTestResults(t)
	params := map[string]float64{"rsi_period": 14}

	if _, err := r.Store("TSLA", "rsi_meanrev", params, "default", testMetrics, nil, nil, nil, nil); err != nil {
		t.Fatalf("Store (first): %v", err)
	}

	updated := testMetrics
	updated.TotalReturn = 0.99
	if _, err := r.Store("TSLA", "rsi_meanrev", params, "default", updated, nil, nil, nil, nil); err != nil {
		t.Fatalf("Store (second): %v", err)
	}

	rows, err := r.Query(Filter{Symbol: "TSLA"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("repeated store produced %d rows, want 1 (upsert)", len(rows))
	}
	if rows[0].Metrics.TotalReturn != 0.99 {
		t.Errorf("TotalReturn = %v, want 0.99 (last write wins)", rows[0].Metrics.TotalReturn)
	}
}

func TestQueryFilterCombinations(t *testing.T) {
	r := openTestResults(t)
	paramsA := map[string]float64{"fast_period": 20, "slow_period": 50}
	paramsB := map[string]float64{"fast_period": 50, "slow_period": 200}

	mustStore := func(symbol, strategy string, params map[string]float64, exitRule string) {
		t.Helper()
		if _, err := r.Store(symbol, strategy, params, exitRule, testMetrics, nil, nil, nil, nil); err != nil {
			t.Fatalf("Store(%s, %s): %v", symbol, strategy, err)
		}
	}
	mustStore("AAPL", "ma_crossover", paramsA, "default")
	mustStore("AAPL", "ma_crossover", paramsB, "default")
	mustStore("AAPL", "rsi_meanrev", map[string]float64{"rsi_period": 14}, "default")
	mustStore("MSFT", "ma_crossover", paramsA, "default")

	cases := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no filters", Filter{}, 4},
		{"symbol", Filter{Symbol: "AAPL"}, 3},
		{"strategy", Filter{Strategy: "ma_crossover"}, 3},
		{"symbol+strategy", Filter{Symbol: "AAPL", Strategy: "ma_crossover"}, 2},
		{"params", Filter{Params: paramsA}, 2},
		{"symbol+params", Filter{Symbol: "MSFT", Params: paramsA}, 1},
		{"exit rule", Filter{ExitRule: "default"}, 4},
		{"miss", Filter{Symbol: "GOOG"}, 0},
	}

	for _, tc := range cases {
		rows, err := r.Query(tc.filter)
		if err != nil {
			t.Fatalf("%s: Query: %v", tc.name, err)
		}
		if len(rows) != tc.want {
			t.Errorf("%s: got %d rows, want %d", tc.name, len(rows), tc.want)
		}
	}
}

func TestQueryParamsFilterOrderIndependent(t *testing.T) {
	r := openTestResults(t)
	stored := map[string]float64{"fast_period": 20, "slow_period": 50}
	if _, err := r.Store("AAPL", "ma_crossover", stored, "default", testMetrics, nil, nil, nil, nil); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Same parameters built in a different insertion order filter identically.
	lookup := map[string]float64{"slow_period": 50, "fast_period": 20}
	rows, err := r.Query(Filter{Params: lookup})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("params filter matched %d rows, want 1", len(rows))
	}
}

func TestGetDetailedWithArtifacts(t *testing.T) {
	r := openTestResults(t)
	params := map[string]float64{"fast_period": 20, "slow_period": 50}
	equity := []float64{100000, 101000, 99000, 93000}
	positions := []domain.Signal{0, 1, 1, -1}
	dates := []string{"2020-01-01", "2020-01-02", "2020-01-03", "2020-01-06"}
	trades := []domain.TradeLogEntry{
		{
			Num: 1, EntryDate: "2020-01-02", EntryPrice: 101, ExitDate: "2020-01-06",
			ExitPrice: 105, Side: "Long", Size: 1000, HoldingPeriod: 2,
			PnLPct: 0.0396, PnLDollar: -8000, MAE: -0.0198, MFE: 0.0396,
			ExitReason: domain.ExitReversal,
		},
	}

	if _, err := r.Store("AAPL", "ma_crossover", params, "default", testMetrics, equity, positions, dates, trades); err != nil {
		t.Fatalf("Store: %v", err)
	}

	rec, err := r.GetDetailed("AAPL", "ma_crossover", params, "default")
	if err != nil {
		t.Fatalf("GetDetailed: %v", err)
	}
	if rec == nil {
		t.Fatal("GetDetailed returned nil for stored key")
	}

	if rec.Metrics != testMetrics {
		t.Errorf("metrics mismatch: got %+v, want %+v", rec.Metrics, testMetrics)
	}
	if len(rec.Equity) != 4 || rec.Equity[3] != 93000 {
		t.Errorf("equity = %v, want %v", rec.Equity, equity)
	}
	if len(rec.Positions) != 4 || rec.Positions[3] != domain.Short {
		t.Errorf("positions = %v, want %v", rec.Positions, positions)
	}
	if len(rec.Dates) != 4 || rec.Dates[0] != "2020-01-01" {
		t.Errorf("dates = %v, want %v", rec.Dates, dates)
	}
	if len(rec.Trades) != 1 || rec.Trades[0].ExitReason != domain.ExitReversal {
		t.Errorf("trades = %+v, want one reversal trade", rec.Trades)
	}
	if rec.StartDate != "2020-01-01" || rec.EndDate != "2020-01-06" {
		t.Errorf("date labels = %s/%s, want 2020-01-01/2020-01-06", rec.StartDate, rec.EndDate)
	}
}

func TestGetDetailedEmptyTrades(t *testing.T) {
	r := openTestResults(t)
	params := map[string]float64{"rsi_period": 14}

	// An all-flat backtest stores an empty, non-nil trade list; it must read
	// back as empty, not missing.
	if _, err := r.Store("AAPL", "rsi_meanrev", params, "default", testMetrics,
		[]float64{100000, 100000}, []domain.Signal{0, 0}, []string{"d1", "d2"},
		[]domain.TradeLogEntry{}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	rec, err := r.GetDetailed("AAPL", "rsi_meanrev", params, "default")
	if err != nil {
		t.Fatalf("GetDetailed: %v", err)
	}
	if rec.Trades == nil {
		t.Fatal("Trades is nil, want empty non-nil list")
	}
	if len(rec.Trades) != 0 {
		t.Errorf("got %d trades, want 0", len(rec.Trades))
	}
}

func TestGetDetailedMiss(t *testing.T) {
	r := openTestResults(t)

	rec, err := r.GetDetailed("NOPE", "ma_crossover", nil, "default")
	if err != nil {
		t.Fatalf("GetDetailed: %v", err)
	}
	if rec != nil {
		t.Errorf("GetDetailed = %+v, want nil for unknown key", rec)
	}
}

func TestBulkGet(t *testing.T) {
	r := openTestResults(t)
	params := map[string]float64{"fast_period": 20, "slow_period": 50}

	for _, symbol := range []string{"AAPL", "MSFT"} {
		if _, err := r.Store(symbol, "ma_crossover", params, "default", testMetrics, nil, nil, nil, nil); err != nil {
			t.Fatalf("Store(%s): %v", symbol, err)
		}
	}

	rows, err := r.BulkGet([]Lookup{
		{Symbol: "AAPL", Strategy: "ma_crossover", Params: params, ExitRule: "default"},
		{Symbol: "MISSING", Strategy: "ma_crossover", Params: params, ExitRule: "default"},
		{Symbol: "MSFT", Strategy: "ma_crossover", Params: params, ExitRule: "default"},
	})
	if err != nil {
		t.Fatalf("BulkGet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("BulkGet returned %d rows, want 2 (miss skipped)", len(rows))
	}
	if rows[0].Symbol != "AAPL" || rows[1].Symbol != "MSFT" {
		t.Errorf("BulkGet symbols = %s, %s, want AAPL, MSFT", rows[0].Symbol, rows[1].Symbol)
	}
}

func TestDelete(t *testing.T) {
	r := openTestResults(t)
	params := map[string]float64{"fast_period": 20, "slow_period": 50}

	if _, err := r.Store("AAPL", "ma_crossover", params, "default", testMetrics,
		[]float64{100000, 101000}, []domain.Signal{0, 1}, []string{"d1", "d2"}, nil); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Deleting an unknown key reports false.
	ok, err := r.Delete("MISSING", "ma_crossover", params, "default")
	if err != nil {
		t.Fatalf("Delete (miss): %v", err)
	}
	if ok {
		t.Error("Delete returned true for unknown key")
	}

	// Deleting the stored key reports true and removes it from queries.
	ok, err = r.Delete("AAPL", "ma_crossover", params, "default")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !ok {
		t.Fatal("Delete returned false for stored key")
	}

	rows, err := r.Query(Filter{Symbol: "AAPL"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("query after delete returned %d rows, want 0", len(rows))
	}

	rec, err := r.GetDetailed("AAPL", "ma_crossover", params, "default")
	if err != nil {
		t.Fatalf("GetDetailed after delete: %v", err)
	}
	if rec != nil {
		t.Error("GetDetailed returned a record after delete")
	}
}

func TestSummary(t *testing.T) {
	r := openTestResults(t)
	params := map[string]float64{"fast_period": 20, "slow_period": 50}

	mustStore := func(symbol, strategy string) {
		t.Helper()
		if _, err := r.Store(symbol, strategy, params, "default", testMetrics,
			[]float64{100000, 101000}, nil, nil, nil); err != nil {
			t.Fatalf("Store(%s, %s): %v", symbol, strategy, err)
		}
	}
	mustStore("AAPL", "ma_crossover")
	mustStore("AAPL", "rsi_meanrev")
	mustStore("MSFT", "ma_crossover")

	sum, err := r.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 3 {
		t.Errorf("Total = %d, want 3", sum.Total)
	}
	if sum.UniqueSymbols != 2 {
		t.Errorf("UniqueSymbols = %d, want 2", sum.UniqueSymbols)
	}
	if sum.UniqueStrategies != 2 {
		t.Errorf("UniqueStrategies = %d, want 2", sum.UniqueStrategies)
	}
	if sum.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d, want > 0", sum.SizeBytes)
	}
}

func TestGroupSetCRUD(t *testing.T) {
	r := openTestResults(t)

	gs := domain.GroupSet{
		Name:       "tech-giants",
		Symbols:    []string{"AAPL", "MSFT", "GOOG"},
		Strategies: []string{"ma_crossover"},
		ParamsList: []map[string]float64{{"fast_period": 20, "slow_period": 50}},
		ExitRules:  []string{"default"},
	}
	if err := r.SaveGroupSet(gs); err != nil {
		t.Fatalf("SaveGroupSet: %v", err)
	}

	loaded, err := r.LoadGroupSet("tech-giants")
	if err != nil {
		t.Fatalf("LoadGroupSet: %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadGroupSet returned nil for saved set")
	}
	if len(loaded.Symbols) != 3 || loaded.Symbols[0] != "AAPL" {
		t.Errorf("Symbols = %v, want %v", loaded.Symbols, gs.Symbols)
	}
	if loaded.CreatedAt.IsZero() {
		t.Error("CreatedAt was not stamped on save")
	}

	// Re-saving under the same name overwrites wholesale.
	gs.Symbols = []string{"NVDA"}
	if err := r.SaveGroupSet(gs); err != nil {
		t.Fatalf("SaveGroupSet (overwrite): %v", err)
	}
	loaded, err = r.LoadGroupSet("tech-giants")
	if err != nil {
		t.Fatalf("LoadGroupSet (after overwrite): %v", err)
	}
	if len(loaded.Symbols) != 1 || loaded.Symbols[0] != "NVDA" {
		t.Errorf("Symbols after overwrite = %v, want [NVDA]", loaded.Symbols)
	}

	names, err := r.ListGroupSets()
	if err != nil {
		t.Fatalf("ListGroupSets: %v", err)
	}
	if len(names) != 1 || names[0] != "tech-giants" {
		t.Errorf("ListGroupSets = %v, want [tech-giants]", names)
	}

	ok, err := r.DeleteGroupSet("tech-giants")
	if err != nil {
		t.Fatalf("DeleteGroupSet: %v", err)
	}
	if !ok {
		t.Error("DeleteGroupSet returned false for saved set")
	}
	ok, err = r.DeleteGroupSet("tech-giants")
	if err != nil {
		t.Fatalf("DeleteGroupSet (second): %v", err)
	}
	if ok {
		t.Error("DeleteGroupSet returned true for deleted set")
	}

	missing, err := r.LoadGroupSet("tech-giants")
	if err != nil {
		t.Fatalf("LoadGroupSet (deleted): %v", err)
	}
	if missing != nil {
		t.Error("LoadGroupSet returned a set after delete")
	}
}
