package store

import (
	"os"
	"path/filepath"

	"quantlab/internal/domain"
)

// ArtifactStore holds the heavy per-backtest payloads as Parquet files keyed
// by record id: the equity curve (with date labels and the position trail)
// and the trade log. Layout:
//
//	<DataDir>/backtests/equity/<record_id>.parquet
//	<DataDir>/backtests/trades/<record_id>.parquet
type ArtifactStore struct {
	DataDir string
}

// NewArtifactStore creates an ArtifactStore rooted at the given data
// directory.
func NewArtifactStore(dataDir string) *ArtifactStore {
	return &ArtifactStore{DataDir: dataDir}
}

// equityRow is the Parquet schema for one bar of the equity artifact.
type equityRow struct {
	Idx      int64   `parquet:"idx"`
	Date     string  `parquet:"date"`
	Equity   float64 `parquet:"equity"`
	Position int32   `parquet:"position"`
}

// tradeRow is the Parquet schema for one entry of the trade artifact.
type tradeRow struct {
	Num           int64   `parquet:"trade_no"`
	EntryDate     string  `parquet:"entry_date"`
	EntryPrice    float64 `parquet:"entry_price"`
	ExitDate      string  `parquet:"exit_date"`
	ExitPrice     float64 `parquet:"exit_price"`
	Side          string  `parquet:"side"`
	Size          float64 `parquet:"size"`
	HoldingPeriod int64   `parquet:"holding_period"`
	PnLPct        float64 `parquet:"pnl_pct"`
	PnLDollar     float64 `parquet:"pnl_dollar"`
	MAE           float64 `parquet:"mae"`
	MFE           float64 `parquet:"mfe"`
	ExitReason    string  `parquet:"exit_reason"`
	Comment       string  `parquet:"comment"`
}

// WriteEquity persists the equity curve with its date labels and position
// trail. dates and positions may be shorter than equity (or nil); missing
// entries are stored as zero values.
func (a *ArtifactStore) WriteEquity(recordID string, equity []float64, positions []domain.Signal, dates []string) error {
	rows := make([]equityRow, len(equity))
	for i, e := range equity {
		r := equityRow{Idx: int64(i), Equity: e}
		if i < len(dates) {
			r.Date = dates[i]
		}
		if i < len(positions) {
			r.Position = int32(positions[i])
		}
		rows[i] = r
	}
	return writeParquetFile(a.equityPath(recordID), rows)
}

// ReadEquity loads the equity artifact for a record. A missing artifact
// returns (nil, nil, nil, false, nil).
func (a *ArtifactStore) ReadEquity(recordID string) (equity []float64, positions []domain.Signal, dates []string, ok bool, err error) {
	path := a.equityPath(recordID)
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, nil, nil, false, nil
	}

	rows, err := readParquetFile[equityRow](path)
	if err != nil {
		return nil, nil, nil, false, err
	}

	equity = make([]float64, len(rows))
	positions = make([]domain.Signal, len(rows))
	dates = make([]string, len(rows))
	for i, r := range rows {
		equity[i] = r.Equity
		positions[i] = domain.Signal(r.Position)
		dates[i] = r.Date
	}
	return equity, positions, dates, true, nil
}

// WriteTrades persists the trade log. An empty log writes an empty artifact
// so that a backtest with zero trades reads back as an empty list rather
// than a missing one.
func (a *ArtifactStore) WriteTrades(recordID string, trades []domain.TradeLogEntry) error {
	rows := make([]tradeRow, len(trades))
	for i, t := range trades {
		rows[i] = tradeRow{
			Num:           int64(t.Num),
			EntryDate:     t.EntryDate,
			EntryPrice:    t.EntryPrice,
			ExitDate:      t.ExitDate,
			ExitPrice:     t.ExitPrice,
			Side:          t.Side,
			Size:          t.Size,
			HoldingPeriod: int64(t.HoldingPeriod),
			PnLPct:        t.PnLPct,
			PnLDollar:     t.PnLDollar,
			MAE:           t.MAE,
			MFE:           t.MFE,
			ExitReason:    t.ExitReason,
			Comment:       t.Comment,
		}
	}
	return writeParquetFile(a.tradesPath(recordID), rows)
}

// ReadTrades loads the trade artifact for a record. A missing artifact
// returns (nil, false, nil); an empty stored log returns an empty non-nil
// slice.
func (a *ArtifactStore) ReadTrades(recordID string) ([]domain.TradeLogEntry, bool, error) {
	path := a.tradesPath(recordID)
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, false, nil
	}

	rows, err := readParquetFile[tradeRow](path)
	if err != nil {
		return nil, false, err
	}

	trades := make([]domain.TradeLogEntry, len(rows))
	for i, r := range rows {
		trades[i] = domain.TradeLogEntry{
			Num:           int(r.Num),
			EntryDate:     r.EntryDate,
			EntryPrice:    r.EntryPrice,
			ExitDate:      r.ExitDate,
			ExitPrice:     r.ExitPrice,
			Side:          r.Side,
			Size:          r.Size,
			HoldingPeriod: int(r.HoldingPeriod),
			PnLPct:        r.PnLPct,
			PnLDollar:     r.PnLDollar,
			MAE:           r.MAE,
			MFE:           r.MFE,
			ExitReason:    r.ExitReason,
			Comment:       r.Comment,
		}
	}
	return trades, true, nil
}

// Delete removes both artifacts for a record. Missing files are ignored.
func (a *ArtifactStore) Delete(recordID string) {
	os.Remove(a.equityPath(recordID))
	os.Remove(a.tradesPath(recordID))
}

// SizeBytes sums the on-disk size of all stored artifacts.
func (a *ArtifactStore) SizeBytes() int64 {
	var total int64
	root := filepath.Join(a.DataDir, "backtests")
	filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}

func (a *ArtifactStore) equityPath(recordID string) string {
	return filepath.Join(a.DataDir, "backtests", "equity", recordID+".parquet")
}

func (a *ArtifactStore) tradesPath(recordID string) string {
	return filepath.Join(a.DataDir, "backtests", "trades", recordID+".parquet")
}
