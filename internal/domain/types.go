// Package domain defines the core types shared across the quantlab system:
// bars, signal series, trade logs, performance metrics, and the composite
// keys under which backtest results are stored.
package domain

import (
	"fmt"
	"time"
)

// Signal is the desired position for a bar: -1 short, 0 flat, +1 long.
type Signal int8

const (
	Short Signal = -1
	Flat  Signal = 0
	Long  Signal = +1
)

// Exit reasons recorded on closed trades.
const (
	ExitSignal      = "Signal Exit"
	ExitReversal    = "Signal Reversal"
	ExitEndOfPeriod = "End of Period"
)

// Bar is a single daily OHLCV bar for a symbol.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Table is the price + indicator table a strategy consumes. Dates and every
// column have equal length; the "Close" column is always present.
type Table struct {
	Dates   []string
	Columns map[string][]float64
}

// NewTable creates an empty table for the given date labels.
func NewTable(dates []string) *Table {
	return &Table{
		Dates:   dates,
		Columns: make(map[string][]float64),
	}
}

// Column returns the named column. The second return value indicates whether
// the column exists.
func (t *Table) Column(name string) ([]float64, bool) {
	c, ok := t.Columns[name]
	return c, ok
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	return len(t.Dates)
}

// TradeLogEntry is one closed trade extracted from a position trail.
type TradeLogEntry struct {
	Num           int     `json:"trade_no"`
	EntryDate     string  `json:"entry_date"`
	EntryPrice    float64 `json:"entry_price"`
	ExitDate      string  `json:"exit_date"`
	ExitPrice     float64 `json:"exit_price"`
	Side          string  `json:"side"` // "Long" or "Short"
	Size          float64 `json:"size"` // floor(entry equity / entry price)
	HoldingPeriod int     `json:"holding_period"`
	PnLPct        float64 `json:"pnl_pct"`
	PnLDollar     float64 `json:"pnl_dollar"`
	MAE           float64 `json:"mae"`
	MFE           float64 `json:"mfe"`
	ExitReason    string  `json:"exit_reason"`
	Comment       string  `json:"comment"`
}

// Metrics holds the seven summary statistics derived from an equity curve.
//
// WinRate is bar-level: the fraction of bars with a positive equity return,
// not the fraction of winning trades in the trade log.
type Metrics struct {
	WinRate     float64 `json:"win_rate"`
	NumTrades   int     `json:"num_trades"`
	TotalReturn float64 `json:"total_return"`
	CAGR        float64 `json:"cagr"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Expectancy  float64 `json:"expectancy"`
}

// Key identifies a stored backtest: one result per (symbol, strategy,
// canonical params digest, exit rule).
type Key struct {
	Symbol     string
	Strategy   string
	ParamsHash string
	ExitRule   string
}

// ID returns the record identifier used to key sub-artifacts on disk.
func (k Key) ID() string {
	return fmt.Sprintf("%s_%s_%s_%s", k.Symbol, k.Strategy, k.ParamsHash, k.ExitRule)
}

// Record is a fully hydrated backtest result: the metadata row merged with
// whatever sub-artifacts were persisted. Equity, Positions, Dates, and
// Trades are nil when the corresponding artifact is absent.
type Record struct {
	Key       Key
	Params    map[string]float64
	Metrics   Metrics
	StartDate string
	EndDate   string
	Equity    []float64
	Positions []Signal
	Dates     []string
	Trades    []TradeLogEntry
}

// GroupSet is a named, reusable batch preset: the cross-product inputs for a
// batch run. Re-saving under the same name overwrites the previous set.
type GroupSet struct {
	Name       string               `json:"name"`
	Symbols    []string             `json:"symbols"`
	Strategies []string             `json:"strategies"`
	ParamsList []map[string]float64 `json:"params_list"`
	ExitRules  []string             `json:"exit_rules"`
	CreatedAt  time.Time            `json:"created_at"`
}
