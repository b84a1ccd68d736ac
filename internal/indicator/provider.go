package indicator

import (
	"context"
	"fmt"

	"quantlab/internal/domain"
	"quantlab/internal/store"
)

// Provider assembles strategy-ready tables: close prices from the bar store
// plus SMA_{n} and RSI_{n} columns for the configured periods.
type Provider struct {
	bars       store.BarStore
	smaPeriods []int
	rsiPeriods []int
}

// NewProvider creates a Provider reading bars from the given store.
func NewProvider(bars store.BarStore, smaPeriods, rsiPeriods []int) *Provider {
	return &Provider{
		bars:       bars,
		smaPeriods: smaPeriods,
		rsiPeriods: rsiPeriods,
	}
}

// Load reads the daily bars for a symbol and returns a table with the Close
// column and the configured indicator columns. It errors when the symbol has
// no stored bars.
func (p *Provider) Load(ctx context.Context, symbol string) (*domain.Table, error) {
	bars, err := p.bars.ReadBars(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("reading bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bar data for %s", symbol)
	}

	dates := make([]string, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		dates[i] = b.Timestamp.Format("2006-01-02")
		closes[i] = b.Close
	}

	table := domain.NewTable(dates)
	table.Columns["Close"] = closes
	for _, n := range p.smaPeriods {
		table.Columns[fmt.Sprintf("SMA_%d", n)] = SMA(closes, n)
	}
	for _, n := range p.rsiPeriods {
		table.Columns[fmt.Sprintf("RSI_%d", n)] = RSI(closes, n)
	}
	return table, nil
}
