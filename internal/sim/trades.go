package sim

import (
	"math"

	"quantlab/internal/domain"
)

// openTrade is the extractor's in-trade state.
type openTrade struct {
	side        domain.Signal
	entryIdx    int
	entryPrice  float64
	entryEquity float64
	mae         float64 // running minimum directional excursion
	mfe         float64 // running maximum directional excursion
}

// ExtractTrades walks the position trail and produces the ordered trade log.
// The trade list partitions the nonzero runs of the trail: a run ending at
// zero closes with "Signal Exit", a direct sign flip closes the current
// trade with "Signal Reversal" and opens the next at the same bar, and a
// position still open after the last bar is closed with "End of Period" at
// the last bar's price. An all-flat trail yields an empty, non-nil list.
//
// prices, positions, and equity must have equal length; dates may be nil
// when no date labels are available.
func ExtractTrades(prices []float64, positions []domain.Signal, equity []float64, dates []string) []domain.TradeLogEntry {
	trades := []domain.TradeLogEntry{}
	var open *openTrade
	n := len(positions)

	dateAt := func(i int) string {
		if dates == nil || i >= len(dates) {
			return ""
		}
		return dates[i]
	}

	closeAt := func(i int, reason string) {
		t := domain.TradeLogEntry{
			Num:           len(trades) + 1,
			EntryDate:     dateAt(open.entryIdx),
			EntryPrice:    open.entryPrice,
			ExitDate:      dateAt(i),
			ExitPrice:     prices[i],
			Side:          sideName(open.side),
			Size:          math.Floor(open.entryEquity / open.entryPrice),
			HoldingPeriod: i - open.entryIdx,
			PnLPct:        excursion(open.side, open.entryPrice, prices[i]),
			PnLDollar:     equity[i] - open.entryEquity,
			MAE:           open.mae,
			MFE:           open.mfe,
			ExitReason:    reason,
		}
		trades = append(trades, t)
		open = nil
	}

	for i := 1; i < n; i++ {
		// Update excursions for a trade entered on an earlier bar, so the
		// exit bar's price is reflected in MAE/MFE before the trade closes.
		if open != nil {
			e := excursion(open.side, open.entryPrice, prices[i])
			open.mae = math.Min(open.mae, e)
			open.mfe = math.Max(open.mfe, e)
		}

		pos, prev := positions[i], positions[i-1]
		switch {
		case prev == domain.Flat && pos != domain.Flat:
			open = newOpenTrade(pos, i, prices[i], equity[i])
		case prev != domain.Flat && pos == domain.Flat:
			closeAt(i, domain.ExitSignal)
		case prev != domain.Flat && pos != domain.Flat && pos != prev:
			closeAt(i, domain.ExitReversal)
			open = newOpenTrade(pos, i, prices[i], equity[i])
		}
	}

	if open != nil {
		closeAt(n-1, domain.ExitEndOfPeriod)
	}

	return trades
}

func newOpenTrade(side domain.Signal, idx int, price, eq float64) *openTrade {
	return &openTrade{
		side:        side,
		entryIdx:    idx,
		entryPrice:  price,
		entryEquity: eq,
	}
}

// excursion is the directional P&L fraction since entry: positive when the
// price has moved in the trade's favor.
func excursion(side domain.Signal, entry, price float64) float64 {
	if side == domain.Short {
		return (entry - price) / entry
	}
	return (price - entry) / entry
}

func sideName(s domain.Signal) string {
	if s == domain.Short {
		return "Short"
	}
	return "Long"
}
