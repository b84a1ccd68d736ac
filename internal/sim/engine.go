// Package sim implements the bar-by-bar backtest simulation: turning a price
// series and a signal series into an equity curve, a position trail, and a
// trade-by-trade log with summary metrics.
package sim

import "quantlab/internal/domain"

// DefaultInitialCapital is the starting account value used when a caller
// does not specify one.
const DefaultInitialCapital = 100000.0

// Simulate runs a deterministic bar-by-bar backtest. prices and signals must
// have equal length; prices are assumed positive. For each bar the held
// position is updated to the bar's signal, then the bar's price return is
// applied to equity at the held direction. Leaving a nonzero position counts
// one trade.
//
// The returned equity curve starts at initialCapital and the position trail
// starts flat.
func Simulate(prices []float64, signals []domain.Signal, initialCapital float64) (equity []float64, positions []domain.Signal, numTrades int) {
	n := len(prices)
	equity = make([]float64, n)
	positions = make([]domain.Signal, n)
	if n == 0 {
		return equity, positions, 0
	}

	equity[0] = initialCapital
	held := domain.Flat

	for i := 1; i < n; i++ {
		if signals[i] != held {
			if held != domain.Flat {
				numTrades++
			}
			held = signals[i]
		}
		positions[i] = held

		if held != domain.Flat {
			change := (prices[i] - prices[i-1]) / prices[i-1]
			equity[i] = equity[i-1] * (1 + float64(held)*change)
		} else {
			equity[i] = equity[i-1]
		}
	}

	return equity, positions, numTrades
}
