package sim

import (
	"math"

	"quantlab/internal/domain"
)

// tradingDaysPerYear is the annualization constant for daily bars.
const tradingDaysPerYear = 252.0

// ComputeMetrics derives the seven summary statistics from an equity curve.
// All outputs are finite; degenerate inputs (empty curve, zero variance, no
// trades) yield zeros rather than NaN or Inf.
//
// WinRate is the fraction of bars with a positive equity return. It is a
// bar-level statistic, not the win fraction of the trade log.
func ComputeMetrics(equity []float64, numTrades int) domain.Metrics {
	var m domain.Metrics
	m.NumTrades = numTrades
	if len(equity) == 0 || equity[0] == 0 {
		return m
	}

	m.TotalReturn = (equity[len(equity)-1] - equity[0]) / equity[0]

	years := float64(len(equity)) / tradingDaysPerYear
	if years > 0 {
		m.CAGR = math.Pow(1+m.TotalReturn, 1/years) - 1
	}

	returns := barReturns(equity)
	if len(returns) > 0 {
		mean, std := meanStd(returns)
		if std > 0 {
			m.SharpeRatio = mean / std * math.Sqrt(tradingDaysPerYear)
		}

		wins := 0
		for _, r := range returns {
			if r > 0 {
				wins++
			}
		}
		m.WinRate = float64(wins) / float64(len(returns))
	}

	m.MaxDrawdown = maxDrawdown(equity)

	if numTrades > 0 {
		m.Expectancy = m.TotalReturn / float64(numTrades)
	}

	return m
}

// barReturns computes per-bar equity returns, discarding NaNs.
func barReturns(equity []float64) []float64 {
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		r := (equity[i] - equity[i-1]) / equity[i-1]
		if !math.IsNaN(r) {
			returns = append(returns, r)
		}
	}
	return returns
}

func meanStd(xs []float64) (mean, std float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return mean, math.Sqrt(variance)
}

// maxDrawdown is the largest percentage decline of equity from its running
// peak. Always <= 0.
func maxDrawdown(equity []float64) float64 {
	peak := equity[0]
	worst := 0.0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		dd := (e - peak) / peak
		if dd < worst {
			worst = dd
		}
	}
	return worst
}
