// Package indicator computes the technical indicator columns (SMA, RSI)
// that strategies consume, and assembles price + indicator tables from
// stored daily bars.
package indicator

import "math"

// SMA computes the simple moving average of prices over the given period.
// The first period-1 entries are NaN (warmup).
func SMA(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(prices) < period {
		return out
	}

	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// RSI computes the Relative Strength Index of prices over the given period
// using exponential smoothing with alpha = 2/(period+1). Values range 0-100;
// the first period entries are NaN (warmup).
func RSI(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(prices) <= period {
		return out
	}

	alpha := 2.0 / float64(period+1)
	var avgGain, avgLoss float64

	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = alpha*gain + (1-alpha)*avgGain
			avgLoss = alpha*loss + (1-alpha)*avgLoss
		}

		if i >= period {
			if avgLoss == 0 {
				out[i] = 100
			} else {
				rs := avgGain / avgLoss
				out[i] = 100 - 100/(1+rs)
			}
		}
	}
	return out
}
