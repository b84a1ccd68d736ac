// Package builtins provides the built-in strategy implementations that ship
// with quantlab.
package builtins

import (
	"fmt"
	"math"

	"quantlab/internal/domain"
	"quantlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MACrossover)(nil)

// MACrossover is a moving average crossover strategy: long while the fast
// SMA is above the slow SMA, short while it is below, flat otherwise.
type MACrossover struct {
	FastPeriod int
	SlowPeriod int
}

// NewMACrossover builds an MACrossover from a parameter mapping. Recognised
// parameters: fast_period (default 20), slow_period (default 50).
func NewMACrossover(params map[string]float64) (strategy.Strategy, error) {
	s := &MACrossover{FastPeriod: 20, SlowPeriod: 50}
	if v, ok := params["fast_period"]; ok {
		s.FastPeriod = int(v)
	}
	if v, ok := params["slow_period"]; ok {
		s.SlowPeriod = int(v)
	}
	if s.FastPeriod <= 0 || s.SlowPeriod <= 0 {
		return nil, &strategy.ComputationError{
			Strategy: s.Name(),
			Reason:   fmt.Sprintf("periods must be positive, got fast=%d slow=%d", s.FastPeriod, s.SlowPeriod),
		}
	}
	return s, nil
}

// Name returns "ma_crossover".
func (s *MACrossover) Name() string {
	return "ma_crossover"
}

// Params returns the strategy's parameter mapping.
func (s *MACrossover) Params() map[string]float64 {
	return map[string]float64{
		"fast_period": float64(s.FastPeriod),
		"slow_period": float64(s.SlowPeriod),
	}
}

// Signals goes long where the fast SMA is above the slow SMA and short where
// it is below. Bars where either average is unavailable (NaN warmup) stay
// flat.
func (s *MACrossover) Signals(t *domain.Table) ([]domain.Signal, error) {
	fastCol := fmt.Sprintf("SMA_%d", s.FastPeriod)
	slowCol := fmt.Sprintf("SMA_%d", s.SlowPeriod)

	fast, ok := t.Column(fastCol)
	if !ok {
		return nil, &strategy.ComputationError{Strategy: s.Name(), Reason: "required column " + fastCol + " not found"}
	}
	slow, ok := t.Column(slowCol)
	if !ok {
		return nil, &strategy.ComputationError{Strategy: s.Name(), Reason: "required column " + slowCol + " not found"}
	}

	signals := make([]domain.Signal, t.Len())
	for i := range signals {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			continue
		}
		switch {
		case fast[i] > slow[i]:
			signals[i] = domain.Long
		case fast[i] < slow[i]:
			signals[i] = domain.Short
		}
	}
	return signals, nil
}
