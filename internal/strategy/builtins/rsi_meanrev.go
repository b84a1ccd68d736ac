package builtins

import (
	"fmt"
	"math"

	"quantlab/internal/domain"
	"quantlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*RSIMeanReversion)(nil)

// RSIMeanReversion is an RSI mean-reversion strategy: long when RSI drops
// below the oversold threshold (expecting a bounce), short when it rises
// above the overbought threshold (expecting a pullback).
type RSIMeanReversion struct {
	Period     int
	Oversold   float64
	Overbought float64
}

// NewRSIMeanReversion builds an RSIMeanReversion from a parameter mapping.
// Recognised parameters: rsi_period (default 14), oversold (default 30),
// overbought (default 70).
func NewRSIMeanReversion(params map[string]float64) (strategy.Strategy, error) {
	s := &RSIMeanReversion{Period: 14, Oversold: 30, Overbought: 70}
	if v, ok := params["rsi_period"]; ok {
		s.Period = int(v)
	}
	if v, ok := params["oversold"]; ok {
		s.Oversold = v
	}
	if v, ok := params["overbought"]; ok {
		s.Overbought = v
	}
	if s.Period <= 0 {
		return nil, &strategy.ComputationError{
			Strategy: s.Name(),
			Reason:   fmt.Sprintf("rsi_period must be positive, got %d", s.Period),
		}
	}
	if s.Oversold >= s.Overbought {
		return nil, &strategy.ComputationError{
			Strategy: s.Name(),
			Reason:   fmt.Sprintf("oversold (%v) must be below overbought (%v)", s.Oversold, s.Overbought),
		}
	}
	return s, nil
}

// Name returns "rsi_meanrev".
func (s *RSIMeanReversion) Name() string {
	return "rsi_meanrev"
}

// Params returns the strategy's parameter mapping.
func (s *RSIMeanReversion) Params() map[string]float64 {
	return map[string]float64{
		"rsi_period": float64(s.Period),
		"oversold":   s.Oversold,
		"overbought": s.Overbought,
	}
}

// Signals goes long below the oversold threshold and short above the
// overbought threshold. Warmup bars with NaN RSI stay flat.
func (s *RSIMeanReversion) Signals(t *domain.Table) ([]domain.Signal, error) {
	col := fmt.Sprintf("RSI_%d", s.Period)
	rsi, ok := t.Column(col)
	if !ok {
		return nil, &strategy.ComputationError{Strategy: s.Name(), Reason: "required column " + col + " not found"}
	}

	signals := make([]domain.Signal, t.Len())
	for i := range signals {
		if math.IsNaN(rsi[i]) {
			continue
		}
		switch {
		case rsi[i] < s.Oversold:
			signals[i] = domain.Long
		case rsi[i] > s.Overbought:
			signals[i] = domain.Short
		}
	}
	return signals, nil
}
