package builtins

import "quantlab/internal/strategy"

// Register adds every built-in strategy factory to the registry.
func Register(r *strategy.Registry) {
	r.Register("ma_crossover", NewMACrossover)
	r.Register("rsi_meanrev", NewRSIMeanReversion)
}
