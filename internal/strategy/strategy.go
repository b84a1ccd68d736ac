// Package strategy defines the Strategy interface for signal-generating
// trading rules and provides a Registry of named, parametrized factories.
package strategy

import (
	"fmt"
	"sort"

	"quantlab/internal/domain"
)

// Strategy turns a price + indicator table into a signal series aligned 1:1
// with the table's rows.
type Strategy interface {
	// Name returns the registry identifier for this strategy.
	Name() string

	// Params returns the strategy's parameter mapping, used for canonical
	// hashing and persistence.
	Params() map[string]float64

	// Signals computes the desired position for every row of the table.
	Signals(t *domain.Table) ([]domain.Signal, error)
}

// Factory builds a strategy instance from a parameter mapping. Missing
// parameters take the strategy's defaults; an invalid combination returns an
// error.
type Factory func(params map[string]float64) (Strategy, error)

// Config names a strategy together with the parameters to build it with.
type Config struct {
	Name   string
	Params map[string]float64
}

// Registry holds a named collection of strategy factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under the given name, replacing any previous
// registration.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Build constructs a strategy by name with the given parameters.
func (r *Registry) Build(name string, params map[string]float64) (Strategy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s (available: %v)", name, r.List())
	}
	return f(params)
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Grid expands a parameter grid into one Config per combination. Parameter
// names are iterated in sorted order so the output order is deterministic.
func Grid(name string, grid map[string][]float64) []Config {
	keys := make([]string, 0, len(grid))
	for k := range grid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	configs := []Config{{Name: name, Params: map[string]float64{}}}
	for _, k := range keys {
		next := make([]Config, 0, len(configs)*len(grid[k]))
		for _, c := range configs {
			for _, v := range grid[k] {
				params := make(map[string]float64, len(c.Params)+1)
				for pk, pv := range c.Params {
					params[pk] = pv
				}
				params[k] = v
				next = append(next, Config{Name: name, Params: params})
			}
		}
		configs = next
	}
	return configs
}
