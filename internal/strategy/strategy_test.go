package strategy

import (
	"testing"

	"quantlab/internal/domain"
)

// stubStrategy is a minimal Strategy implementation used in registry tests.
type stubStrategy struct {
	name string
}

func (s *stubStrategy) Name() string                { return s.name }
func (s *stubStrategy) Params() map[string]float64  { return nil }
func (s *stubStrategy) Signals(_ *domain.Table) ([]domain.Signal, error) {
	return nil, nil
}

func stubFactory(name string) Factory {
	return func(_ map[string]float64) (Strategy, error) {
		return &stubStrategy{name: name}, nil
	}
}

func TestRegistryBuild(t *testing.T) {
	r := NewRegistry()
	r.Register("test-strategy", stubFactory("test-strategy"))

	s, err := r.Build("test-strategy", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Name() != "test-strategy" {
		t.Errorf("Build returned strategy with Name() = %q, want %q", s.Name(), "test-strategy")
	}
}

func TestRegistryBuildUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Build("nonexistent", nil); err == nil {
		t.Error("Build returned nil error for unregistered strategy")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register("beta", stubFactory("beta"))
	r.Register("alpha", stubFactory("alpha"))

	names := r.List()
	if len(names) != 2 {
		t.Fatalf("List returned %d names, want 2", len(names))
	}
	if names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List = %v, want [alpha beta] (sorted)", names)
	}
}

func TestGrid(t *testing.T) {
	configs := Grid("ma_crossover", map[string][]float64{
		"fast_period": {10, 20},
		"slow_period": {50, 100, 200},
	})

	if len(configs) != 6 {
		t.Fatalf("Grid produced %d configs, want 6", len(configs))
	}
	for _, c := range configs {
		if c.Name != "ma_crossover" {
			t.Errorf("config name = %q, want ma_crossover", c.Name)
		}
		if len(c.Params) != 2 {
			t.Errorf("config params = %v, want both parameters set", c.Params)
		}
	}

	// Deterministic order: fast_period varies slowest (sorted key order).
	if configs[0].Params["fast_period"] != 10 || configs[0].Params["slow_period"] != 50 {
		t.Errorf("first config = %v, want fast=10 slow=50", configs[0].Params)
	}
}

func TestGridEmpty(t *testing.T) {
	configs := Grid("rsi_meanrev", nil)
	if len(configs) != 1 {
		t.Fatalf("Grid with no parameters produced %d configs, want 1", len(configs))
	}
	if len(configs[0].Params) != 0 {
		t.Errorf("config params = %v, want empty", configs[0].Params)
	}
}
