// Package batch sequences backtest units through the simulation pipeline:
// symbols x strategy configs x exit rules, each unit running signals,
// simulation, trade extraction, metrics, and storage.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"quantlab/internal/domain"
	"quantlab/internal/indicator"
	"quantlab/internal/sim"
	"quantlab/internal/store"
	"quantlab/internal/strategy"
)

// ProgressFunc is invoked after every completed unit, successful or not.
// current counts finished units, total is the full cross-product size, and
// msg describes the unit that just finished.
type ProgressFunc func(current, total int, msg string)

// Job describes one batch run: the cross product of symbols, strategy
// configs, and exit rules.
type Job struct {
	Symbols        []string
	Configs        []strategy.Config
	ExitRules      []string
	InitialCapital float64
}

// UnitError records a failed unit without stopping the batch.
type UnitError struct {
	Symbol   string
	Strategy string
	ExitRule string
	Err      error
}

func (e UnitError) Error() string {
	return fmt.Sprintf("%s/%s/%s: %v", e.Symbol, e.Strategy, e.ExitRule, e.Err)
}

// Result summarizes a batch run.
type Result struct {
	Rows      []store.Row
	TotalJobs int
	Completed int
	Errors    []UnitError
}

// SuccessRate returns the fraction of units that completed, or 0 for an
// empty batch.
func (r Result) SuccessRate() float64 {
	if r.TotalJobs == 0 {
		return 0
	}
	return float64(r.Completed) / float64(r.TotalJobs)
}

// Driver runs batch jobs against a table provider, strategy registry, and
// result store.
type Driver struct {
	provider *indicator.Provider
	registry *strategy.Registry
	results  store.ResultStore
	log      *slog.Logger
}

// NewDriver wires a Driver from its dependencies.
func NewDriver(provider *indicator.Provider, registry *strategy.Registry, results store.ResultStore, log *slog.Logger) *Driver {
	return &Driver{
		provider: provider,
		registry: registry,
		results:  results,
		log:      log,
	}
}

// Run executes every unit of the job in deterministic order: symbols outer,
// configs middle, exit rules inner. A failed unit is logged and counted but
// never stops the loop; ctx cancellation between units does. progress may be
// nil.
func (d *Driver) Run(ctx context.Context, job Job, progress ProgressFunc) (Result, error) {
	total := len(job.Symbols) * len(job.Configs) * len(job.ExitRules)
	res := Result{TotalJobs: total}

	capital := job.InitialCapital
	if capital <= 0 {
		capital = sim.DefaultInitialCapital
	}

	current := 0
	report := func(msg string) {
		current++
		if progress != nil {
			progress(current, total, msg)
		}
	}

	for _, symbol := range job.Symbols {
		// One table load per symbol covers every config and exit rule.
		table, tableErr := d.provider.Load(ctx, symbol)

		for _, cfg := range job.Configs {
			for _, exitRule := range job.ExitRules {
				if err := ctx.Err(); err != nil {
					return res, err
				}

				unit := fmt.Sprintf("%s/%s/%s", symbol, cfg.Name, exitRule)
				err := tableErr
				if err == nil {
					err = d.runUnit(symbol, cfg, exitRule, capital, table, &res)
				}
				if err != nil {
					d.log.Warn("backtest unit failed",
						"symbol", symbol, "strategy", cfg.Name, "exit_rule", exitRule, "error", err)
					res.Errors = append(res.Errors, UnitError{
						Symbol:   symbol,
						Strategy: cfg.Name,
						ExitRule: exitRule,
						Err:      err,
					})
					report(unit + ": failed")
					continue
				}

				res.Completed++
				report(unit + ": done")
			}
		}
	}

	return res, nil
}

// runUnit executes one backtest and stores the outcome.
func (d *Driver) runUnit(symbol string, cfg strategy.Config, exitRule string,
	capital float64, table *domain.Table, res *Result) error {

	strat, err := d.registry.Build(cfg.Name, cfg.Params)
	if err != nil {
		return err
	}

	signals, err := strat.Signals(table)
	if err != nil {
		return err
	}

	closes, ok := table.Column("Close")
	if !ok {
		return fmt.Errorf("table for %s has no Close column", symbol)
	}

	equity, positions, numTrades := sim.Simulate(closes, signals, capital)
	trades := sim.ExtractTrades(closes, positions, equity, table.Dates)
	metrics := sim.ComputeMetrics(equity, numTrades)

	if _, err := d.results.Store(symbol, strat.Name(), strat.Params(), exitRule,
		metrics, equity, positions, table.Dates, trades); err != nil {
		return err
	}

	rows, err := d.results.Query(store.Filter{
		Symbol: symbol, Strategy: strat.Name(), Params: strat.Params(), ExitRule: exitRule,
	})
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		res.Rows = append(res.Rows, rows[0])
	}
	return nil
}
