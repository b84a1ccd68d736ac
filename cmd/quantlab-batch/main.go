// Batch runner: backtest a set of symbols across a strategy parameter grid
// and store the results, or run a saved group set.
//
// Usage:
//
//	go run cmd/quantlab-batch/main.go -symbols AAPL,MSFT -strategy ma_crossover
//	go run cmd/quantlab-batch/main.go -group-set tech-giants
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"quantlab/internal/batch"
	"quantlab/internal/config"
	"quantlab/internal/domain"
	"quantlab/internal/indicator"
	"quantlab/internal/store"
	"quantlab/internal/strategy"
	"quantlab/internal/strategy/builtins"
	"quantlab/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to backtest")
	strategyFlag := flag.String("strategy", "ma_crossover", "strategy name")
	exitRulesFlag := flag.String("exit-rules", "default", "comma-separated exit rules")
	groupSetFlag := flag.String("group-set", "", "run a saved group set instead of flags")
	saveAsFlag := flag.String("save-as", "", "save the resolved inputs as a group set under this name")
	flag.Parse()

	cfgPath := "config/quantlab.yaml"
	if p := os.Getenv("QUANTLAB_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		cfg = config.Default()
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	results, err := store.OpenResults(cfg.Storage.SQLitePath, cfg.Storage.DataDir, logger)
	if err != nil {
		log.Fatalf("failed to open result store: %v", err)
	}
	defer results.Close()

	bars := store.NewParquetStore(cfg.Storage.DataDir)
	provider := indicator.NewProvider(bars, cfg.Backtest.SMAPeriods, cfg.Backtest.RSIPeriods)

	registry := strategy.NewRegistry()
	builtins.Register(registry)

	job := batch.Job{InitialCapital: cfg.Backtest.InitialCapital}
	if *groupSetFlag != "" {
		gs, err := results.LoadGroupSet(*groupSetFlag)
		if err != nil {
			log.Fatalf("failed to load group set: %v", err)
		}
		if gs == nil {
			log.Fatalf("unknown group set: %s", *groupSetFlag)
		}
		job.Symbols = gs.Symbols
		job.ExitRules = gs.ExitRules
		for i, name := range gs.Strategies {
			var params map[string]float64
			if i < len(gs.ParamsList) {
				params = gs.ParamsList[i]
			}
			job.Configs = append(job.Configs, strategy.Config{Name: name, Params: params})
		}
	} else {
		if *symbolsFlag == "" {
			log.Fatal("either -symbols or -group-set is required")
		}
		job.Symbols = strings.Split(*symbolsFlag, ",")
		job.ExitRules = strings.Split(*exitRulesFlag, ",")
		job.Configs = []strategy.Config{{Name: *strategyFlag}}
	}

	if *saveAsFlag != "" {
		gs := jobToGroupSet(*saveAsFlag, job)
		if err := results.SaveGroupSet(gs); err != nil {
			log.Fatalf("failed to save group set: %v", err)
		}
		logger.Info("saved group set", "name", *saveAsFlag)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	driver := batch.NewDriver(provider, registry, results, logger)
	res, err := driver.Run(ctx, job, func(current, total int, msg string) {
		fmt.Printf("[%d/%d] %s\n", current, total, msg)
	})
	if err != nil {
		log.Fatalf("batch run aborted: %v", err)
	}

	logger.Info("batch complete",
		"total", res.TotalJobs,
		"completed", res.Completed,
		"errors", len(res.Errors),
		"success_rate", res.SuccessRate())
	for _, e := range res.Errors {
		logger.Warn("unit failed", "unit", e.Error())
	}
}

func jobToGroupSet(name string, job batch.Job) domain.GroupSet {
	gs := domain.GroupSet{Name: name, Symbols: job.Symbols, ExitRules: job.ExitRules}
	for _, c := range job.Configs {
		gs.Strategies = append(gs.Strategies, c.Name)
		gs.ParamsList = append(gs.ParamsList, c.Params)
	}
	return gs
}
