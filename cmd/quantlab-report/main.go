// Report tool: print the result store summary, list group sets, and scan
// stored backtests against quality thresholds.
//
// Usage:
//
//	go run cmd/quantlab-report/main.go
//	go run cmd/quantlab-report/main.go -symbol AAPL -min-sharpe 1.0
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"quantlab/internal/config"
	"quantlab/internal/scanner"
	"quantlab/internal/store"
	"quantlab/internal/util"
)

func main() {
	symbolFlag := flag.String("symbol", "", "filter by symbol")
	strategyFlag := flag.String("strategy", "", "filter by strategy")
	minTradesFlag := flag.Int("min-trades", 0, "minimum trade count")
	minWinRateFlag := flag.Float64("min-win-rate", 0, "minimum bar-level win rate")
	minSharpeFlag := flag.Float64("min-sharpe", 0, "minimum Sharpe ratio")
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

	sum, err := results.Summary()
	if err != nil {
		log.Fatalf("failed to read summary: %v", err)
	}
	fmt.Printf("backtests: %d  symbols: %d  strategies: %d  size: %.1f MB\n\n",
		sum.Total, sum.UniqueSymbols, sum.UniqueStrategies, float64(sum.SizeBytes)/(1<<20))

	if names, err := results.ListGroupSets(); err == nil && len(names) > 0 {
		fmt.Printf("group sets: %s\n\n", strings.Join(names, ", "))
	}

	rows, err := scanner.Scan(results,
		store.Filter{Symbol: *symbolFlag, Strategy: *strategyFlag},
		scanner.Criteria{
			MinTrades:  *minTradesFlag,
			MinWinRate: *minWinRateFlag,
			MinSharpe:  *minSharpeFlag,
		})
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tSTRATEGY\tPARAMS\tSHARPE\tRETURN\tMAXDD\tWINRATE\tTRADES")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f%%\t%.2f%%\t%.1f%%\t%d\n",
			r.Symbol, r.Strategy, formatParams(r.Params),
			r.Metrics.SharpeRatio,
			r.Metrics.TotalReturn*100,
			r.Metrics.MaxDrawdown*100,
			r.Metrics.WinRate*100,
			r.Metrics.NumTrades)
	}
	w.Flush()
}

func formatParams(params map[string]float64) string {
	if len(params) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", k, params[k]))
	}
	return strings.Join(parts, " ")
}
