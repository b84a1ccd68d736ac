// Package scanner filters stored backtest results against minimum quality
// thresholds, surfacing the parameter sets worth a closer look.
package scanner

import (
	"sort"

	"quantlab/internal/store"
)

// Criteria are the minimum thresholds a stored result must meet. Zero values
// disable the corresponding check.
type Criteria struct {
	MinTrades  int
	MinWinRate float64
	MinSharpe  float64
}

// Scan queries the result store with the given filter and keeps only the
// rows meeting the criteria, sorted by Sharpe ratio descending.
func Scan(results store.ResultStore, f store.Filter, c Criteria) ([]store.Row, error) {
	rows, err := results.Query(f)
	if err != nil {
		return nil, err
	}

	kept := make([]store.Row, 0, len(rows))
	for _, r := range rows {
		if r.Metrics.NumTrades < c.MinTrades {
			continue
		}
		if r.Metrics.WinRate < c.MinWinRate {
			continue
		}
		if r.Metrics.SharpeRatio < c.MinSharpe {
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Metrics.SharpeRatio > kept[j].Metrics.SharpeRatio
	})
	return kept, nil
}
