package strategy

import "fmt"

// ComputationError reports that a strategy could not compute signals, most
// commonly because a required indicator column is missing from the input
// table. It is fatal for the affected batch unit and is never retried.
type ComputationError struct {
	Strategy string
	Reason   string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("strategy %s: %s", e.Strategy, e.Reason)
}
