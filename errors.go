package anneal

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by all construction-time validation failures:
// bad schedule parameters, negative iteration budgets, missing capabilities.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrAlreadyRun is returned when Run is invoked on an annealer that has
// already been consumed by a previous run.
var ErrAlreadyRun = errors.New("annealer already consumed by a run")

// NonFiniteEnergyError reports an energy evaluation that produced NaN or an
// infinity. Iteration is the loop index that produced the value, or -1 when
// the initial state's energy was already non-finite at construction.
type NonFiniteEnergyError struct {
	Iteration int
	Value     float64
}

func (e *NonFiniteEnergyError) Error() string {
	if e.Iteration < 0 {
		return fmt.Sprintf("non-finite energy %v for initial state", e.Value)
	}
	return fmt.Sprintf("non-finite energy %v at iteration %d", e.Value, e.Iteration)
}
