package anneal

import (
	"fmt"
	"math"
)

// Schedule maps an iteration index to a non-negative temperature.
//
// Schedules are stateless pure functions of the index: the same k always
// yields the same temperature, which preserves reproducibility and allows
// out-of-order queries for diagnostics.
type Schedule interface {
	Temperature(k int) float64
}

// ScheduleFunc adapts a plain function to the Schedule interface.
type ScheduleFunc func(k int) float64

func (f ScheduleFunc) Temperature(k int) float64 { return f(k) }

// GeometricSchedule cools by a constant factor per iteration:
//
//	T(k) = T0 * alpha^k
//
// Strictly decreasing and asymptotically zero; past enough iterations the
// temperature falls below machine precision and the search degenerates to
// greedy descent.
type GeometricSchedule struct {
	t0    float64
	alpha float64
}

// NewGeometric validates T0 > 0 and alpha in (0,1).
func NewGeometric(t0, alpha float64) (GeometricSchedule, error) {
	if !(t0 > 0) {
		return GeometricSchedule{}, fmt.Errorf("%w: initial temperature must be positive, got %v", ErrInvalidConfig, t0)
	}
	if !(alpha > 0 && alpha < 1) {
		return GeometricSchedule{}, fmt.Errorf("%w: alpha must be in (0,1), got %v", ErrInvalidConfig, alpha)
	}
	return GeometricSchedule{t0: t0, alpha: alpha}, nil
}

func (s GeometricSchedule) Temperature(k int) float64 {
	return s.t0 * math.Pow(s.alpha, float64(k))
}

// LinearSchedule cools by a constant decrement per iteration:
//
//	T(k) = max(T0 - beta*k, 0)
//
// Reaches exactly zero at k = T0/beta and stays there.
type LinearSchedule struct {
	t0   float64
	beta float64
}

// NewLinear validates T0 > 0 and beta > 0.
func NewLinear(t0, beta float64) (LinearSchedule, error) {
	if !(t0 > 0) {
		return LinearSchedule{}, fmt.Errorf("%w: initial temperature must be positive, got %v", ErrInvalidConfig, t0)
	}
	if !(beta > 0) {
		return LinearSchedule{}, fmt.Errorf("%w: beta must be positive, got %v", ErrInvalidConfig, beta)
	}
	return LinearSchedule{t0: t0, beta: beta}, nil
}

func (s LinearSchedule) Temperature(k int) float64 {
	return math.Max(s.t0-s.beta*float64(k), 0)
}

// LogarithmicSchedule cools slowly for convergence-sensitive workloads:
//
//	T(k) = T0 / ln(k + 2)
type LogarithmicSchedule struct {
	t0 float64
}

// NewLogarithmic validates T0 > 0.
func NewLogarithmic(t0 float64) (LogarithmicSchedule, error) {
	if !(t0 > 0) {
		return LogarithmicSchedule{}, fmt.Errorf("%w: initial temperature must be positive, got %v", ErrInvalidConfig, t0)
	}
	return LogarithmicSchedule{t0: t0}, nil
}

func (s LogarithmicSchedule) Temperature(k int) float64 {
	return s.t0 / math.Log(float64(k)+2)
}
