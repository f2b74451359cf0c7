package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is the right-hand side of an ODE. Derive writes f(t, x) into dx.
// Errors wrapping ErrRejectTrial ask the stepper to retry with a smaller
// step; any other error aborts the step.
type System interface {
	Dim() int
	Derive(t float64, x State, dx State) error
}

// Scaled is implemented by systems that know the magnitude of each
// component. Schemes use it to size finite-difference perturbations.
type Scaled interface {
	Typical() State
}

// Scheme attempts one step of size h from (t, x).
type Scheme interface {
	Name() string
	// ErrorOrder is the order q of the embedded error estimate; the step
	// controller scales by err^(-1/(q+1)).
	ErrorOrder() int
	Attempt(sys System, t float64, x State, h float64) (Trial, error)
}

// Trial is a candidate step. X is only committed once the stepper accepts it.
type Trial struct {
	X           State
	Err         State
	Evaluations int
	Jacobians   int
}

type Stats struct {
	Accepted    int
	Rejected    int
	Evaluations int
	Jacobians   int
	LastStep    float64
}

type StepObserver interface {
	OnAccept(t, h float64)
	OnReject(t, h float64, reason error)
}
