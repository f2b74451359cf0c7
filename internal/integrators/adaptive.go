package integrators

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

type Options struct {
	RelTol float64
	// AbsTol is per component. A single entry applies to every component.
	AbsTol      []float64
	InitialStep float64
	MinStep     float64
	// MaxStep of zero leaves the step size unbounded.
	MaxStep float64
	// MaxRetries bounds the rejected attempts inside one Step call.
	MaxRetries int
	Safety     float64
	MinScale   float64
	MaxScale   float64
}

func DefaultOptions() Options {
	return Options{
		RelTol:     1e-6,
		AbsTol:     []float64{1e-12},
		MinStep:    1e-15,
		MaxRetries: 20,
		Safety:     0.9,
		MinScale:   0.2,
		MaxScale:   5.0,
	}
}

func (o Options) Validate() error {
	if !(o.RelTol > 0) {
		return fmt.Errorf("relative tolerance must be positive, got %g", o.RelTol)
	}
	if len(o.AbsTol) == 0 {
		return fmt.Errorf("absolute tolerance must be set")
	}
	for _, a := range o.AbsTol {
		if !(a > 0) {
			return fmt.Errorf("absolute tolerance must be positive, got %g", a)
		}
	}
	if o.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1, got %d", o.MaxRetries)
	}
	if o.MinStep < 0 || o.MaxStep < 0 || o.InitialStep < 0 {
		return fmt.Errorf("step bounds must not be negative")
	}
	if o.MaxStep > 0 && o.MinStep > o.MaxStep {
		return fmt.Errorf("min step %g exceeds max step %g", o.MinStep, o.MaxStep)
	}
	if !(o.Safety > 0 && o.Safety <= 1) || !(o.MinScale > 0 && o.MinScale < 1) || !(o.MaxScale > 1) {
		return fmt.Errorf("invalid step controller factors (safety=%g min=%g max=%g)", o.Safety, o.MinScale, o.MaxScale)
	}
	return nil
}

// Adaptive wraps a Scheme with local error control. Each Step call returns
// exactly one accepted step or an error; the caller's state is never touched.
type Adaptive struct {
	scheme   dynamo.Scheme
	opts     Options
	h        float64
	stats    dynamo.Stats
	observer dynamo.StepObserver
	ratio    []float64
}

func NewAdaptive(scheme dynamo.Scheme, opts Options) *Adaptive {
	return &Adaptive{scheme: scheme, opts: opts}
}

func (a *Adaptive) SetObserver(o dynamo.StepObserver) { a.observer = o }
func (a *Adaptive) Stats() dynamo.Stats               { return a.stats }
func (a *Adaptive) Scheme() dynamo.Scheme             { return a.scheme }

// NextStep is the step size the controller will try next; zero before the first step.
func (a *Adaptive) NextStep() float64 { return a.h }

// Step advances from (t, x) by one accepted step that does not pass horizon.
// It returns the reached time and the new state.
func (a *Adaptive) Step(sys dynamo.System, t float64, x dynamo.State, horizon float64) (float64, dynamo.State, error) {
	if !(horizon > t) {
		return t, nil, fmt.Errorf("%w: t=%g horizon=%g", dynamo.ErrInvalidHorizon, t, horizon)
	}
	if len(x) != sys.Dim() {
		return t, nil, fmt.Errorf("%w: state %d, system %d", dynamo.ErrDimensionMismatch, len(x), sys.Dim())
	}

	span := horizon - t
	h := a.h
	if h <= 0 {
		var err error
		h, err = a.initialStep(sys, t, x, span)
		if err != nil {
			return t, nil, err
		}
	}
	if a.opts.MaxStep > 0 && h > a.opts.MaxStep {
		h = a.opts.MaxStep
	}

	proposal := h
	order := float64(a.scheme.ErrorOrder() + 1)
	var lastErr error

	for attempt := 0; attempt <= a.opts.MaxRetries; attempt++ {
		clipped := false
		if h >= span {
			h = span
			clipped = true
		} else if h < a.opts.MinStep || t+h == t {
			return t, nil, fmt.Errorf("%w: %w (h=%g at t=%g)", dynamo.ErrIntegrationDivergence, dynamo.ErrStepTooSmall, h, t)
		}

		trial, err := a.scheme.Attempt(sys, t, x, h)
		a.stats.Evaluations += trial.Evaluations
		a.stats.Jacobians += trial.Jacobians
		if err != nil {
			if !errors.Is(err, dynamo.ErrRejectTrial) {
				return t, nil, err
			}
			lastErr = err
			a.reject(t, h, err)
			h *= a.opts.MinScale
			continue
		}

		norm := a.errorNorm(x, trial.X, trial.Err)
		if math.IsNaN(norm) || math.IsInf(norm, 0) || !trial.X.IsValid() {
			lastErr = fmt.Errorf("%w: non-finite trial", dynamo.ErrRejectTrial)
			a.reject(t, h, lastErr)
			h *= a.opts.MinScale
			continue
		}

		if norm <= 1 {
			factor := a.opts.MaxScale
			if norm > 0 {
				factor = math.Min(a.opts.MaxScale, a.opts.Safety*math.Pow(norm, -1/order))
			}
			next := h * factor
			if clipped && attempt == 0 {
				next = math.Max(next, proposal)
			}
			if a.opts.MaxStep > 0 && next > a.opts.MaxStep {
				next = a.opts.MaxStep
			}
			a.h = next

			tNew := t + h
			if clipped {
				tNew = horizon
			}
			a.stats.Accepted++
			a.stats.LastStep = h
			if a.observer != nil {
				a.observer.OnAccept(tNew, h)
			}
			return tNew, trial.X, nil
		}

		lastErr = fmt.Errorf("local error %.3g exceeds tolerance", norm)
		a.reject(t, h, lastErr)
		h *= math.Max(a.opts.MinScale, a.opts.Safety*math.Pow(norm, -1/order))
	}

	a.h = h
	return t, nil, fmt.Errorf("%w after %d retries at t=%g: %w", dynamo.ErrIntegrationDivergence, a.opts.MaxRetries, t, lastErr)
}

func (a *Adaptive) reject(t, h float64, reason error) {
	a.stats.Rejected++
	if a.observer != nil {
		a.observer.OnReject(t, h, reason)
	}
}

func (a *Adaptive) absTol(i int) float64 {
	if len(a.opts.AbsTol) == 1 {
		return a.opts.AbsTol[0]
	}
	return a.opts.AbsTol[i]
}

// errorNorm is the weighted RMS of the error estimate; <= 1 means accept.
func (a *Adaptive) errorNorm(x, xNew, est dynamo.State) float64 {
	n := len(x)
	if len(a.ratio) != n {
		a.ratio = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		sc := a.absTol(i) + a.opts.RelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		a.ratio[i] = est[i] / sc
	}
	return floats.Norm(a.ratio, 2) / math.Sqrt(float64(n))
}

func (a *Adaptive) initialStep(sys dynamo.System, t float64, x dynamo.State, span float64) (float64, error) {
	if a.opts.InitialStep > 0 {
		return math.Min(a.opts.InitialStep, span), nil
	}

	n := len(x)
	f0 := make(dynamo.State, n)
	if err := sys.Derive(t, x, f0); err != nil {
		return 0, err
	}
	a.stats.Evaluations++

	xs := make([]float64, n)
	fs := make([]float64, n)
	for i := 0; i < n; i++ {
		sc := a.absTol(i) + a.opts.RelTol*math.Abs(x[i])
		xs[i] = x[i] / sc
		fs[i] = f0[i] / sc
	}
	d0 := floats.Norm(xs, 2) / math.Sqrt(float64(n))
	d1 := floats.Norm(fs, 2) / math.Sqrt(float64(n))

	h := 1e-6 * span
	if d0 > 1e-5 && d1 > 1e-5 {
		h = 0.01 * d0 / d1
	}
	if a.opts.MinStep > 0 && h < a.opts.MinStep {
		h = a.opts.MinStep
	}
	return math.Min(h, span), nil
}
