package reactor

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/integrators"
	"github.com/san-kum/reactorsim/internal/volume"
)

// Integrator advances a State with an adaptive stiff scheme.
type Integrator struct {
	state   *State
	sys     *odeSystem
	scheme  dynamo.Scheme
	opts    integrators.Options
	stepper *integrators.Adaptive
	limits  Limits
	logger  *slog.Logger
	obs     []dynamo.StepObserver

	t     float64
	steps int
	y     []float64
}

type Option func(*Integrator)

func WithLogger(l *slog.Logger) Option {
	return func(i *Integrator) { i.logger = l }
}

func WithLimits(l Limits) Option {
	return func(i *Integrator) { i.limits = l.withDefaults() }
}

func WithScheme(s dynamo.Scheme) Option {
	return func(i *Integrator) { i.scheme = s }
}

// WithOptions sets the step controller. A single AbsTol entry is taken as
// relative to the magnitude of each component and expanded per component.
func WithOptions(o integrators.Options) Option {
	return func(i *Integrator) { i.opts = o }
}

func WithStepObserver(o dynamo.StepObserver) Option {
	return func(i *Integrator) { i.obs = append(i.obs, o) }
}

func NewIntegrator(state *State, wall volume.Wall, opts ...Option) (*Integrator, error) {
	if wall.Driver == nil {
		wall = volume.Wall{Area: 1, Driver: volume.Fixed{Volume: state.Volume()}}
	}
	if !(wall.Area > 0) {
		return nil, fmt.Errorf("%w: wall area %g", volume.ErrInvalidGeometry, wall.Area)
	}

	i := &Integrator{
		state:  state,
		sys:    newODESystem(state, wall),
		opts:   integrators.DefaultOptions(),
		limits: DefaultLimits(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		y:      make([]float64, len(state.species)),
	}
	for _, o := range opts {
		o(i)
	}
	if i.scheme == nil {
		i.scheme = integrators.NewRosenbrock()
	}
	if err := i.opts.Validate(); err != nil {
		return nil, err
	}
	i.opts.AbsTol = i.absTol(i.opts.AbsTol)

	i.stepper = integrators.NewAdaptive(i.scheme, i.opts)
	i.stepper.SetObserver(i)
	return i, nil
}

// absTol scales a single relative entry by the typical magnitude of each
// component. A full per-component slice is used as given.
func (i *Integrator) absTol(given []float64) []float64 {
	n := i.sys.Dim()
	if len(given) == n {
		return given
	}
	out := make([]float64, n)
	typ := i.sys.Typical()
	out[0] = given[0] * typ[0]
	out[1] = given[0] * typ[1]
	for k := 2; k < n; k++ {
		out[k] = given[0] * i.state.mass
	}
	return out
}

func (i *Integrator) OnAccept(t, h float64) {
	for _, o := range i.obs {
		o.OnAccept(t, h)
	}
}

func (i *Integrator) OnReject(t, h float64, reason error) {
	i.logger.Debug("step rejected", "t", t, "h", h, "reason", reason)
	for _, o := range i.obs {
		o.OnReject(t, h, reason)
	}
}

func (i *Integrator) Time() float64         { return i.t }
func (i *Integrator) Steps() int            { return i.steps }
func (i *Integrator) State() *State         { return i.state }
func (i *Integrator) Stats() dynamo.Stats   { return i.stepper.Stats() }
func (i *Integrator) Scheme() dynamo.Scheme { return i.scheme }
func (i *Integrator) Snapshot() Snapshot    { return i.state.Snapshot(i.t) }

// Step takes exactly one accepted step towards horizon and returns the
// reached time, which never exceeds horizon. On error the state is unchanged.
func (i *Integrator) Step(horizon float64) (float64, error) {
	if !(horizon > i.t) {
		return i.t, fmt.Errorf("%w: t=%g horizon=%g", dynamo.ErrInvalidHorizon, i.t, horizon)
	}

	tNew, x, err := i.stepper.Step(i.sys, i.t, i.state.x, horizon)
	if err != nil {
		return i.t, i.fail(err)
	}

	temp, p, mass, err := i.state.resolve(x, i.y)
	if err != nil {
		return i.t, i.fail(fmt.Errorf("%w: accepted state: %w", ErrNonPhysicalState, err))
	}
	if err := i.checkLimits(temp, p); err != nil {
		return i.t, i.fail(err)
	}

	i.state.commit(x, i.y, temp, p, mass)
	i.t = tNew
	i.steps++
	return i.t, nil
}

// AdvanceTo steps until t is reached exactly.
func (i *Integrator) AdvanceTo(t float64) error {
	for i.t < t {
		if _, err := i.Step(t); err != nil {
			return err
		}
	}
	return nil
}

func (i *Integrator) checkLimits(temp, p float64) error {
	switch {
	case math.IsNaN(temp) || !(temp > 0) || temp > i.limits.MaxTemperature:
		return fmt.Errorf("%w: temperature %.6g K outside (0, %.6g]", ErrNonPhysicalState, temp, i.limits.MaxTemperature)
	case math.IsNaN(p) || !(p > 0) || p > i.limits.MaxPressure:
		return fmt.Errorf("%w: pressure %.6g Pa outside (0, %.6g]", ErrNonPhysicalState, p, i.limits.MaxPressure)
	}
	return nil
}

func (i *Integrator) fail(err error) error {
	return &dynamo.SimulationError{
		Step:    i.steps,
		Time:    i.t,
		State:   i.state.Vector(),
		Wrapped: err,
	}
}
