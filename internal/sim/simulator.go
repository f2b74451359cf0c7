package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/ignition"
	"github.com/san-kum/reactorsim/internal/integrators"
	"github.com/san-kum/reactorsim/internal/kinetics"
	"github.com/san-kum/reactorsim/internal/reactor"
	"github.com/san-kum/reactorsim/internal/trajectory"
	"github.com/san-kum/reactorsim/internal/volume"
)

// Simulator runs one configured case at a time. It is not safe for
// concurrent use; build one per goroutine.
type Simulator struct {
	cfg       *config.Config
	mech      *kinetics.Mechanism
	logger    *slog.Logger
	metrics   []Metric
	observers []Observer
	stepObs   []dynamo.StepObserver
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithMechanism bypasses resolving cfg.Mechanism.
func WithMechanism(m *kinetics.Mechanism) Option {
	return func(s *Simulator) { s.mech = m }
}

// WithStepObserver forwards every accepted and rejected attempt.
func WithStepObserver(o dynamo.StepObserver) Option {
	return func(s *Simulator) { s.stepObs = append(s.stepObs, o) }
}

func New(cfg *config.Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Simulator{
		cfg:    cfg.Clone(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	if s.mech == nil {
		m, err := kinetics.Resolve(cfg.Mechanism)
		if err != nil {
			return nil, err
		}
		s.mech = m
	}
	return s, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) Config() *config.Config { return s.cfg }

// Run integrates the configured case to its end. A non-nil Outcome is
// returned whenever integration started, even on failure.
func (s *Simulator) Run(ctx context.Context) (*Outcome, error) {
	sess, err := s.Start()
	if err != nil {
		return nil, err
	}
	for !sess.Done() {
		select {
		case <-ctx.Done():
			sess.abort(ctx.Err())
			return sess.Finish()
		default:
		}
		if err := sess.Advance(); err != nil {
			break
		}
	}
	return sess.Finish()
}

// RunEngineCycle runs the configured case in engine mode.
func (s *Simulator) RunEngineCycle(ctx context.Context) (*Outcome, error) {
	s.cfg.Mode = config.ModeEngine
	return s.Run(ctx)
}

// RunIgnition runs the configured case in autoignition mode.
func (s *Simulator) RunIgnition(ctx context.Context) (*Outcome, error) {
	s.cfg.Mode = config.ModeIgnition
	return s.Run(ctx)
}

// Session is a run in progress, advanced one accepted step at a time.
type Session struct {
	sim     *Simulator
	integ   *reactor.Integrator
	rec     *trajectory.Recorder
	watcher *ignition.PeakWatcher
	tracked int
	mole    bool

	end      float64
	interval float64
	next     int

	phase   Phase
	failure *Failure
	start   time.Time
	stopped bool
}

// Start builds the initial state and records it.
func (s *Simulator) Start() (*Session, error) {
	cfg := s.cfg
	y, err := cfg.MassFractions(s.mech)
	if err != nil {
		return nil, err
	}
	gas := s.mech.NewIdealGas()
	tracked, err := gas.SpeciesIndex(cfg.TrackedSpecies)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		sim:     s,
		tracked: tracked,
		mole:    cfg.TrackedBasis == "mole",
		start:   time.Now(),
	}

	var wall volume.Wall
	v0 := cfg.Volume
	stride := cfg.SamplingStride
	switch cfg.Mode {
	case config.ModeEngine:
		geom := cfg.EngineGeometry()
		if err := geom.Validate(); err != nil {
			return nil, err
		}
		wall = geom.Wall()
		v0 = geom.VMax()
		// engine trajectories keep every accepted step
		stride = 1
		sess.end = float64(cfg.Engine.Cycles) * geom.CycleDuration()
		sess.interval = geom.CycleDuration() / float64(cfg.Engine.SamplesPerCycle)
	default:
		sess.end = cfg.MaxSearchHorizon
		if cfg.PeakDrop > 0 {
			if sess.watcher, err = ignition.NewPeakWatcher(cfg.PeakDrop, cfg.PeakConfirm); err != nil {
				return nil, err
			}
		}
	}

	state, err := reactor.NewState(gas, cfg.Temperature, cfg.Pressure, y, v0)
	if err != nil {
		return nil, err
	}
	scheme, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	opts := []reactor.Option{
		reactor.WithLogger(s.logger),
		reactor.WithScheme(scheme),
		reactor.WithOptions(cfg.SolverOptions()),
		reactor.WithLimits(reactor.Limits{
			MaxTemperature: cfg.Limits.MaxTemperature,
			MaxPressure:    cfg.Limits.MaxPressure,
		}),
	}
	for _, o := range s.stepObs {
		opts = append(opts, reactor.WithStepObserver(o))
	}
	if sess.integ, err = reactor.NewIntegrator(state, wall, opts...); err != nil {
		return nil, err
	}
	if sess.rec, err = trajectory.NewRecorder(stride); err != nil {
		return nil, err
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	snap := sess.integ.Snapshot()
	if err := sess.rec.Initial(sess.sample(snap)); err != nil {
		return nil, err
	}
	sess.observe(snap, true)

	sess.transition(Integrating)
	s.logger.Info("run started",
		"mode", cfg.Mode, "mechanism", s.mech.Name, "integrator", scheme.Name(),
		"temperature", cfg.Temperature, "pressure", cfg.Pressure, "end", sess.end)
	return sess, nil
}

func (ss *Session) Phase() Phase                   { return ss.phase }
func (ss *Session) Done() bool                     { return ss.phase.Terminal() || ss.stopped }
func (ss *Session) Time() float64                  { return ss.integ.Time() }
func (ss *Session) End() float64                   { return ss.end }
func (ss *Session) Snapshot() reactor.Snapshot     { return ss.integ.Snapshot() }
func (ss *Session) Recorder() *trajectory.Recorder { return ss.rec }
func (ss *Session) Stats() dynamo.Stats            { return ss.integ.Stats() }

// Progress is the fraction of the run's time span covered so far.
func (ss *Session) Progress() float64 {
	return math.Min(1, ss.integ.Time()/ss.end)
}

// horizon is the next engine sampling point, or the search horizon.
func (ss *Session) horizon() float64 {
	if ss.interval <= 0 {
		return ss.end
	}
	h := float64(ss.next+1) * ss.interval
	if h >= ss.end || ss.end-h < 1e-9*ss.interval {
		return ss.end
	}
	return h
}

// Advance takes one accepted step. On failure the session turns terminal
// and the returned error is a *Failure.
func (ss *Session) Advance() error {
	if ss.Done() {
		return nil
	}
	h := ss.horizon()
	t, err := ss.integ.Step(h)
	if err != nil {
		return ss.fail(err)
	}
	if t >= h && ss.interval > 0 {
		ss.next++
	}

	snap := ss.integ.Snapshot()
	sample := ss.sample(snap)
	recorded, err := ss.rec.Accept(sample)
	if err != nil {
		return ss.fail(err)
	}
	ss.observe(snap, recorded)

	if recorded && ss.watcher != nil && ss.watcher.Observe(sample.Tracked) {
		ss.sim.logger.Info("peak passed", "t", t, "max", ss.watcher.Max())
		ss.stopped = true
	}
	if t >= ss.end {
		ss.stopped = true
	}
	return nil
}

func (ss *Session) sample(snap reactor.Snapshot) trajectory.Sample {
	return trajectory.Sample{
		Time:        snap.Time,
		Temperature: snap.Temperature,
		Pressure:    snap.Pressure,
		Volume:      snap.Volume,
		Tracked:     ss.integ.State().Fraction(ss.tracked, ss.mole),
	}
}

func (ss *Session) observe(snap reactor.Snapshot, recorded bool) {
	if recorded {
		for _, m := range ss.sim.metrics {
			m.Observe(snap)
		}
	}
	for _, o := range ss.sim.observers {
		o.OnStep(snap, recorded)
	}
}

func (ss *Session) transition(p Phase) {
	ss.sim.logger.Info("phase", "from", ss.phase, "to", p, "t", ss.integ.Time())
	ss.phase = p
}

func (ss *Session) fail(err error) error {
	phase := Failed
	switch {
	case errors.Is(err, reactor.ErrNonPhysicalState):
		phase = NonPhysical
	case errors.Is(err, dynamo.ErrIntegrationDivergence):
		phase = Diverged
	}
	ss.failure = &Failure{
		Phase: phase,
		Time:  ss.integ.Time(),
		Last:  ss.integ.Snapshot(),
		Err:   err,
	}
	ss.sim.logger.Error("run failed", "phase", phase, "t", ss.failure.Time, "err", err)
	ss.transition(phase)
	return ss.failure
}

func (ss *Session) abort(err error) {
	if !ss.phase.Terminal() {
		ss.fail(err)
	}
}

// Finish closes the session and assembles the outcome. It may be called on
// a session that has not reached its end, which then counts as completed.
func (ss *Session) Finish() (*Outcome, error) {
	if !ss.phase.Terminal() {
		ss.transition(Completed)
	}
	cfg := ss.sim.cfg
	out := &Outcome{
		Mode:      cfg.Mode,
		Phase:     ss.phase,
		Samples:   ss.rec.Samples(),
		Final:     ss.integ.Snapshot(),
		Metrics:   make(map[string]float64, len(ss.sim.metrics)),
		Stats:     ss.integ.Stats(),
		Steps:     ss.integ.Steps(),
		WallClock: time.Since(ss.start),
		Failure:   ss.failure,
	}
	for _, m := range ss.sim.metrics {
		out.Metrics[m.Name()] = m.Value()
	}
	if ss.failure != nil {
		return out, ss.failure
	}

	if cfg.Mode == config.ModeIgnition {
		res, err := ignition.Extract(ss.rec.All())
		if err != nil && !errors.Is(err, ignition.ErrNoPeakDetected) {
			return out, err
		}
		res.WallClock = out.WallClock
		out.Ignition = &res
		if err != nil {
			ss.sim.logger.Warn("no ignition peak", "species", cfg.TrackedSpecies, "horizon", ss.end)
			return out, err
		}
		ss.sim.logger.Info("ignition", "delay", res.Delay, "wall_clock", res.WallClock)
	}
	return out, nil
}
