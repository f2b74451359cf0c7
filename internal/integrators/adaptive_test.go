package integrators

import (
	"errors"
	"fmt"
	"testing"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// scriptedScheme returns a fixed outcome for every attempt.
type scriptedScheme struct {
	err      error
	errScale float64
	attempts int
	steps    []float64
}

func (s *scriptedScheme) Name() string    { return "scripted" }
func (s *scriptedScheme) ErrorOrder() int { return 1 }

func (s *scriptedScheme) Attempt(sys dynamo.System, t float64, x dynamo.State, h float64) (dynamo.Trial, error) {
	s.attempts++
	s.steps = append(s.steps, h)
	if s.err != nil {
		return dynamo.Trial{Evaluations: 1}, s.err
	}
	xNew := x.Clone()
	errEst := make(dynamo.State, len(x))
	for i := range x {
		xNew[i] += h
		errEst[i] = s.errScale * h
	}
	return dynamo.Trial{X: xNew, Err: errEst, Evaluations: 1}, nil
}

type countingObserver struct {
	accepted int
	rejected int
	reasons  []error
}

func (c *countingObserver) OnAccept(t, h float64) { c.accepted++ }
func (c *countingObserver) OnReject(t, h float64, reason error) {
	c.rejected++
	c.reasons = append(c.reasons, reason)
}

type constantSystem struct{}

func (constantSystem) Dim() int { return 1 }
func (constantSystem) Derive(t float64, x, dx dynamo.State) error {
	dx[0] = 1
	return nil
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.InitialStep = 0.1
	opts.MinStep = 0
	return opts
}

func TestAdaptive_RetryBudgetExhausted(t *testing.T) {
	scheme := &scriptedScheme{err: fmt.Errorf("%w: energy out of range", dynamo.ErrRejectTrial)}
	obs := &countingObserver{}
	stepper := NewAdaptive(scheme, testOptions())
	stepper.SetObserver(obs)

	x := dynamo.State{1}
	tm, out, err := stepper.Step(constantSystem{}, 0, x, 10)

	if !errors.Is(err, dynamo.ErrIntegrationDivergence) {
		t.Fatalf("err = %v, want ErrIntegrationDivergence", err)
	}
	if scheme.attempts != testOptions().MaxRetries+1 {
		t.Errorf("attempts = %d, want %d", scheme.attempts, testOptions().MaxRetries+1)
	}
	if tm != 0 || out != nil {
		t.Errorf("failed step advanced: t=%v x=%v", tm, out)
	}
	if x[0] != 1 {
		t.Error("caller state was modified")
	}
	if obs.rejected != scheme.attempts || obs.accepted != 0 {
		t.Errorf("observer = %+v", obs)
	}
	for i := 1; i < len(scheme.steps); i++ {
		if scheme.steps[i] >= scheme.steps[i-1] {
			t.Fatalf("step did not shrink on retry %d: %v", i, scheme.steps)
		}
	}
}

func TestAdaptive_HardErrorPropagates(t *testing.T) {
	hard := errors.New("unknown species")
	scheme := &scriptedScheme{err: hard}
	stepper := NewAdaptive(scheme, testOptions())

	_, _, err := stepper.Step(constantSystem{}, 0, dynamo.State{1}, 10)
	if !errors.Is(err, hard) {
		t.Fatalf("err = %v, want %v", err, hard)
	}
	if scheme.attempts != 1 {
		t.Errorf("attempts = %d, want 1", scheme.attempts)
	}
}

func TestAdaptive_ClipsToHorizon(t *testing.T) {
	scheme := &scriptedScheme{errScale: 0}
	stepper := NewAdaptive(scheme, testOptions())

	tm, x, err := stepper.Step(constantSystem{}, 0, dynamo.State{0}, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if tm != 0.05 {
		t.Errorf("t = %v, want horizon 0.05", tm)
	}
	if x[0] != 0.05 {
		t.Errorf("x = %v", x)
	}
	if stepper.NextStep() < 0.1 {
		t.Errorf("clipped step shrank the proposal: %v", stepper.NextStep())
	}
}

func TestAdaptive_GrowsOnSmallError(t *testing.T) {
	scheme := &scriptedScheme{errScale: 0}
	stepper := NewAdaptive(scheme, testOptions())

	tm := 0.0
	x := dynamo.State{0}
	var err error
	for i := 0; i < 3; i++ {
		tm, x, err = stepper.Step(constantSystem{}, tm, x, 1000)
		if err != nil {
			t.Fatal(err)
		}
	}
	want := []float64{0.1, 0.5, 2.5}
	for i, h := range want {
		if diff := scheme.steps[i] - h; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("step %d = %v, want %v", i, scheme.steps[i], h)
		}
	}
	if stepper.Stats().Accepted != 3 {
		t.Errorf("accepted = %d", stepper.Stats().Accepted)
	}
}

func TestAdaptive_StepTooSmall(t *testing.T) {
	scheme := &scriptedScheme{err: dynamo.ErrRejectTrial}
	opts := testOptions()
	opts.MinStep = 0.05
	stepper := NewAdaptive(scheme, opts)

	_, _, err := stepper.Step(constantSystem{}, 0, dynamo.State{1}, 10)
	if !errors.Is(err, dynamo.ErrStepTooSmall) || !errors.Is(err, dynamo.ErrIntegrationDivergence) {
		t.Fatalf("err = %v, want ErrStepTooSmall within ErrIntegrationDivergence", err)
	}
	if scheme.attempts != 1 {
		t.Errorf("attempts = %d, want 1", scheme.attempts)
	}
}

func TestAdaptive_StepBelowTimeResolution(t *testing.T) {
	scheme := &scriptedScheme{}
	stepper := NewAdaptive(scheme, testOptions())

	// 0.1 is below the spacing of float64 values near 1e17
	t0 := 1e17
	tm, out, err := stepper.Step(constantSystem{}, t0, dynamo.State{1}, t0+1e4)
	if !errors.Is(err, dynamo.ErrStepTooSmall) || !errors.Is(err, dynamo.ErrIntegrationDivergence) {
		t.Fatalf("err = %v, want ErrStepTooSmall within ErrIntegrationDivergence", err)
	}
	if tm != t0 || out != nil {
		t.Errorf("failed step advanced: t=%v x=%v", tm, out)
	}
	if scheme.attempts != 0 {
		t.Errorf("attempts = %d, want 0", scheme.attempts)
	}
}

func TestAdaptive_InvalidHorizon(t *testing.T) {
	stepper := NewAdaptive(&scriptedScheme{}, testOptions())
	_, _, err := stepper.Step(constantSystem{}, 1, dynamo.State{1}, 1)
	if !errors.Is(err, dynamo.ErrInvalidHorizon) {
		t.Errorf("err = %v, want ErrInvalidHorizon", err)
	}
}

func TestOptions_Validate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("default options invalid: %v", err)
	}

	bad := DefaultOptions()
	bad.RelTol = 0
	if bad.Validate() == nil {
		t.Error("zero relative tolerance accepted")
	}

	bad = DefaultOptions()
	bad.MaxRetries = 0
	if bad.Validate() == nil {
		t.Error("zero retries accepted")
	}
}
