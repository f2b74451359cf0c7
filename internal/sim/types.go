package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/ignition"
	"github.com/san-kum/reactorsim/internal/reactor"
	"github.com/san-kum/reactorsim/internal/trajectory"
)

type Phase int

const (
	Initialized Phase = iota
	Integrating
	Completed
	Diverged
	NonPhysical
	Failed
)

var phaseNames = [...]string{"initialized", "integrating", "completed", "diverged", "non_physical", "failed"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Terminal reports whether a run in this phase has stopped.
func (p Phase) Terminal() bool { return p >= Completed }

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	for i, n := range phaseNames {
		if n == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("sim: unknown phase %q", b)
}

// Metric is fed every recorded sample of a run.
type Metric interface {
	Name() string
	Observe(s reactor.Snapshot)
	Value() float64
	Reset()
}

// Observer sees every accepted step, recorded or not.
type Observer interface {
	OnStep(s reactor.Snapshot, recorded bool)
}

// Failure is the terminal error of a run that did not complete. Last is the
// state before the failed step.
type Failure struct {
	Phase Phase
	Time  float64
	Last  reactor.Snapshot
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("run %s at t=%.6g: %v", f.Phase, f.Time, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Outcome is what a run leaves behind, including the trajectory recorded up
// to a failure.
type Outcome struct {
	Mode      string
	Phase     Phase
	Samples   []trajectory.Sample
	Final     reactor.Snapshot
	Ignition  *ignition.Result
	Metrics   map[string]float64
	Stats     dynamo.Stats
	Steps     int
	WallClock time.Duration
	Failure   *Failure
}
