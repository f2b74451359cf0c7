// Package ignition extracts the ignition delay from a recorded trajectory.
package ignition

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/san-kum/reactorsim/internal/trajectory"
)

var (
	ErrEmptyTrajectory = errors.New("ignition: empty trajectory")

	// ErrNoPeakDetected means the tracked fraction was still at its maximum on
	// the last sample, so the run ended before the peak.
	ErrNoPeakDetected = errors.New("ignition: no peak detected before end of run")
)

type Result struct {
	Delay     float64       `json:"delay"`
	WallClock time.Duration `json:"wall_clock"`
	PeakIndex int           `json:"peak_index"`
	PeakValue float64       `json:"peak_value"`
}

func (r Result) WallClockSeconds() float64 { return r.WallClock.Seconds() }

func (r Result) String() string {
	return fmt.Sprintf("ignition delay %.6e s (peak %.4g at sample %d), computed in %.2fs",
		r.Delay, r.PeakValue, r.PeakIndex, r.WallClockSeconds())
}

// Extract returns the time of the first sample holding the maximum tracked
// fraction. A trace that ends at its maximum, or never moves from its first
// value, has no peak. WallClock is left for the caller to fill in.
func Extract(samples iter.Seq[trajectory.Sample]) (Result, error) {
	res := Result{PeakIndex: -1}
	n := 0
	var last float64
	for s := range samples {
		if n == 0 || s.Tracked > res.PeakValue {
			res.PeakIndex = n
			res.PeakValue = s.Tracked
			res.Delay = s.Time
		}
		last = s.Tracked
		n++
	}
	if n == 0 {
		return Result{}, ErrEmptyTrajectory
	}
	if res.PeakIndex == n-1 {
		return res, fmt.Errorf("%w: maximum %.4g at the last sample (t=%g)", ErrNoPeakDetected, res.PeakValue, res.Delay)
	}
	if res.PeakIndex == 0 && last == res.PeakValue {
		return res, fmt.Errorf("%w: tracked fraction flat at %.4g", ErrNoPeakDetected, res.PeakValue)
	}
	return res, nil
}

// PeakWatcher decides during integration that the tracked fraction has
// passed its peak: Confirm consecutive samples below (1-Drop) of the
// running maximum.
type PeakWatcher struct {
	Drop    float64
	Confirm int

	max   float64
	below int
	seen  bool
}

func NewPeakWatcher(drop float64, confirm int) (*PeakWatcher, error) {
	if !(drop > 0 && drop < 1) {
		return nil, fmt.Errorf("ignition: peak drop must be in (0, 1), got %g", drop)
	}
	if confirm < 1 {
		return nil, fmt.Errorf("ignition: peak confirmation must be >= 1, got %d", confirm)
	}
	return &PeakWatcher{Drop: drop, Confirm: confirm}, nil
}

// Observe feeds one sample and reports whether the peak is confirmed.
func (w *PeakWatcher) Observe(v float64) bool {
	if !w.seen || v > w.max {
		w.max = v
		w.seen = true
		w.below = 0
		return false
	}
	if w.max > 0 && v < (1-w.Drop)*w.max {
		w.below++
	} else {
		w.below = 0
	}
	return w.below >= w.Confirm
}

func (w *PeakWatcher) Max() float64 { return w.max }
