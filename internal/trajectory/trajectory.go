// Package trajectory records the sampled states of one run.
package trajectory

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

var ErrTimeOrder = errors.New("trajectory: sample times must strictly increase")

type Sample struct {
	Time        float64 `json:"time"`
	Temperature float64 `json:"temperature"`
	Pressure    float64 `json:"pressure"`
	Volume      float64 `json:"volume"`
	Tracked     float64 `json:"tracked"`
}

// Recorder is an append-only log of samples. With stride N it keeps the
// initial state and every Nth accepted step, counting steps from one.
type Recorder struct {
	stride   int
	accepted int
	samples  []Sample
}

func NewRecorder(stride int) (*Recorder, error) {
	if stride < 1 {
		return nil, fmt.Errorf("trajectory: stride must be >= 1, got %d", stride)
	}
	return &Recorder{stride: stride}, nil
}

func (r *Recorder) Stride() int { return r.stride }

// Initial records the state before the first step.
func (r *Recorder) Initial(s Sample) error {
	if len(r.samples) > 0 || r.accepted > 0 {
		return fmt.Errorf("trajectory: initial sample after recording started")
	}
	r.samples = append(r.samples, s)
	return nil
}

// Accept counts one accepted step and records it if the stride selects it.
func (r *Recorder) Accept(s Sample) (bool, error) {
	if last, ok := r.Last(); ok && !(s.Time > last.Time) {
		return false, fmt.Errorf("%w: %g after %g", ErrTimeOrder, s.Time, last.Time)
	}
	r.accepted++
	if r.accepted%r.stride != 0 {
		return false, nil
	}
	r.samples = append(r.samples, s)
	return true, nil
}

// Accepted is the number of steps seen, recorded or not.
func (r *Recorder) Accepted() int { return r.accepted }
func (r *Recorder) Len() int      { return len(r.samples) }

func (r *Recorder) Last() (Sample, bool) {
	if len(r.samples) == 0 {
		return Sample{}, false
	}
	return r.samples[len(r.samples)-1], true
}

// All yields the samples recorded so far, in time order.
func (r *Recorder) All() iter.Seq[Sample] {
	return slices.Values(r.samples[:len(r.samples):len(r.samples)])
}

func (r *Recorder) Samples() []Sample {
	return slices.Clone(r.samples)
}
