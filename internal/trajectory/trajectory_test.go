package trajectory

import (
	"errors"
	"testing"
)

func TestRecorder_EveryStep(t *testing.T) {
	r, err := NewRecorder(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Initial(Sample{Time: 0}); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 5; i++ {
		kept, err := r.Accept(Sample{Time: float64(i)})
		if err != nil || !kept {
			t.Fatalf("step %d: kept=%v err=%v", i, kept, err)
		}
	}
	if r.Len() != 6 {
		t.Errorf("Len = %d, want 6", r.Len())
	}
}

func TestRecorder_Stride(t *testing.T) {
	r, _ := NewRecorder(10)
	_ = r.Initial(Sample{Time: 0})
	for i := 1; i <= 35; i++ {
		if _, err := r.Accept(Sample{Time: float64(i)}); err != nil {
			t.Fatal(err)
		}
	}

	var times []float64
	for s := range r.All() {
		times = append(times, s.Time)
	}
	want := []float64{0, 10, 20, 30}
	if len(times) != len(want) {
		t.Fatalf("times = %v, want %v", times, want)
	}
	for i := range want {
		if times[i] != want[i] {
			t.Errorf("times[%d] = %v, want %v", i, times[i], want[i])
		}
	}
	if r.Accepted() != 35 {
		t.Errorf("Accepted = %d, want 35", r.Accepted())
	}
	if last, _ := r.Last(); last.Time != 30 {
		t.Errorf("Last = %v", last)
	}
}

func TestRecorder_RejectsNonIncreasingTime(t *testing.T) {
	r, _ := NewRecorder(1)
	_ = r.Initial(Sample{Time: 0})
	if _, err := r.Accept(Sample{Time: 0}); !errors.Is(err, ErrTimeOrder) {
		t.Errorf("err = %v, want ErrTimeOrder", err)
	}
	if r.Accepted() != 0 {
		t.Error("rejected sample was counted")
	}
}

func TestRecorder_SamplesIsCopy(t *testing.T) {
	r, _ := NewRecorder(1)
	_ = r.Initial(Sample{Time: 0, Tracked: 1})
	s := r.Samples()
	s[0].Tracked = 99
	if first, _ := r.Last(); first.Tracked != 1 {
		t.Error("Samples exposed internal storage")
	}
}

func TestNewRecorder_InvalidStride(t *testing.T) {
	if _, err := NewRecorder(0); err == nil {
		t.Error("stride 0 accepted")
	}
}

func TestRecorder_InitialTwice(t *testing.T) {
	r, _ := NewRecorder(1)
	_ = r.Initial(Sample{})
	if err := r.Initial(Sample{}); err == nil {
		t.Error("second initial sample accepted")
	}
}
