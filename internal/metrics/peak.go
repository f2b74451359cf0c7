package metrics

import (
	"math"

	"github.com/san-kum/reactorsim/internal/reactor"
)

type PeakPressure struct {
	name string
	max  float64
}

func NewPeakPressure() *PeakPressure {
	return &PeakPressure{name: "peak_pressure"}
}

func (p *PeakPressure) Name() string { return p.name }

func (p *PeakPressure) Observe(s reactor.Snapshot) {
	p.max = math.Max(p.max, s.Pressure)
}

func (p *PeakPressure) Value() float64 { return p.max }
func (p *PeakPressure) Reset()         { p.max = 0 }

type PeakTemperature struct {
	name string
	max  float64
}

func NewPeakTemperature() *PeakTemperature {
	return &PeakTemperature{name: "peak_temperature"}
}

func (p *PeakTemperature) Name() string { return p.name }

func (p *PeakTemperature) Observe(s reactor.Snapshot) {
	p.max = math.Max(p.max, s.Temperature)
}

func (p *PeakTemperature) Value() float64 { return p.max }
func (p *PeakTemperature) Reset()         { p.max = 0 }

// MassDrift is the largest relative deviation of the reactor mass from its
// first observed value.
type MassDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(s reactor.Snapshot) {
	if m.samples == 0 {
		m.initial = s.Mass
	}
	m.samples++
	if m.initial != 0 {
		m.maxDrift = math.Max(m.maxDrift, math.Abs(s.Mass-m.initial)/m.initial)
	}
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}
