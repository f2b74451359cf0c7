package metrics

import (
	"math"

	"github.com/san-kum/reactorsim/internal/reactor"
)

// IndicatedWork is the work done by the gas on the piston, integrated with
// the trapezoid rule over the observed samples. Positive means expansion
// work exceeded compression work.
type IndicatedWork struct {
	name    string
	work    float64
	lastP   float64
	lastV   float64
	samples int
}

func NewIndicatedWork() *IndicatedWork {
	return &IndicatedWork{name: "indicated_work"}
}

func (w *IndicatedWork) Name() string { return w.name }

func (w *IndicatedWork) Observe(s reactor.Snapshot) {
	if w.samples > 0 {
		w.work += 0.5 * (s.Pressure + w.lastP) * (s.Volume - w.lastV)
	}
	w.lastP, w.lastV = s.Pressure, s.Volume
	w.samples++
}

func (w *IndicatedWork) Value() float64 { return w.work }

func (w *IndicatedWork) Reset() {
	w.work = 0
	w.lastP, w.lastV = 0, 0
	w.samples = 0
}

// EnergyResidual checks the first law for the closed adiabatic vessel:
// U - U0 + W must stay zero, reported relative to |U0|. The work is the
// trapezoid estimate over the observed samples, so sparse sampling of a
// moving piston shows up in the residual.
type EnergyResidual struct {
	name     string
	u0       float64
	work     IndicatedWork
	residual float64
	samples  int
}

func NewEnergyResidual() *EnergyResidual {
	return &EnergyResidual{name: "energy_residual"}
}

func (e *EnergyResidual) Name() string { return e.name }

func (e *EnergyResidual) Observe(s reactor.Snapshot) {
	if e.samples == 0 {
		e.u0 = s.InternalEnergy
	}
	e.samples++
	e.work.Observe(s)
	if e.u0 != 0 {
		e.residual = math.Abs(s.InternalEnergy-e.u0+e.work.Value()) / math.Abs(e.u0)
	}
}

func (e *EnergyResidual) Value() float64 { return e.residual }

func (e *EnergyResidual) Reset() {
	e.u0 = 0
	e.work.Reset()
	e.residual = 0
	e.samples = 0
}
