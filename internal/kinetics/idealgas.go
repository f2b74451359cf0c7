package kinetics

import (
	"fmt"
	"math"
)

// Provider is the contract between the reactor and a kinetics model. Rates
// and properties refer to the state set by the last successful SetState.
type Provider interface {
	Species() []string
	SpeciesIndex(name string) (int, error)
	MolarMasses() []float64
	SetState(temperature, density float64, y []float64) error
	NetProductionRates(dst []float64)
	IntEnergyMass() float64
	EnthalpyMass() float64
	GasConstant() float64
	TemperatureFromEnergy(u float64, y []float64) (float64, error)
}

// compositionTol is the allowed deviation of the mass fraction sum from one.
const compositionTol = 1e-6

// IdealGas evaluates an ideal-gas mixture with mass-action kinetics. It keeps
// scratch buffers and is not safe for concurrent use.
type IdealGas struct {
	mech *Mechanism
	mw   []float64
	inv  []float64 // 1/W

	temperature float64
	density     float64
	y           []float64
	conc        []float64
	h           []float64 // h/RT per species at temperature
	rates       []float64
	fresh       bool
}

var _ Provider = (*IdealGas)(nil)

func newIdealGas(m *Mechanism) *IdealGas {
	k := len(m.Species)
	g := &IdealGas{
		mech:  m,
		mw:    make([]float64, k),
		inv:   make([]float64, k),
		y:     make([]float64, k),
		conc:  make([]float64, k),
		h:     make([]float64, k),
		rates: make([]float64, k),
	}
	for i, s := range m.Species {
		g.mw[i] = s.MolarMass
		g.inv[i] = 1 / s.MolarMass
	}
	return g
}

func (g *IdealGas) Mechanism() *Mechanism { return g.mech }
func (g *IdealGas) Name() string          { return g.mech.Name }
func (g *IdealGas) Species() []string     { return g.mech.SpeciesNames() }

func (g *IdealGas) SpeciesIndex(name string) (int, error) {
	return g.mech.Index(name)
}

func (g *IdealGas) MolarMasses() []float64 {
	out := make([]float64, len(g.mw))
	copy(out, g.mw)
	return out
}

// CheckMassFractions reports ErrInvalidComposition for negative entries or a
// sum away from one.
func (g *IdealGas) CheckMassFractions(y []float64) error {
	if len(y) != len(g.mw) {
		return fmt.Errorf("%w: %d fractions for %d species", ErrInvalidComposition, len(y), len(g.mw))
	}
	sum := 0.0
	for i, v := range y {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s fraction %g", ErrInvalidComposition, g.mech.Species[i].Name, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > compositionTol {
		return fmt.Errorf("%w: fractions sum to %.9g", ErrInvalidComposition, sum)
	}
	return nil
}

func (g *IdealGas) SetState(temperature, density float64, y []float64) error {
	if !(temperature > 0) || !(density > 0) || math.IsInf(temperature, 0) || math.IsInf(density, 0) {
		return fmt.Errorf("%w: T=%g rho=%g", ErrInvalidThermoState, temperature, density)
	}
	if err := g.CheckMassFractions(y); err != nil {
		return err
	}
	g.temperature = temperature
	g.density = density
	copy(g.y, y)
	for i := range g.y {
		g.conc[i] = density * g.y[i] * g.inv[i]
		g.h[i] = g.mech.Species[i].Thermo.HRT(temperature)
	}
	g.fresh = false
	return nil
}

func (g *IdealGas) Temperature() float64 { return g.temperature }
func (g *IdealGas) Density() float64     { return g.density }

// MeanMolarMass in kg/mol.
func (g *IdealGas) MeanMolarMass() float64 {
	return meanMolarMass(g.y, g.inv)
}

func meanMolarMass(y, inv []float64) float64 {
	s := 0.0
	for i, v := range y {
		s += v * inv[i]
	}
	return 1 / s
}

// GasConstant is the specific gas constant of the mixture, J/(kg K).
func (g *IdealGas) GasConstant() float64 {
	return GasConstant / g.MeanMolarMass()
}

func (g *IdealGas) Pressure() float64 {
	return g.density * g.GasConstant() * g.temperature
}

func (g *IdealGas) EnthalpyMass() float64 {
	rt := GasConstant * g.temperature
	s := 0.0
	for i, v := range g.y {
		s += v * g.h[i] * g.inv[i]
	}
	return s * rt
}

func (g *IdealGas) IntEnergyMass() float64 {
	return g.EnthalpyMass() - g.GasConstant()*g.temperature
}

func (g *IdealGas) CpMass() float64 {
	return g.cpMass(g.temperature, g.y)
}

func (g *IdealGas) CvMass() float64 {
	return g.CpMass() - g.GasConstant()
}

func (g *IdealGas) cpMass(t float64, y []float64) float64 {
	s := 0.0
	for i, v := range y {
		s += v * g.mech.Species[i].Thermo.CpR(t) * g.inv[i]
	}
	return s * GasConstant
}

func (g *IdealGas) intEnergy(t float64, y []float64) (u, cv float64) {
	var h, cp, minv float64
	for i, v := range y {
		th := &g.mech.Species[i].Thermo
		w := v * g.inv[i]
		h += w * th.HRT(t)
		cp += w * th.CpR(t)
		minv += w
	}
	u = GasConstant * t * (h - minv)
	cv = GasConstant * (cp - minv)
	return u, cv
}

// TemperatureFromEnergy inverts u(T) for the given mass fractions by Newton
// iteration safeguarded with bisection on [MinTemperature, MaxTemperature].
func (g *IdealGas) TemperatureFromEnergy(u float64, y []float64) (float64, error) {
	if err := g.CheckMassFractions(y); err != nil {
		return 0, err
	}
	if math.IsNaN(u) || math.IsInf(u, 0) {
		return 0, fmt.Errorf("%w: u=%g", ErrEnergyOutOfRange, u)
	}

	lo, hi := MinTemperature, MaxTemperature
	uLo, _ := g.intEnergy(lo, y)
	uHi, _ := g.intEnergy(hi, y)
	if u < uLo || u > uHi {
		return 0, fmt.Errorf("%w: u=%.6g J/kg outside [%.6g, %.6g]", ErrEnergyOutOfRange, u, uLo, uHi)
	}

	t := g.temperature
	if !(t > lo && t < hi) {
		t = 0.5 * (lo + hi)
	}
	for iter := 0; iter < 100; iter++ {
		f, cv := g.intEnergy(t, y)
		f -= u
		if f > 0 {
			hi = t
		} else {
			lo = t
		}
		next := t - f/cv
		if !(next > lo && next < hi) {
			next = 0.5 * (lo + hi)
		}
		if math.Abs(next-t) <= 1e-12*t {
			return next, nil
		}
		t = next
	}
	return 0, fmt.Errorf("%w: no convergence for u=%.6g J/kg", ErrEnergyOutOfRange, u)
}

// NetProductionRates writes the molar production rate of each species, mol/(m3 s).
func (g *IdealGas) NetProductionRates(dst []float64) {
	if !g.fresh {
		g.updateRates()
	}
	copy(dst, g.rates)
}

func (g *IdealGas) updateRates() {
	for i := range g.rates {
		g.rates[i] = 0
	}
	t := g.temperature
	logT := math.Log(t)
	rt := GasConstant * t

	for ri := range g.mech.Reactions {
		r := &g.mech.Reactions[ri]
		k := r.A * math.Exp(r.B*logT-r.Ea/rt)
		q := k
		for _, tm := range r.reactants {
			c := math.Max(g.conc[tm.species], 0)
			q *= powNu(c, tm.nu)
		}
		if r.ThirdBody {
			m := 0.0
			for i, eff := range r.efficiencies {
				m += eff * math.Max(g.conc[i], 0)
			}
			q *= m
		}
		for _, tm := range r.reactants {
			g.rates[tm.species] -= tm.nu * q
		}
		for _, tm := range r.products {
			g.rates[tm.species] += tm.nu * q
		}
	}
	g.fresh = true
}

func powNu(c, nu float64) float64 {
	switch nu {
	case 1:
		return c
	case 2:
		return c * c
	case 3:
		return c * c * c
	}
	return math.Pow(c, nu)
}
