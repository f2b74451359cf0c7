package reactor

import (
	"fmt"
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/kinetics"
)

// negativeMassTol is how far below zero, relative to the total mass, a
// species mass may fall before the state is rejected. Smaller excursions
// are clipped when forming mass fractions.
const negativeMassTol = 1e-6

// State is the thermochemical condition of the reactor contents.
type State struct {
	gas       kinetics.Provider
	mechanism string
	species   []string
	mw        []float64

	x dynamo.State // [V, U, m_1..m_K]

	mass        float64
	temperature float64
	pressure    float64
	y           []float64
}

// NewState builds a reactor at the given temperature, pressure, mass fractions
// and volume.
func NewState(gas kinetics.Provider, temperature, pressure float64, y []float64, volume float64) (*State, error) {
	if !(volume > 0) || math.IsInf(volume, 0) {
		return nil, fmt.Errorf("%w: volume %g", ErrNonPhysicalState, volume)
	}
	if !(pressure > 0) || math.IsInf(pressure, 0) {
		return nil, fmt.Errorf("%w: pressure %g", ErrNonPhysicalState, pressure)
	}

	// density is unknown until the mixture gas constant is
	if err := gas.SetState(temperature, 1, y); err != nil {
		return nil, err
	}
	rho := pressure / (gas.GasConstant() * temperature)
	if err := gas.SetState(temperature, rho, y); err != nil {
		return nil, err
	}

	k := len(y)
	s := &State{
		gas:     gas,
		species: gas.Species(),
		mw:      gas.MolarMasses(),
		x:       make(dynamo.State, 2+k),
		y:       make([]float64, k),
	}
	if n, ok := gas.(interface{ Name() string }); ok {
		s.mechanism = n.Name()
	}

	mass := rho * volume
	s.x[0] = volume
	s.x[1] = gas.IntEnergyMass() * mass
	for i, v := range y {
		s.x[2+i] = v * mass
	}

	t, p, m, err := s.resolve(s.x, s.y)
	if err != nil {
		return nil, err
	}
	s.temperature, s.pressure, s.mass = t, p, m
	return s, nil
}

func (s *State) Volume() float64         { return s.x[0] }
func (s *State) InternalEnergy() float64 { return s.x[1] }
func (s *State) Mass() float64           { return s.mass }
func (s *State) Temperature() float64    { return s.temperature }
func (s *State) Pressure() float64       { return s.pressure }
func (s *State) Density() float64        { return s.mass / s.x[0] }
func (s *State) Species() []string       { return s.species }
func (s *State) Mechanism() string       { return s.mechanism }
func (s *State) Provider() kinetics.Provider {
	return s.gas
}

func (s *State) MassFractions() []float64 {
	out := make([]float64, len(s.y))
	copy(out, s.y)
	return out
}

// Vector returns a copy of the integrated variables.
func (s *State) Vector() dynamo.State { return s.x.Clone() }

// Fraction returns the mass or mole fraction of species index k.
func (s *State) Fraction(k int, mole bool) float64 {
	if !mole {
		return s.y[k]
	}
	return moleFraction(s.y, s.mw, k)
}

func moleFraction(y, mw []float64, k int) float64 {
	return y[k] / mw[k] * meanMolarMass(y, mw)
}

func meanMolarMass(y, mw []float64) float64 {
	sum := 0.0
	for i, v := range y {
		sum += v / mw[i]
	}
	return 1 / sum
}

// resolve derives temperature, pressure and total mass from x, writes the
// mass fractions into y and leaves the provider at that state.
func (s *State) resolve(x dynamo.State, y []float64) (temperature, pressure, mass float64, err error) {
	if !x.IsValid() {
		return 0, 0, 0, fmt.Errorf("%w: %w", ErrNonPhysicalState, dynamo.ErrInvalidState)
	}
	v, u := x[0], x[1]
	if !(v > 0) {
		return 0, 0, 0, fmt.Errorf("%w: volume %g", ErrNonPhysicalState, v)
	}

	masses := x[2:]
	for _, m := range masses {
		mass += m
	}
	if !(mass > 0) {
		return 0, 0, 0, fmt.Errorf("%w: total mass %g", ErrNonPhysicalState, mass)
	}

	clipped := 0.0
	for i, m := range masses {
		if m < 0 {
			if m < -negativeMassTol*mass {
				return 0, 0, 0, fmt.Errorf("%w: %s mass %g", ErrNonPhysicalState, s.species[i], m)
			}
			m = 0
		}
		y[i] = m
		clipped += m
	}
	for i := range y {
		y[i] /= clipped
	}

	temperature, err = s.gas.TemperatureFromEnergy(u/mass, y)
	if err != nil {
		return 0, 0, 0, err
	}
	if err := s.gas.SetState(temperature, mass/v, y); err != nil {
		return 0, 0, 0, err
	}
	pressure = mass * s.gas.GasConstant() * temperature / v
	return temperature, pressure, mass, nil
}

// commit replaces the integrated vector once it has been resolved and checked.
func (s *State) commit(x dynamo.State, y []float64, temperature, pressure, mass float64) {
	copy(s.x, x)
	copy(s.y, y)
	s.temperature = temperature
	s.pressure = pressure
	s.mass = mass
}

// Snapshot returns a read-only copy at time t.
func (s *State) Snapshot(t float64) Snapshot {
	return Snapshot{
		Time:           t,
		Mechanism:      s.mechanism,
		Temperature:    s.temperature,
		Pressure:       s.pressure,
		Volume:         s.x[0],
		Mass:           s.mass,
		InternalEnergy: s.x[1],
		Species:        s.species,
		MolarMasses:    s.mw,
		MassFractions:  s.MassFractions(),
	}
}
