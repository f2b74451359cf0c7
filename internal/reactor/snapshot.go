package reactor

import (
	"fmt"
	"strings"

	"github.com/san-kum/reactorsim/internal/kinetics"
)

// Snapshot is an immutable view of the reactor at one time. Species and
// MolarMasses are shared with the state and must not be modified.
type Snapshot struct {
	Time           float64
	Mechanism      string
	Temperature    float64
	Pressure       float64
	Volume         float64
	Mass           float64
	InternalEnergy float64
	Species        []string
	MolarMasses    []float64
	MassFractions  []float64
}

func (s Snapshot) index(name string) (int, error) {
	for i, n := range s.Species {
		if strings.EqualFold(n, name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", kinetics.ErrUnknownSpecies, name)
}

func (s Snapshot) MassFraction(name string) (float64, error) {
	i, err := s.index(name)
	if err != nil {
		return 0, err
	}
	return s.MassFractions[i], nil
}

func (s Snapshot) MoleFraction(name string) (float64, error) {
	i, err := s.index(name)
	if err != nil {
		return 0, err
	}
	return moleFraction(s.MassFractions, s.MolarMasses, i), nil
}

func (s Snapshot) Density() float64 { return s.Mass / s.Volume }

func (s Snapshot) String() string {
	return fmt.Sprintf("Mechanism: %s, Temperature: %.6g K, Pressure: %.6g Pa", s.Mechanism, s.Temperature, s.Pressure)
}
