package kinetics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Composition maps species names to relative amounts. Amounts need not be
// normalized.
type Composition map[string]float64

// ParseComposition reads "CH4:1, O2:2, N2:7.52".
func ParseComposition(s string) (Composition, error) {
	c := Composition{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, ok := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: malformed entry %q", ErrInvalidComposition, part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidComposition, part, err)
		}
		c[name] += v
	}
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: empty composition", ErrInvalidComposition)
	}
	return c, nil
}

func (c Composition) names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c Composition) String() string {
	names := c.names()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + ":" + strconv.FormatFloat(c[n], 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}

// UnmarshalYAML accepts either a mapping or the string form.
func (c *Composition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseComposition(node.Value)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	var m map[string]float64
	if err := node.Decode(&m); err != nil {
		return err
	}
	*c = m
	return nil
}

func (c Composition) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// Fractions projects a composition onto the mechanism species and normalizes it.
func (m *Mechanism) Fractions(c Composition) ([]float64, error) {
	out := make([]float64, len(m.Species))
	sum := 0.0
	// sorted so the normalization is bit-for-bit reproducible
	for _, name := range c.names() {
		v := c[name]
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s amount %g", ErrInvalidComposition, name, v)
		}
		i, err := m.Index(name)
		if err != nil {
			return nil, err
		}
		out[i] += v
		sum += v
	}
	if !(sum > 0) {
		return nil, fmt.Errorf("%w: amounts sum to zero", ErrInvalidComposition)
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

func (m *Mechanism) MassFromMole(x []float64) []float64 {
	y := make([]float64, len(x))
	sum := 0.0
	for i, v := range x {
		y[i] = v * m.Species[i].MolarMass
		sum += y[i]
	}
	for i := range y {
		y[i] /= sum
	}
	return y
}

func (m *Mechanism) MoleFromMass(y []float64) []float64 {
	x := make([]float64, len(y))
	sum := 0.0
	for i, v := range y {
		x[i] = v / m.Species[i].MolarMass
		sum += x[i]
	}
	for i := range x {
		x[i] /= sum
	}
	return x
}

// oxygenDemand is the elemental oxygen needed for complete oxidation of one
// mole of species i, less the oxygen it carries.
func (m *Mechanism) oxygenDemand(i int) float64 {
	el := m.Species[i].Elements
	return 2*el["C"] + 0.5*el["H"] - el["O"]
}

// MixtureForEquivalenceRatio returns the mole fractions of a fuel/oxidizer
// blend at equivalence ratio phi, from an elemental oxygen balance.
func (m *Mechanism) MixtureForEquivalenceRatio(phi float64, fuel, oxidizer Composition) ([]float64, error) {
	if !(phi >= 0) || math.IsInf(phi, 0) {
		return nil, fmt.Errorf("%w: equivalence ratio %g", ErrInvalidComposition, phi)
	}
	xf, err := m.Fractions(fuel)
	if err != nil {
		return nil, fmt.Errorf("fuel: %w", err)
	}
	xo, err := m.Fractions(oxidizer)
	if err != nil {
		return nil, fmt.Errorf("oxidizer: %w", err)
	}

	needed, available := 0.0, 0.0
	for i := range m.Species {
		needed += xf[i] * m.oxygenDemand(i)
		available -= xo[i] * m.oxygenDemand(i)
	}
	if !(needed > 0) {
		return nil, fmt.Errorf("%w: fuel has no oxygen demand", ErrInvalidComposition)
	}
	if !(available > 0) {
		return nil, fmt.Errorf("%w: oxidizer carries no free oxygen", ErrInvalidComposition)
	}

	ratio := phi * available / needed
	x := make([]float64, len(m.Species))
	for i := range x {
		x[i] = (ratio*xf[i] + xo[i]) / (ratio + 1)
	}
	return x, nil
}
