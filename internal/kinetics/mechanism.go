package kinetics

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Species struct {
	Name      string
	Elements  map[string]float64
	MolarMass float64 // kg/mol
	Thermo    NASA7
}

type term struct {
	species int
	nu      float64
}

// Reaction is an irreversible elementary step with SI rate parameters.
type Reaction struct {
	Equation  string
	A         float64 // m, mol, s
	B         float64
	Ea        float64 // J/mol
	ThirdBody bool

	reactants    []term
	products     []term
	efficiencies []float64
}

// Mechanism is a compiled, immutable reaction mechanism. It is safe to share
// between goroutines; every run builds its own IdealGas from it.
type Mechanism struct {
	Name        string
	Description string
	Species     []Species
	Reactions   []Reaction

	index map[string]int
}

func (m *Mechanism) SpeciesNames() []string {
	names := make([]string, len(m.Species))
	for i, s := range m.Species {
		names[i] = s.Name
	}
	return names
}

// Index looks a species up by name, ignoring case.
func (m *Mechanism) Index(name string) (int, error) {
	i, ok := m.index[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return -1, fmt.Errorf("%w: %q in mechanism %s", ErrUnknownSpecies, name, m.Name)
	}
	return i, nil
}

// LoadMechanism reads and compiles a mechanism file.
func LoadMechanism(path string) (*Mechanism, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMechanism(data)
}

func ParseMechanism(data []byte) (*Mechanism, error) {
	var spec MechanismSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMechanism, err)
	}
	return Compile(spec)
}

// Compile validates a spec and converts its rate parameters to SI.
func Compile(spec MechanismSpec) (*Mechanism, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMechanism, err)
	}

	m := &Mechanism{
		Name:        spec.Name,
		Description: spec.Description,
		index:       make(map[string]int, len(spec.Species)),
	}

	for _, ss := range spec.Species {
		key := strings.ToUpper(ss.Name)
		if _, dup := m.index[key]; dup {
			return nil, fmt.Errorf("%w: duplicate species %s", ErrInvalidMechanism, ss.Name)
		}
		sp := Species{Name: ss.Name, Elements: make(map[string]float64, len(ss.Composition))}
		elements := make([]string, 0, len(ss.Composition))
		for el := range ss.Composition {
			elements = append(elements, el)
		}
		sort.Strings(elements)
		for _, el := range elements {
			n := ss.Composition[el]
			el = strings.ToUpper(el)
			sp.Elements[el] += n
			sp.MolarMass += n * atomicWeights[el]
		}
		sp.Thermo.TMid = ss.Thermo.TMid
		copy(sp.Thermo.Low[:], ss.Thermo.Low)
		copy(sp.Thermo.High[:], ss.Thermo.High)
		if err := sp.Thermo.validate(ss.Name); err != nil {
			return nil, err
		}
		m.index[key] = len(m.Species)
		m.Species = append(m.Species, sp)
	}

	for _, rs := range spec.Reactions {
		r, err := m.compileReaction(rs, spec.Units)
		if err != nil {
			return nil, err
		}
		m.Reactions = append(m.Reactions, r)
	}
	return m, nil
}

func (m *Mechanism) compileReaction(rs ReactionSpec, units Units) (Reaction, error) {
	r := Reaction{Equation: rs.Equation, B: rs.B}

	lhs, rhs, ok := strings.Cut(rs.Equation, "=>")
	if !ok || strings.HasSuffix(strings.TrimSpace(lhs), "<") || strings.Contains(rhs, "=") {
		return r, fmt.Errorf("%w: %q: only irreversible reactions (=>) are supported", ErrInvalidMechanism, rs.Equation)
	}

	var thirdL, thirdR bool
	var err error
	if r.reactants, thirdL, err = m.parseSide(lhs); err != nil {
		return r, fmt.Errorf("%w: %q: %v", ErrInvalidMechanism, rs.Equation, err)
	}
	if r.products, thirdR, err = m.parseSide(rhs); err != nil {
		return r, fmt.Errorf("%w: %q: %v", ErrInvalidMechanism, rs.Equation, err)
	}
	if thirdL != thirdR {
		return r, fmt.Errorf("%w: %q: third body must appear on both sides", ErrInvalidMechanism, rs.Equation)
	}
	r.ThirdBody = thirdL

	if err := m.checkBalance(r); err != nil {
		return r, err
	}

	if len(rs.Efficiencies) > 0 && !r.ThirdBody {
		return r, fmt.Errorf("%w: %q: efficiencies without third body", ErrInvalidMechanism, rs.Equation)
	}
	if r.ThirdBody {
		r.efficiencies = make([]float64, len(m.Species))
		for i := range r.efficiencies {
			r.efficiencies[i] = 1
		}
		for name, eff := range rs.Efficiencies {
			i, err := m.Index(name)
			if err != nil {
				return r, fmt.Errorf("%w: %q: efficiency: %w", ErrInvalidMechanism, rs.Equation, err)
			}
			r.efficiencies[i] = eff
		}
	}

	order := 0.0
	for _, t := range r.reactants {
		order += t.nu
	}
	if r.ThirdBody {
		order++
	}

	switch units {
	case UnitsCGS:
		r.A = rs.A * math.Pow(1e-6, order-1)
		r.Ea = rs.Ea * calorie
	default:
		r.A = rs.A
		r.Ea = rs.Ea
	}
	return r, nil
}

func (m *Mechanism) parseSide(side string) ([]term, bool, error) {
	var terms []term
	third := false
	for _, raw := range strings.Split(side, "+") {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			return nil, false, fmt.Errorf("empty term")
		}
		nu := 1.0
		if j := strings.IndexFunc(tok, func(r rune) bool { return !(r >= '0' && r <= '9' || r == '.') }); j > 0 {
			v, err := strconv.ParseFloat(tok[:j], 64)
			if err != nil {
				return nil, false, err
			}
			nu = v
			tok = strings.TrimSpace(tok[j:])
		}
		if strings.EqualFold(tok, "M") {
			if third || nu != 1 {
				return nil, false, fmt.Errorf("invalid third body term %q", raw)
			}
			third = true
			continue
		}
		idx, err := m.Index(tok)
		if err != nil {
			return nil, false, err
		}
		merged := false
		for k := range terms {
			if terms[k].species == idx {
				terms[k].nu += nu
				merged = true
			}
		}
		if !merged {
			terms = append(terms, term{species: idx, nu: nu})
		}
	}
	return terms, third, nil
}

func (m *Mechanism) checkBalance(r Reaction) error {
	balance := map[string]float64{}
	for _, t := range r.reactants {
		for el, n := range m.Species[t.species].Elements {
			balance[el] += t.nu * n
		}
	}
	for _, t := range r.products {
		for el, n := range m.Species[t.species].Elements {
			balance[el] -= t.nu * n
		}
	}
	for el, d := range balance {
		if math.Abs(d) > 1e-9 {
			return fmt.Errorf("%w: %q: element %s not balanced", ErrInvalidMechanism, r.Equation, el)
		}
	}
	return nil
}

// NewIdealGas builds a provider for one run.
func (m *Mechanism) NewIdealGas() *IdealGas {
	return newIdealGas(m)
}
