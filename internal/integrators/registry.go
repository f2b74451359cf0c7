package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

var registry = map[string]func() dynamo.Scheme{
	"rosenbrock": func() dynamo.Scheme { return NewRosenbrock() },
	"rk45":       func() dynamo.Scheme { return NewRK45() },
}

// New returns a fresh scheme by name. Schemes hold scratch buffers, so
// every run gets its own.
func New(name string) (dynamo.Scheme, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator %q (available: %v)", name, Names())
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
