package reactor

import (
	"errors"
	"fmt"

	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/kinetics"
	"github.com/san-kum/reactorsim/internal/volume"
)

// odeSystem is the reactor right-hand side:
//
//	dV/dt   = Area * velocity(t)
//	dU/dt   = -P dV/dt
//	dm_k/dt = V wdot_k W_k
type odeSystem struct {
	state   *State
	wall    volume.Wall
	y       []float64
	wdot    []float64
	typical dynamo.State
}

func newODESystem(s *State, wall volume.Wall) *odeSystem {
	k := len(s.species)
	sys := &odeSystem{
		state:   s,
		wall:    wall,
		y:       make([]float64, k),
		wdot:    make([]float64, k),
		typical: make(dynamo.State, 2+k),
	}
	sys.typical[0] = s.x[0]
	sys.typical[1] = s.mass * kinetics.GasConstant / meanMolarMass(s.y, s.mw) * s.temperature
	for i := 0; i < k; i++ {
		sys.typical[2+i] = 1e-10 * s.mass
	}
	return sys
}

func (o *odeSystem) Dim() int              { return 2 + len(o.y) }
func (o *odeSystem) Typical() dynamo.State { return o.typical }

func (o *odeSystem) Derive(t float64, x, dx dynamo.State) error {
	_, p, _, err := o.state.resolve(x, o.y)
	if err != nil {
		return classify(err)
	}
	o.state.gas.NetProductionRates(o.wdot)

	v := x[0]
	dv := o.wall.VolumeRate(t)
	dx[0] = dv
	dx[1] = -p * dv
	for k, w := range o.wdot {
		dx[2+k] = v * w * o.state.mw[k]
	}
	return nil
}

// classify marks errors that a smaller step can avoid.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrNonPhysicalState),
		errors.Is(err, kinetics.ErrEnergyOutOfRange),
		errors.Is(err, kinetics.ErrInvalidThermoState):
		return fmt.Errorf("%w: %w", dynamo.ErrRejectTrial, err)
	}
	return err
}
