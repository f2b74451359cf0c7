// Package metrics summarizes a run from its recorded snapshots.
package metrics

import "github.com/san-kum/reactorsim/internal/sim"

// Defaults is the set attached to every CLI run.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewPeakPressure(),
		NewPeakTemperature(),
		NewMassDrift(),
		NewIndicatedWork(),
		NewEnergyResidual(),
	}
}
