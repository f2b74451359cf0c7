package reactor

import "errors"

// ErrNonPhysicalState is fatal for a run: a committed state left the
// plausible temperature/pressure range or could not be resolved.
var ErrNonPhysicalState = errors.New("reactor: non-physical state")

// Limits bound the committed state. Zero fields take the defaults.
type Limits struct {
	MaxTemperature float64 `yaml:"max_temperature" json:"max_temperature"`
	MaxPressure    float64 `yaml:"max_pressure" json:"max_pressure"`
}

func DefaultLimits() Limits {
	return Limits{MaxTemperature: 6000, MaxPressure: 1e10}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxTemperature > 0 {
		d.MaxTemperature = l.MaxTemperature
	}
	if l.MaxPressure > 0 {
		d.MaxPressure = l.MaxPressure
	}
	return d
}
