package kinetics

import "errors"

var (
	// ErrInvalidComposition indicates negative fractions or fractions that do not sum to one.
	ErrInvalidComposition = errors.New("kinetics: invalid composition")

	// ErrEnergyOutOfRange indicates no temperature in the supported range matches an internal energy.
	ErrEnergyOutOfRange = errors.New("kinetics: internal energy out of range")

	ErrUnknownSpecies   = errors.New("kinetics: unknown species")
	ErrUnknownMechanism = errors.New("kinetics: unknown mechanism")
	ErrInvalidMechanism = errors.New("kinetics: invalid mechanism")

	// ErrInvalidThermoState indicates a non-positive or non-finite temperature or density.
	ErrInvalidThermoState = errors.New("kinetics: invalid thermodynamic state")
)
