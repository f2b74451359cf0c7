// Package reactor integrates a well-mixed ideal-gas reactor.
//
// The integrated vector is
//
//	x = [V, U, m_1 ... m_K]
//
// with V the volume, U the total internal energy and m_k the species masses.
// Temperature, pressure and mass fractions are derived from x through the
// kinetics provider every time x changes and are never integrated.
//
// An [Integrator] owns its [State]. Step either commits one accepted step or
// returns an error and leaves the state as it was.
package reactor
