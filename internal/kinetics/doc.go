// Package kinetics provides the thermochemistry behind the reactor: compiled
// reaction mechanisms, an ideal-gas [Provider] with mass-action rates, and
// composition helpers.
//
// Mechanisms are immutable and can be shared; an [IdealGas] holds the state
// of one run and must not be shared between goroutines.
package kinetics
