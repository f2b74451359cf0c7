// Package dynamo provides the core primitives for integrating stiff
// ordinary differential equations.
//
// The package defines the fundamental interfaces and types shared by the
// integrators and the reactor model:
//
//   - [State]: vector representing the integrated variables
//   - [System]: right-hand side of dX/dt = f(t, X)
//   - [Scheme]: a single-step method that attempts one step and estimates its local error
//   - [Trial]: the outcome of one attempt, not yet accepted
//   - [StepObserver]: hook notified of every accepted and rejected attempt
//
// # Example
//
//	scheme := integrators.NewRosenbrock()
//	stepper := integrators.NewAdaptive(scheme, integrators.DefaultOptions())
//	t, x, err := stepper.Step(sys, t, x, horizon)
//
// # Thread Safety
//
// Schemes keep scratch buffers between attempts and are NOT thread-safe.
// Every concurrent run needs its own scheme and stepper.
package dynamo
