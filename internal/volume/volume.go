// Package volume describes how the vessel boundary moves.
package volume

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidGeometry = errors.New("volume: invalid geometry")

// Driver gives the vessel volume and its rate of change as pure functions of
// the time since cycle start.
type Driver interface {
	VolumeAt(t float64) float64
	RateAt(t float64) float64
}

// Fixed is a rigid vessel.
type Fixed struct {
	Volume float64
}

func (f Fixed) VolumeAt(float64) float64 { return f.Volume }
func (f Fixed) RateAt(float64) float64   { return 0 }

// Piston moves sinusoidally between VMax at t=0 (BDC) and VMin at half a
// period (TDC).
type Piston struct {
	VMin  float64
	VMax  float64
	Omega float64 // rad/s
}

func NewPiston(vmin, vmax, omega float64) (Piston, error) {
	p := Piston{VMin: vmin, VMax: vmax, Omega: omega}
	return p, p.Validate()
}

func (p Piston) Validate() error {
	if !(p.VMin > 0) || !(p.VMax >= p.VMin) || math.IsInf(p.VMax, 0) {
		return fmt.Errorf("%w: need 0 < VMin <= VMax, got %g, %g", ErrInvalidGeometry, p.VMin, p.VMax)
	}
	if !(p.Omega > 0) || math.IsInf(p.Omega, 0) {
		return fmt.Errorf("%w: angular speed must be positive, got %g", ErrInvalidGeometry, p.Omega)
	}
	return nil
}

func (p Piston) VolumeAt(t float64) float64 {
	return p.VMin + 0.5*(p.VMax-p.VMin)*(1+math.Cos(p.Omega*t))
}

func (p Piston) RateAt(t float64) float64 {
	return -0.5 * (p.VMax - p.VMin) * p.Omega * math.Sin(p.Omega*t)
}

func (p Piston) Period() float64 {
	return 2 * math.Pi / p.Omega
}

// Engine is the literal geometry of a single-cylinder cycle.
type Engine struct {
	CompressionRatio float64 // VMax/VMin
	VMin             float64 // m3, at TDC
	RPM              float64
	Area             float64 // piston cross section, m2
}

func (e Engine) Validate() error {
	if !(e.CompressionRatio >= 1) {
		return fmt.Errorf("%w: compression ratio must be >= 1, got %g", ErrInvalidGeometry, e.CompressionRatio)
	}
	if !(e.Area > 0) {
		return fmt.Errorf("%w: piston area must be positive, got %g", ErrInvalidGeometry, e.Area)
	}
	return e.Piston().Validate()
}

func (e Engine) VMax() float64  { return e.CompressionRatio * e.VMin }
func (e Engine) Omega() float64 { return 2 * math.Pi * e.RPM / 60 }

// CycleDuration is one BDC -> TDC -> BDC revolution.
func (e Engine) CycleDuration() float64 { return 2 * math.Pi / e.Omega() }

func (e Engine) Piston() Piston {
	return Piston{VMin: e.VMin, VMax: e.VMax(), Omega: e.Omega()}
}

func (e Engine) Wall() Wall {
	return Wall{Area: e.Area, Driver: e.Piston()}
}

// Wall turns a driver's volume rate into a boundary velocity. The reactor
// consumes the velocity and does work P*Area*velocity on it.
type Wall struct {
	Area   float64
	Driver Driver
}

func (w Wall) Velocity(t float64) float64 {
	return w.Driver.RateAt(t) / w.Area
}

// VolumeRate is Area*Velocity.
func (w Wall) VolumeRate(t float64) float64 {
	return w.Area * w.Velocity(t)
}
