package kinetics

import "fmt"

// NASA7 holds the two-range seven-coefficient NASA polynomials of one species.
type NASA7 struct {
	TMid float64
	Low  [7]float64
	High [7]float64
}

func (n *NASA7) coeffs(t float64) *[7]float64 {
	if t < n.TMid {
		return &n.Low
	}
	return &n.High
}

// CpR returns cp/R.
func (n *NASA7) CpR(t float64) float64 {
	a := n.coeffs(t)
	return a[0] + t*(a[1]+t*(a[2]+t*(a[3]+t*a[4])))
}

// HRT returns h/(R T).
func (n *NASA7) HRT(t float64) float64 {
	a := n.coeffs(t)
	return a[0] + t*(a[1]/2+t*(a[2]/3+t*(a[3]/4+t*a[4]/5))) + a[5]/t
}

// SR returns s/R at the standard pressure.
func (n *NASA7) SR(t float64, lnT float64) float64 {
	a := n.coeffs(t)
	return a[0]*lnT + t*(a[1]+t*(a[2]/2+t*(a[3]/3+t*a[4]/4))) + a[6]
}

// continuity returns the relative cp/R and h/RT jumps at TMid.
func (n *NASA7) continuity() (cp, h float64) {
	lo := NASA7{TMid: n.TMid + 1, Low: n.Low}
	hi := NASA7{TMid: n.TMid - 1, High: n.High}
	cp = relDiff(lo.CpR(n.TMid), hi.CpR(n.TMid))
	h = relDiff(lo.HRT(n.TMid), hi.HRT(n.TMid))
	return cp, h
}

func (n *NASA7) validate(name string) error {
	if !(n.TMid > 0) {
		return fmt.Errorf("%w: species %s: thermo midpoint must be positive", ErrInvalidMechanism, name)
	}
	cp, h := n.continuity()
	if cp > 1e-2 || h > 1e-2 {
		return fmt.Errorf("%w: species %s: thermo discontinuous at %g K (cp %.2g, h %.2g)", ErrInvalidMechanism, name, n.TMid, cp, h)
	}
	return nil
}

func relDiff(a, b float64) float64 {
	d := a - b
	if d < 0 {
		d = -d
	}
	s := a
	if s < 0 {
		s = -s
	}
	if s < 1 {
		s = 1
	}
	return d / s
}
