package integrators

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// gamma for ROS2, L-stable.
var ros2Gamma = 1.0 + 1.0/math.Sqrt2

// Rosenbrock is the two-stage linearly implicit ROS2 method. The Jacobian
// is built by forward differences and reused while retrying from the same
// point, so a rejected attempt costs two evaluations and one factorization.
type Rosenbrock struct {
	n int

	jac  *mat.Dense
	w    *mat.Dense
	ft   []float64
	f0   dynamo.State
	fp   dynamo.State
	tmp  dynamo.State
	k1   *mat.VecDense
	k2   *mat.VecDense
	rhs  *mat.VecDense
	lu   mat.LU
	jacT float64
	jacX dynamo.State
	have bool
}

func NewRosenbrock() *Rosenbrock {
	return &Rosenbrock{}
}

func (r *Rosenbrock) Name() string    { return "rosenbrock" }
func (r *Rosenbrock) ErrorOrder() int { return 1 }

func (r *Rosenbrock) ensure(n int) {
	if r.n == n {
		return
	}
	r.n = n
	r.jac = mat.NewDense(n, n, nil)
	r.w = mat.NewDense(n, n, nil)
	r.ft = make([]float64, n)
	r.f0 = make(dynamo.State, n)
	r.fp = make(dynamo.State, n)
	r.tmp = make(dynamo.State, n)
	r.k1 = mat.NewVecDense(n, nil)
	r.k2 = mat.NewVecDense(n, nil)
	r.rhs = mat.NewVecDense(n, nil)
	r.jacX = make(dynamo.State, n)
	r.have = false
}

func (r *Rosenbrock) derive(sys dynamo.System, t float64, x, dst dynamo.State) error {
	if err := sys.Derive(t, x, dst); err != nil {
		return err
	}
	if !dst.IsValid() {
		return fmt.Errorf("%w: non-finite derivative at t=%g", dynamo.ErrRejectTrial, t)
	}
	return nil
}

func (r *Rosenbrock) sameBase(t float64, x dynamo.State) bool {
	if !r.have || r.jacT != t {
		return false
	}
	for i, v := range x {
		if r.jacX[i] != v {
			return false
		}
	}
	return true
}

// jacobian fills r.jac with df/dx and r.ft with df/dt at (t, x), given f0 = f(t, x).
func (r *Rosenbrock) jacobian(sys dynamo.System, t float64, x dynamo.State, h float64, trial *dynamo.Trial) error {
	n := r.n
	var typical dynamo.State
	if s, ok := sys.(dynamo.Scaled); ok {
		typical = s.Typical()
	}
	sqrtEps := math.Sqrt(2.220446049250313e-16)

	copy(r.tmp, x)
	for j := 0; j < n; j++ {
		scale := math.Abs(x[j])
		if typical != nil {
			scale = math.Max(scale, math.Abs(typical[j]))
		}
		if scale == 0 {
			scale = 1
		}
		delta := sqrtEps * scale
		r.tmp[j] = x[j] + delta
		delta = r.tmp[j] - x[j]

		trial.Evaluations++
		err := r.derive(sys, t, r.tmp, r.fp)
		r.tmp[j] = x[j]
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			r.jac.Set(i, j, (r.fp[i]-r.f0[i])/delta)
		}
	}

	dt := sqrtEps * math.Max(math.Abs(t), h)
	trial.Evaluations++
	if err := r.derive(sys, t+dt, x, r.fp); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		r.ft[i] = (r.fp[i] - r.f0[i]) / dt
	}

	trial.Jacobians++
	r.jacT = t
	copy(r.jacX, x)
	r.have = true
	return nil
}

func (r *Rosenbrock) solve(dst *mat.VecDense) error {
	err := r.lu.SolveVecTo(dst, false, r.rhs)
	var cond mat.Condition
	if err != nil && !errors.As(err, &cond) {
		return fmt.Errorf("%w: %w: %v", dynamo.ErrRejectTrial, dynamo.ErrSingularMatrix, err)
	}
	for i := 0; i < r.n; i++ {
		v := dst.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %w", dynamo.ErrRejectTrial, dynamo.ErrSingularMatrix)
		}
	}
	return nil
}

func (r *Rosenbrock) Attempt(sys dynamo.System, t float64, x dynamo.State, h float64) (dynamo.Trial, error) {
	n := len(x)
	r.ensure(n)
	trial := dynamo.Trial{}

	reuse := r.sameBase(t, x)
	if !reuse {
		trial.Evaluations++
		if err := r.derive(sys, t, x, r.f0); err != nil {
			r.have = false
			return trial, err
		}
		if err := r.jacobian(sys, t, x, h, &trial); err != nil {
			r.have = false
			return trial, err
		}
	}

	gh := ros2Gamma * h
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -gh * r.jac.At(i, j)
			if i == j {
				v += 1
			}
			r.w.Set(i, j, v)
		}
	}
	r.lu.Factorize(r.w)
	if math.IsInf(r.lu.Cond(), 1) {
		return trial, fmt.Errorf("%w: %w (h=%g)", dynamo.ErrRejectTrial, dynamo.ErrSingularMatrix, h)
	}

	for i := 0; i < n; i++ {
		r.rhs.SetVec(i, r.f0[i]+gh*r.ft[i])
	}
	if err := r.solve(r.k1); err != nil {
		return trial, err
	}

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + h*r.k1.AtVec(i)
	}
	trial.Evaluations++
	if err := r.derive(sys, t+h, r.tmp, r.fp); err != nil {
		return trial, err
	}

	for i := 0; i < n; i++ {
		r.rhs.SetVec(i, r.fp[i]-2*r.k1.AtVec(i)-gh*r.ft[i])
	}
	if err := r.solve(r.k2); err != nil {
		return trial, err
	}

	xNew := make(dynamo.State, n)
	errEst := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		k1, k2 := r.k1.AtVec(i), r.k2.AtVec(i)
		xNew[i] = x[i] + 1.5*h*k1 + 0.5*h*k2
		errEst[i] = 0.5 * h * (k1 + k2)
	}
	trial.X = xNew
	trial.Err = errEst
	return trial, nil
}
