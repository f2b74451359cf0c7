package integrators

import (
	"fmt"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the explicit Dormand-Prince pair. It is only suitable for
// non-stiff runs such as motored (inert) engine cycles.
type RK45 struct {
	k   [7]dynamo.State
	tmp dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{}
}

func (r *RK45) Name() string    { return "rk45" }
func (r *RK45) ErrorOrder() int { return 4 }

func (r *RK45) ensure(n int) {
	if len(r.tmp) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.tmp = make(dynamo.State, n)
}

func (r *RK45) eval(sys dynamo.System, t float64, x, dst dynamo.State) error {
	if err := sys.Derive(t, x, dst); err != nil {
		return err
	}
	if !dst.IsValid() {
		return fmt.Errorf("%w: non-finite derivative at t=%g", dynamo.ErrRejectTrial, t)
	}
	return nil
}

func (r *RK45) Attempt(sys dynamo.System, t float64, x dynamo.State, dt float64) (dynamo.Trial, error) {
	n := len(x)
	r.ensure(n)
	k1, k2, k3, k4, k5, k6, k7 := r.k[0], r.k[1], r.k[2], r.k[3], r.k[4], r.k[5], r.k[6]
	trial := dynamo.Trial{}

	stage := func(tt float64, dst dynamo.State) error {
		trial.Evaluations++
		return r.eval(sys, tt, r.tmp, dst)
	}

	copy(r.tmp, x)
	if err := stage(t, k1); err != nil {
		return trial, err
	}

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + dt*b21*k1[i]
	}
	if err := stage(t+a2*dt, k2); err != nil {
		return trial, err
	}

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	if err := stage(t+a3*dt, k3); err != nil {
		return trial, err
	}

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	if err := stage(t+a4*dt, k4); err != nil {
		return trial, err
	}

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	if err := stage(t+a5*dt, k5); err != nil {
		return trial, err
	}

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	if err := stage(t+dt, k6); err != nil {
		return trial, err
	}

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	copy(r.tmp, xNew)
	if err := stage(t+dt, k7); err != nil {
		return trial, err
	}

	errEst := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		errEst[i] = dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
	}

	trial.X = xNew
	trial.Err = errEst
	return trial, nil
}
