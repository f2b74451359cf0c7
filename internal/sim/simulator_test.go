package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/ignition"
	"github.com/san-kum/reactorsim/internal/kinetics"
	"github.com/san-kum/reactorsim/internal/reactor"
	"github.com/san-kum/reactorsim/internal/sim"
)

// R => X => P with k1 = 1000/s and k2 = 200/s; X peaks at ln(k2/k1)/(k2-k1).
const isomerYAML = `
name: isomer
species:
  - name: R
    composition: {N: 2}
    thermo: &n2
      t-mid: 1000
      low: [3.298677, 1.4082404e-03, -3.963222e-06, 5.641515e-09, -2.444854e-12, -1.0208999e+03, 3.950372]
      high: [2.92664, 1.4879768e-03, -5.68476e-07, 1.0097038e-10, -6.753351e-15, -9.227977e+02, 5.980528]
  - name: X
    composition: {N: 2}
    thermo: *n2
  - name: P
    composition: {N: 2}
    thermo: *n2
reactions:
  - equation: R => X
    A: 1000
  - equation: X => P
    A: 200
`

type countingMetric struct {
	n int
}

func (c *countingMetric) Name() string             { return "count" }
func (c *countingMetric) Observe(reactor.Snapshot) { c.n++ }
func (c *countingMetric) Value() float64           { return float64(c.n) }
func (c *countingMetric) Reset()                   { c.n = 0 }

type stepCounter struct {
	steps, recorded int
}

func (s *stepCounter) OnStep(_ reactor.Snapshot, recorded bool) {
	s.steps++
	if recorded {
		s.recorded++
	}
}

func isomerConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeIgnition
	cfg.Mechanism = "isomer"
	cfg.Temperature = 300
	cfg.Pressure = kinetics.OneAtm
	cfg.Composition = kinetics.Composition{"R": 1}
	cfg.TrackedSpecies = "X"
	cfg.SamplingStride = 1
	cfg.MaxSearchHorizon = 0.02
	cfg.Solver.MaxStep = 1e-5
	return cfg
}

func isomerSimulator(cfg *config.Config) *sim.Simulator {
	m, err := kinetics.ParseMechanism([]byte(isomerYAML))
	Expect(err).NotTo(HaveOccurred())
	s, err := sim.New(cfg, sim.WithMechanism(m))
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Simulator", func() {
	ctx := context.Background()

	Describe("New", func() {
		It("rejects an invalid config", func() {
			cfg := config.DefaultConfig()
			cfg.SamplingStride = 0
			_, err := sim.New(cfg)
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown mechanism", func() {
			cfg := config.DefaultConfig()
			cfg.Mechanism = "gri30"
			_, err := sim.New(cfg)
			Expect(err).To(MatchError(kinetics.ErrUnknownMechanism))
		})

		It("does not share the caller's config", func() {
			cfg := config.DefaultConfig()
			s, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			cfg.Temperature = 1
			Expect(s.Config().Temperature).To(Equal(config.DefaultTemperature))
		})
	})

	Describe("autoignition", func() {
		It("finds the analytic peak of an intermediate", func() {
			s := isomerSimulator(isomerConfig())
			metric := &countingMetric{}
			steps := &stepCounter{}
			s.AddMetric(metric)
			s.AddObserver(steps)

			out, err := s.RunIgnition(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Phase).To(Equal(sim.Completed))
			Expect(out.Ignition).NotTo(BeNil())

			want := math.Log(200.0/1000.0) / (200.0 - 1000.0)
			Expect(out.Ignition.Delay).To(BeNumerically("~", want, 0.02*want))
			Expect(out.Ignition.WallClock).To(Equal(out.WallClock))

			Expect(out.Metrics["count"]).To(BeNumerically("==", len(out.Samples)))
			Expect(steps.steps).To(Equal(out.Steps + 1))
			Expect(steps.recorded).To(Equal(len(out.Samples)))
		})

		It("stops once the peak is confirmed", func() {
			out, err := isomerSimulator(isomerConfig()).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Final.Time).To(BeNumerically("<", 0.02))
		})

		It("runs to the horizon when the early stop is disabled", func() {
			cfg := isomerConfig()
			cfg.PeakDrop = 0
			cfg.MaxSearchHorizon = 0.005
			out, err := isomerSimulator(cfg).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Final.Time).To(Equal(0.005))
		})

		It("is deterministic", func() {
			a, err := isomerSimulator(isomerConfig()).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			b, err := isomerSimulator(isomerConfig()).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Samples).To(Equal(b.Samples))
			Expect(a.Ignition.Delay).To(Equal(b.Ignition.Delay))
		})

		It("reports a horizon that ends before the peak", func() {
			cfg := isomerConfig()
			cfg.MaxSearchHorizon = 1e-3
			out, err := isomerSimulator(cfg).Run(ctx)
			Expect(err).To(MatchError(ignition.ErrNoPeakDetected))
			Expect(out.Phase).To(Equal(sim.Completed))
			Expect(out.Ignition).NotTo(BeNil())
			Expect(out.Ignition.Delay).To(Equal(1e-3))
		})

		It("ignites a hydrogen mixture", func() {
			cfg := config.GetPreset("ignition/stoich-h2-1atm")
			s, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			out, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Ignition.Delay).To(BeNumerically(">", 0))
			Expect(out.Ignition.Delay).To(BeNumerically("<", cfg.MaxSearchHorizon))
			Expect(out.Final.Temperature).To(BeNumerically(">", cfg.Temperature+500))
		})
	})

	Describe("engine cycle", func() {
		It("returns to the initial volume after one revolution", func() {
			cfg := config.GetPreset("engine/motored")
			s, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			out, err := s.RunEngineCycle(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Phase).To(Equal(sim.Completed))
			Expect(out.Ignition).To(BeNil())

			geom := cfg.EngineGeometry()
			Expect(len(out.Samples)).To(BeNumerically(">=", cfg.Engine.SamplesPerCycle+1))
			Expect(out.Final.Time).To(Equal(geom.CycleDuration()))
			Expect(out.Final.Volume).To(BeNumerically("~", geom.VMax(), 1e-6*geom.VMax()))
			Expect(out.Final.Temperature).To(BeNumerically("~", cfg.Temperature, 0.1))

			peak := 0.0
			for _, smp := range out.Samples {
				peak = math.Max(peak, smp.Pressure)
			}
			Expect(peak).To(BeNumerically(">", 10*cfg.Pressure))
		})

		It("records every accepted step whatever the configured stride", func() {
			cfg := config.GetPreset("engine/motored")
			cfg.SamplingStride = config.DefaultSamplingStride
			cfg.Engine.SamplesPerCycle = 200
			s, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			out, err := s.RunEngineCycle(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Samples).To(HaveLen(out.Steps + 1))
			Expect(len(out.Samples)).To(BeNumerically(">=", cfg.Engine.SamplesPerCycle+1))
		})

		It("advances step by step through a session", func() {
			cfg := config.GetPreset("engine/motored")
			cfg.Engine.SamplesPerCycle = 50
			s, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			sess, err := s.Start()
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Phase()).To(Equal(sim.Integrating))
			Expect(sess.Recorder().Len()).To(Equal(1))

			for !sess.Done() {
				Expect(sess.Advance()).To(Succeed())
			}
			Expect(sess.Progress()).To(Equal(1.0))

			out, err := sess.Finish()
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Phase).To(Equal(sim.Completed))
		})
	})

	Describe("failures", func() {
		It("ends in Diverged when the retry budget is exhausted", func() {
			cfg := isomerConfig()
			cfg.Solver.RelTol = 1e-15
			cfg.Solver.AbsTol = 1e-300
			cfg.Solver.MaxRetries = 1

			out, err := isomerSimulator(cfg).Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrIntegrationDivergence))
			Expect(out.Phase).To(Equal(sim.Diverged))

			var f *sim.Failure
			Expect(errors.As(err, &f)).To(BeTrue())
			Expect(f.Phase).To(Equal(sim.Diverged))
			Expect(out.Failure).To(Equal(f))
			Expect(out.Failure.Last.Temperature).To(BeNumerically("~", cfg.Temperature, 1e-6))
			Expect(out.Stats.Rejected).To(BeNumerically(">=", 1))
			Expect(out.Samples).To(HaveLen(1))
		})

		It("ends in NonPhysical when the temperature limit is crossed", func() {
			cfg := config.GetPreset("ignition/stoich-h2-1atm")
			cfg.Limits.MaxTemperature = cfg.Temperature + 100
			s, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			out, err := s.Run(ctx)
			Expect(err).To(MatchError(reactor.ErrNonPhysicalState))
			Expect(out.Phase).To(Equal(sim.NonPhysical))
			Expect(out.Failure.Last.Temperature).To(BeNumerically("<=", cfg.Limits.MaxTemperature))
			Expect(len(out.Samples)).To(BeNumerically(">", 1))
		})

		It("ends in Failed when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			out, err := isomerSimulator(isomerConfig()).Run(cctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(out.Phase).To(Equal(sim.Failed))
		})

		It("rejects an unknown tracked species before integrating", func() {
			cfg := isomerConfig()
			cfg.TrackedSpecies = "OH"
			_, err := isomerSimulator(cfg).Run(ctx)
			Expect(err).To(MatchError(kinetics.ErrUnknownSpecies))
		})
	})
})

var _ = DescribeTable("Phase",
	func(p sim.Phase, name string, terminal bool) {
		Expect(p.String()).To(Equal(name))
		Expect(p.Terminal()).To(Equal(terminal))

		text, err := p.MarshalText()
		Expect(err).NotTo(HaveOccurred())
		var back sim.Phase
		Expect(back.UnmarshalText(text)).To(Succeed())
		Expect(back).To(Equal(p))
	},
	Entry("initialized", sim.Initialized, "initialized", false),
	Entry("integrating", sim.Integrating, "integrating", false),
	Entry("completed", sim.Completed, "completed", true),
	Entry("diverged", sim.Diverged, "diverged", true),
	Entry("non-physical", sim.NonPhysical, "non_physical", true),
	Entry("failed", sim.Failed, "failed", true),
)
