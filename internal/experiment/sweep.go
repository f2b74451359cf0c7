package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/ignition"
	"github.com/san-kum/reactorsim/internal/sim"
)

// SweepPoint is one initial temperature with the search horizon to use.
// A zero Horizon keeps the base configuration's.
type SweepPoint struct {
	Temperature float64 `json:"temperature"`
	Horizon     float64 `json:"horizon"`
}

type SweepRow struct {
	Temperature      float64   `json:"temperature"`
	InverseT         float64   `json:"inverse_temperature"`
	Delay            float64   `json:"delay"`
	WallClockSeconds float64   `json:"wall_clock_seconds"`
	Phase            sim.Phase `json:"phase"`
	Error            string    `json:"error,omitempty"`
}

// DefaultSweepPoints spans 1300 K down to 500 K with horizons growing as the
// mixture gets colder.
func DefaultSweepPoints() []SweepPoint {
	var pts []SweepPoint
	for t := 1300.0; t > 900; t -= 100 {
		pts = append(pts, SweepPoint{Temperature: t, Horizon: 1})
	}
	for t := 975.0; t > 475; t -= 25 {
		pts = append(pts, SweepPoint{Temperature: t, Horizon: 1})
	}
	for i := range pts {
		switch {
		case i < 6:
			pts[i].Horizon = 0.1
		case i >= len(pts)-2:
			pts[i].Horizon = 100
		case i >= len(pts)-4:
			pts[i].Horizon = 10
		}
	}
	return pts
}

// Sweep runs the autoignition case of base once per point, at most workers
// at a time. Each run owns its simulator; rows come back in point order.
// A run that fails or finds no peak is reported in its row. Only setup
// errors and cancellation abort the sweep. opts are applied to every run
// and must be safe for concurrent use.
func Sweep(ctx context.Context, base *config.Config, points []SweepPoint, workers int, logger *slog.Logger, opts ...sim.Option) ([]SweepRow, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rows := make([]SweepRow, len(points))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, pt := range points {
		g.Go(func() error {
			cfg := base.Clone()
			cfg.Mode = config.ModeIgnition
			cfg.Temperature = pt.Temperature
			if pt.Horizon > 0 {
				cfg.MaxSearchHorizon = pt.Horizon
			}

			runOpts := []sim.Option{sim.WithLogger(logger.With("temperature", pt.Temperature))}
			s, err := sim.New(cfg, append(runOpts, opts...)...)
			if err != nil {
				return fmt.Errorf("T=%g: %w", pt.Temperature, err)
			}
			out, err := s.Run(ctx)
			if out == nil {
				return fmt.Errorf("T=%g: %w", pt.Temperature, err)
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			row := SweepRow{
				Temperature:      pt.Temperature,
				InverseT:         1000 / pt.Temperature,
				WallClockSeconds: out.WallClock.Seconds(),
				Phase:            out.Phase,
			}
			if out.Ignition != nil {
				row.Delay = out.Ignition.Delay
			}
			if err != nil {
				row.Error = err.Error()
				if !errors.Is(err, ignition.ErrNoPeakDetected) {
					row.Delay = 0
				}
			}
			rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rows, err
	}
	return rows, nil
}
