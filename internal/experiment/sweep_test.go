package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/metrics"
	"github.com/san-kum/reactorsim/internal/sim"
)

func TestDefaultSweepPoints(t *testing.T) {
	pts := DefaultSweepPoints()
	require.Len(t, pts, 24)

	assert.Equal(t, 1300.0, pts[0].Temperature)
	assert.Equal(t, 1000.0, pts[3].Temperature)
	assert.Equal(t, 975.0, pts[4].Temperature)
	assert.Equal(t, 500.0, pts[23].Temperature)

	assert.Equal(t, 0.1, pts[5].Horizon)
	assert.Equal(t, 1.0, pts[6].Horizon)
	assert.Equal(t, 10.0, pts[20].Horizon)
	assert.Equal(t, 100.0, pts[22].Horizon)
}

func TestSweep(t *testing.T) {
	base := config.GetPreset("ignition/stoich-h2-1atm")
	points := []SweepPoint{
		{Temperature: 1400, Horizon: 0.05},
		{Temperature: 1200, Horizon: 0.05},
		{Temperature: 1300},
	}

	rows, err := Sweep(context.Background(), base, points, 2, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for i, row := range rows {
		assert.Equal(t, points[i].Temperature, row.Temperature)
		assert.InDelta(t, 1000/points[i].Temperature, row.InverseT, 1e-12)
		assert.Equal(t, sim.Completed, row.Phase, row.Error)
		assert.Greater(t, row.Delay, 0.0)
	}
	// hotter mixtures ignite sooner
	assert.Less(t, rows[0].Delay, rows[2].Delay)
	assert.Less(t, rows[2].Delay, rows[1].Delay)
}

func TestSweep_MatchesSingleRun(t *testing.T) {
	base := config.GetPreset("ignition/stoich-h2-1atm")

	rows, err := Sweep(context.Background(), base, []SweepPoint{{Temperature: base.Temperature}}, 1, nil)
	require.NoError(t, err)

	e := New(base)
	require.NoError(t, e.Setup(metrics.Defaults()))
	out, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, out.Ignition.Delay, rows[0].Delay)
}

func TestSweep_ReportsRunFailures(t *testing.T) {
	base := config.GetPreset("ignition/stoich-h2-1atm")
	points := []SweepPoint{{Temperature: 1200, Horizon: 1e-9}}

	rows, err := Sweep(context.Background(), base, points, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, sim.Completed, rows[0].Phase)
	assert.NotEmpty(t, rows[0].Error)
}

func TestSweep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sweep(ctx, config.GetPreset("ignition/stoich-h2-1atm"), DefaultSweepPoints()[:2], 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExperiment_NotSetup(t *testing.T) {
	_, err := New(config.DefaultConfig()).Run(context.Background())
	assert.Error(t, err)
}
