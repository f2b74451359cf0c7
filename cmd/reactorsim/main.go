package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/reactorsim/internal/sim"
	"github.com/san-kum/reactorsim/internal/telemetry"
)

var (
	dataDir     string
	logLevel    string
	logFormat   string
	metricsFile string

	configFile  string
	preset      string
	mechanism   string
	integrator  string
	temperature float64
	pressure    float64
	composition string
	fuel        string
	oxidizer    string
	phi         float64
	tracked     string
	basis       string
	stride      int
	horizon     float64
	rtol        float64
	atol        float64
	maxStep     float64
	// engine geometry
	compressionRatio float64
	rpm              float64
	cycles           int
	samplesPerCycle  int
	// sweep
	sweepTemps []float64
	workers    int
	asJSON     bool
	// plot and export
	plotField  string
	plotWidth  int
	plotHeight int
	outFile    string
	svgX       string
	svgY       string
)

// main registers the commands and flags and executes the root command. It
// exits with status 1 if the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "reactorsim",
		Short:         "zero-dimensional engine cycle and autoignition simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".reactorsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write solver metrics in Prometheus textfile format")

	engineCmd := &cobra.Command{
		Use:   "engine",
		Short: "run one engine cycle",
		Args:  cobra.NoArgs,
		RunE:  runEngine,
	}
	addRunFlags(engineCmd)
	addEngineFlags(engineCmd)

	ignitionCmd := &cobra.Command{
		Use:   "ignition",
		Short: "compute the ignition delay of a constant volume mixture",
		Args:  cobra.NoArgs,
		RunE:  runIgnition,
	}
	addRunFlags(ignitionCmd)
	addIgnitionFlags(ignitionCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "ignition delay over a list of initial temperatures",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	addIgnitionFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&sweepTemps, "temperatures", nil, "initial temperatures in K (default 1300 K down to 500 K)")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default GOMAXPROCS)")
	sweepCmd.Flags().BoolVar(&asJSON, "json", false, "print rows as JSON")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "integrate an engine cycle with a live p-V view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	addEngineFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotField, "field", "", "pressure, temperature, volume or tracked (default all)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export metadata and trajectory to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw a recorded trajectory as SVG (p-V diagram by default)",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringVar(&svgX, "x", "volume", "x axis (time, volume, pressure, temperature, tracked)")
	exportSVGCmd.Flags().StringVar(&svgY, "y", "pressure", "y axis (time, volume, pressure, temperature, tracked)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	mechanismsCmd := &cobra.Command{
		Use:   "mechanisms",
		Short: "list built-in reaction mechanisms",
		Args:  cobra.NoArgs,
		RunE:  listMechanisms,
	}

	rootCmd.AddCommand(engineCmd, ignitionCmd, sweepCmd, liveCmd, listCmd, showCmd, plotCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, mechanismsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(logFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", logFormat)
}

// metricsSink registers a collector when --metrics-file is set. flush
// records the outcomes and writes the file; it is a no-op otherwise.
type metricsSink struct {
	reg *prometheus.Registry
	col *telemetry.Collector
}

func newMetricsSink() (*metricsSink, error) {
	if metricsFile == "" {
		return &metricsSink{}, nil
	}
	reg := prometheus.NewRegistry()
	col, err := telemetry.NewCollector(reg)
	if err != nil {
		return nil, err
	}
	return &metricsSink{reg: reg, col: col}, nil
}

func (m *metricsSink) options() []sim.Option {
	if m.col == nil {
		return nil
	}
	return []sim.Option{sim.WithStepObserver(m.col)}
}

func (m *metricsSink) flush(outcomes ...*sim.Outcome) error {
	if m.col == nil {
		return nil
	}
	for _, out := range outcomes {
		m.col.ObserveRun(out)
	}
	return telemetry.WriteTextfile(metricsFile, m.reg)
}
