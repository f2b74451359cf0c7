package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/export"
	"github.com/san-kum/reactorsim/internal/kinetics"
	"github.com/san-kum/reactorsim/internal/storage"
	"github.com/san-kum/reactorsim/internal/viz"
)

func metricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tMODE\tMECHANISM\tT0 (K)\tPHASE\tRESULT\tTIMESTAMP")
	for _, r := range runs {
		result := "-"
		if r.Ignition != nil {
			result = fmt.Sprintf("%.3e s", r.Ignition.Delay)
		} else if v, ok := r.Metrics["peak_pressure"]; ok {
			result = fmt.Sprintf("%.4g Pa", v)
		}
		t0 := 0.0
		if r.Config != nil {
			t0 = r.Config.Temperature
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%s\t%s\t%s\n",
			r.ID, r.Mode, r.Mechanism, t0, r.Phase, result, r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", meta.ID)
	fmt.Fprintf(w, "mode\t%s\n", meta.Mode)
	fmt.Fprintf(w, "mechanism\t%s\n", meta.Mechanism)
	fmt.Fprintf(w, "integrator\t%s\n", meta.Integrator)
	if meta.Config != nil {
		fmt.Fprintf(w, "mixture\t%s\n", meta.Config.MixtureLabel())
		fmt.Fprintf(w, "initial state\t%g K, %g Pa\n", meta.Config.Temperature, meta.Config.Pressure)
	}
	fmt.Fprintf(w, "tracked\t%s\n", meta.TrackedSpecies)
	fmt.Fprintf(w, "phase\t%s\n", meta.Phase)
	if meta.Failure != "" {
		fmt.Fprintf(w, "failure\t%s\n", meta.Failure)
	}
	if meta.Ignition != nil {
		fmt.Fprintf(w, "ignition delay\t%.6e s\n", meta.Ignition.Delay)
		fmt.Fprintf(w, "peak\t%.4g at sample %d\n", meta.Ignition.PeakValue, meta.Ignition.PeakIndex)
	}
	for _, name := range metricNames(meta.Metrics) {
		fmt.Fprintf(w, "%s\t%.6g\n", name, meta.Metrics[name])
	}
	fmt.Fprintf(w, "steps\t%d (%d rejected, %d evaluations)\n", meta.Steps, meta.Rejected, meta.Evaluations)
	fmt.Fprintf(w, "samples\t%d\n", meta.Samples)
	fmt.Fprintf(w, "wall clock\t%.2fs\n", meta.WallClockSeconds)
	fmt.Fprintf(w, "timestamp\t%s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	samples, err := storage.New(dataDir).LoadTrajectory(runID)
	if err != nil {
		return err
	}

	fields := viz.Fields
	if plotField != "" {
		fields = []string{plotField}
	}
	fmt.Printf("run: %s (%d samples)\n\n", runID, len(samples))
	for _, name := range fields {
		chart, err := viz.PlotTrajectory(samples, name, plotWidth, plotHeight)
		if err != nil {
			return err
		}
		fmt.Println(chart)
		fmt.Println()
	}
	return nil
}

// output returns stdout or the --output file.
func output() (io.WriteCloser, error) {
	if outFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outFile)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	w, err := output()
	if err != nil {
		return err
	}
	if err := storage.New(dataDir).ExportCSV(w, args[0]); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	w, err := output()
	if err != nil {
		return err
	}
	if err := storage.New(dataDir).ExportJSON(w, args[0]); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	x, ok := export.Axes[svgX]
	if !ok {
		return fmt.Errorf("unknown x axis %q", svgX)
	}
	y, ok := export.Axes[svgY]
	if !ok {
		return fmt.Errorf("unknown y axis %q", svgY)
	}
	samples, err := storage.New(dataDir).LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}
	if err := export.DefaultChart().WriteSVG(w, samples, x, y); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tMECHANISM\tT0 (K)\tP0 (atm)\tMIXTURE")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%s\n", name, c.Mechanism, c.Temperature, c.Pressure/kinetics.OneAtm, c.MixtureLabel())
	}
	return w.Flush()
}

func listMechanisms(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSPECIES\tREACTIONS\tDESCRIPTION")
	for _, name := range kinetics.BuiltinNames() {
		m, err := kinetics.Builtin(name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, len(m.Species), len(m.Reactions), m.Description)
	}
	return w.Flush()
}
