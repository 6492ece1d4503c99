package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/polarsim/internal/analysis"
	"github.com/san-kum/polarsim/internal/config"
	"github.com/san-kum/polarsim/internal/experiment"
	"github.com/san-kum/polarsim/internal/export"
	"github.com/san-kum/polarsim/internal/metrics"
	"github.com/san-kum/polarsim/internal/optim"
	"github.com/san-kum/polarsim/internal/scene"
	"github.com/san-kum/polarsim/internal/sim"
	"github.com/san-kum/polarsim/internal/storage"
	"github.com/san-kum/polarsim/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir     string
	logLevel    string
	configFile  string
	dt          float64
	frames      int
	seed        int64
	workers     int
	particles   int
	recordEvery int
	noSave      bool
	exportOut   string
	verifyRuns  []int
	benchFrames int
	svgOut      string
	perturb     float64
	sweepParams []string
	sweepMetric string

	logger *log.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "polarsim",
		Short: "polarity particle and soft body simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				Prefix:          "polarsim",
				ReportTimestamp: true,
				TimeFormat:      time.Kitchen,
			})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// no command: pick a scene interactively
			return runPicker()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".polarsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	sceneFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&configFile, "config", "", "scene file (yaml)")
		c.Flags().Float64Var(&dt, "dt", config.DefaultDt, "frame delta in seconds")
		c.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of frames")
		c.Flags().Int64Var(&seed, "seed", 1, "random seed for particle placement")
		c.Flags().IntVar(&workers, "workers", 0, "body worker pool size (0 = NumCPU)")
		c.Flags().IntVar(&particles, "particles", config.DefaultCount, "generated particle count")
	}

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene headless and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	sceneFlags(runCmd)
	runCmd.Flags().IntVar(&recordEvery, "record-every", 1, "record every n-th frame")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run a scene with the live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	sceneFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list scenes, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	verifyCmd := &cobra.Command{
		Use:   "verify [scene]",
		Short: "check that concurrent runs end bit-for-bit identical",
		Args:  cobra.MaximumNArgs(1),
		RunE:  verifyScene,
	}
	sceneFlags(verifyCmd)
	verifyCmd.Flags().IntSliceVar(&verifyRuns, "runs", []int{1, 2, runtime.NumCPU()}, "worker count of each replica")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark frame throughput",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	benchCmd.Flags().IntVar(&benchFrames, "frames", 200, "frames per measurement")

	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the kinetic energy series as svg")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scene]",
		Short: "run a scene and draw its final frame as svg",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshotScene,
	}
	sceneFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "dominant oscillation frequency of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrumRun,
	}

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [scene]",
		Short: "estimate how fast nearby particle states diverge",
		Args:  cobra.MaximumNArgs(1),
		RunE:  lyapunovScene,
	}
	sceneFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&perturb, "perturb", 1e-8, "initial displacement of particle 0")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "grid search scene parameters against a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScene,
	}
	sceneFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVarP(&sweepParams, "param", "p", nil, "name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVarP(&sweepMetric, "metric", "m", "penetration", "metric to minimise")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, presetsCmd, verifyCmd, benchCmd,
		snapshotCmd, spectrumCmd, lyapunovCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func sceneName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "default"
}

// loadScene resolves the preset, then the config file, then any flag the
// user set explicitly.
func loadScene(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := experiment.NewRegistry().Get(sceneName(args))
	if err != nil {
		return nil, err
	}

	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("particles") {
		cfg.Particles.Count = particles
		cfg.Particles.Points = nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd, args)
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	exp := experiment.New(cfg, logger)
	if err := exp.Setup(reg.DefaultMetrics(cfg), recordEvery); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("running", "scene", cfg.Name, "frames", cfg.Frames, "particles", cfg.ParticleCount(), "bodies", len(cfg.Bodies))
	out, runErr := exp.Run(ctx)
	if runErr != nil {
		logger.Error("run stopped", "err", runErr)
		if out == nil || out.Result == nil {
			return runErr
		}
	}

	res := out.Result
	fmt.Printf("completed in %v\n", out.Elapsed)
	fmt.Printf("frames: %d (skipped %d), simulated %.3fs\n", res.Frames, res.Skipped, res.Time)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(exp.Metadata(out), out.Rows)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(res.Metrics) {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, res.Metrics[name])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	return runErr
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// liveLogger keeps log output off the terminal the view is drawing on.
func liveLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: logger.GetLevel()})
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	sc, err := scene.Build(cfg)
	if err != nil {
		return err
	}

	m := viz.NewModel(sc.NewSimulator(sim.WithLogger(liveLogger())), cfg.Name)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}

func runPicker() error {
	reg := experiment.NewRegistry()
	build := func(name string) (*sim.Simulator, error) {
		cfg, err := reg.Get(name)
		if err != nil {
			return nil, err
		}
		sc, err := scene.Build(cfg)
		if err != nil {
			return nil, err
		}
		return sc.NewSimulator(sim.WithLogger(liveLogger())), nil
	}

	final, err := tea.NewProgram(viz.NewPicker(reg.Names(), reg.Info(), build), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if p, ok := final.(viz.Picker); ok {
		if live, ok := p.Live(); ok && live.Err() != nil {
			return live.Err()
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tFRAMES\tDT\tPARTICLES\tBODIES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Dt,
			run.Particles,
			run.Bodies,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	rows, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(rows))

	rec := metrics.Recorder{Rows: rows}
	series := []struct {
		caption string
		col     func(metrics.Row) float64
	}{
		{"kinetic energy", func(r metrics.Row) float64 { return r.Kinetic }},
		{"particle momentum |p|", func(r metrics.Row) float64 { return r.Momentum.Len() }},
		{"max speed", func(r metrics.Row) float64 { return r.MaxSpeed }},
		{"residual penetration", func(r metrics.Row) float64 { return r.Penetration }},
	}

	for _, s := range series {
		graph := asciigraph.Plot(rec.Series(s.col),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgOut != "" {
		doc := export.SeriesToSVG(rec.Series(series[0].col), 800, 300, string(viz.CurrentTheme.Primary))
		if err := export.WriteFile(os.Stdout, svgOut, doc); err != nil {
			return err
		}
		logger.Info("wrote plot", "path", svgOut)
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	if exportOut == "" {
		return storage.WriteJSON(os.Stdout, *meta, rows)
	}
	if err := storage.ExportJSON(exportOut, *meta, rows); err != nil {
		return err
	}
	logger.Info("exported", "run", runID, "path", exportOut)
	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()

	if len(args) == 1 {
		cfg, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tPARTICLES\tBODIES\tDESCRIPTION")
	for _, name := range reg.Names() {
		cfg, _ := reg.Get(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, cfg.ParticleCount(), len(cfg.Bodies), reg.Info()[name])
	}
	return w.Flush()
}

func verifyScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	if len(verifyRuns) < 2 {
		return fmt.Errorf("verify needs at least two runs, got %d", len(verifyRuns))
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("verifying", "scene", cfg.Name, "frames", cfg.Frames, "runs", verifyRuns)
	v, err := experiment.Verify(ctx, cfg, verifyRuns)
	if err != nil {
		return err
	}

	if !v.Identical() {
		return fmt.Errorf("runs diverged: %d of %d values differ, first at index %d", v.Mismatches, v.Positions, v.First)
	}
	fmt.Printf("%d runs x %d frames identical (%d values compared)\n", v.Runs, v.Frames, v.Positions)
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	base, err := reg.Get(sceneName(args))
	if err != nil {
		return err
	}

	counts := []int{100, 300, 600, 1200}
	pools := []int{1, runtime.NumCPU()}

	fmt.Printf("benchmarking %s\n\n", base.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tWORKERS\tFRAMES\tTIME\tFRAMES/SEC\tPENETRATION")

	for _, n := range counts {
		for _, p := range pools {
			cfg := base.Clone()
			cfg.Frames = benchFrames
			cfg.Workers = p
			cfg.Particles.Count = n
			cfg.Particles.Points = nil

			exp := experiment.New(cfg, logger)
			pen := metrics.NewPenetration()
			if err := exp.Setup(nil, benchFrames); err != nil {
				return err
			}
			exp.Simulator().AddMetric(pen)

			out, err := exp.Run(context.Background())
			if err != nil {
				return err
			}

			fps := float64(out.Result.Frames) / out.Elapsed.Seconds()
			fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\t%.2e\n",
				n, p, out.Result.Frames, out.Elapsed.Round(time.Millisecond), fps, pen.Value())
		}
	}

	return w.Flush()
}

func snapshotScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, logger)
	if err := exp.Setup(nil, cfg.Frames); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	out, err := exp.Run(ctx)
	if err != nil && (out == nil || out.Result == nil) {
		return err
	}
	if err != nil {
		logger.Warn("drawing the last good frame", "err", err)
	}

	doc := export.SnapshotSVG(out.Result.Final, 120, 40, 4)
	return export.WriteFile(os.Stdout, svgOut, doc)
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rows, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return fmt.Errorf("run %s has %d samples", args[0], len(rows))
	}

	rec := metrics.Recorder{Rows: rows}
	sampleDt := rows[1].Time - rows[0].Time
	columns := []struct {
		name string
		col  func(metrics.Row) float64
	}{
		{"kinetic", func(r metrics.Row) float64 { return r.Kinetic }},
		{"max_speed", func(r metrics.Row) float64 { return r.MaxSpeed }},
		{"penetration", func(r metrics.Row) float64 { return r.Penetration }},
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tFREQUENCY\tPERIOD")
	for _, c := range columns {
		f, err := analysis.DominantFrequency(rec.Series(c.col), sampleDt)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.4g Hz\t%.4g s\n", c.name, f, 1/f)
	}
	return w.Flush()
}

func lyapunovScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	lambda, err := analysis.LyapunovExponent(ctx, cfg, perturb, cfg.Frames)
	if err != nil {
		return err
	}

	fmt.Printf("largest lyapunov exponent: %.6g /s\n", lambda)
	if lambda > 0 {
		fmt.Printf("nearby states diverge; doubling time %.3gs\n", math.Ln2/lambda)
	}
	return nil
}

func parseSweep(args []string) ([]string, [][]float64, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("no --param given (available: %v)", optim.ParamNames())
	}
	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("bad --param %q, want name=v1,v2", arg)
		}
		var vals []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("param %s: %w", name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func sweepScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	names, ranges, err := parseSweep(sweepParams)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch(names, ranges, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, trials, err := g.Search(ctx, cfg, sweepMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(sweepMetric))
	for _, t := range trials {
		cols := make([]string, len(names))
		for i, n := range names {
			cols[i] = strconv.FormatFloat(t.Params[n], 'g', -1, 64)
		}
		val := fmt.Sprintf("%.6g", t.Value)
		if t.Err != nil {
			val = "failed: " + t.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), val)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g at %v\n", sweepMetric, best.Value, best.Params)
	return nil
}
