package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/scmodel/internal/analysis"
	"github.com/san-kum/scmodel/internal/config"
	"github.com/san-kum/scmodel/internal/experiment"
	"github.com/san-kum/scmodel/internal/export"
	"github.com/san-kum/scmodel/internal/logging"
	"github.com/san-kum/scmodel/internal/storage"
	"github.com/san-kum/scmodel/internal/viz"
)

const defaultPreset = "adiabatic_contraction"

var (
	dataDir    string
	verbose    bool
	configFile string
	fromRun    string
	preset     string
	iterations int
	tolerance  float64
	reverse    bool
	noSave     bool
	output     string
	initPreset string
	plotWidth  int
	plotHeight int
	svgWidth   int
	svgHeight  int

	env config.Env
)

func main() {
	var err error
	env, err = config.ParseEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:          "scmodel",
		Short:        "self-consistent galaxy model iteration",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", env.DataDir, "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "iterate a model and save the run",
		Args:  cobra.NoArgs,
		RunE:  runModel,
	}
	addModelFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "iterate a model with live progress",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addModelFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot density profiles and convergence",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 15, "plot height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the final profile to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export density profile and convergence charts to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file prefix (default run id)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "chart width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 500, "chart height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCOMPONENTS\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(cfg.Components), cfg.Description)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a preset as a config file (.yaml or .toml)",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&initPreset, "preset", defaultPreset, "preset to write")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare results for stored and reversed component order",
		Args:  cobra.NoArgs,
		RunE:  compareOrder,
	}
	addModelFlags(compareCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, presetsCmd, initCmd, compareCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path (yaml or toml)")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "use preset configuration")
	cmd.Flags().StringVar(&fromRun, "from", "", "reuse the configuration stored with a run")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "number of iterations")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "stop once the potential change is below this")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "add components in reverse order")
}

func newLogger() (*log.Logger, error) {
	level, err := logging.ParseLevel(env.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = log.DebugLevel
	}
	return logging.New(os.Stderr, level), nil
}

// loadConfig resolves the model configuration: a config file wins over a
// stored run, which wins over a preset. Explicitly set flags override all.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case fromRun != "":
		c, err := storage.New(dataDir).LoadConfig(fromRun)
		if err != nil {
			return nil, fmt.Errorf("failed to load config of %s: %w", fromRun, err)
		}
		cfg = c
	default:
		name := preset
		if name == "" {
			name = defaultPreset
		}
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if cmd.Flags().Changed("iterations") {
		cfg.Iterations = iterations
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	if cmd.Flags().Changed("reverse") {
		cfg.ReverseOrder = reverse
	}
	return cfg, cfg.Validate()
}

// signalContext is cancelled on interrupt and carries logger.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	return logging.WithLogger(ctx, logger), cancel
}

func newExperiment(ctx context.Context, cfg *config.Config) (*experiment.Experiment, error) {
	exp := experiment.New(cfg, experiment.NewBackend(cfg.Backend, env.Workers))
	if err := exp.Setup(ctx); err != nil {
		return nil, err
	}
	return exp, nil
}

func runModel(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(logger)
	defer cancel()

	exp, err := newExperiment(ctx, cfg)
	if err != nil {
		return err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(result, cfg.Tolerance)

	if noSave {
		return nil
	}
	return saveResult(result, cfg)
}

func saveResult(result *experiment.Result, cfg *config.Config) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(result, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

// remainingIterations estimates how many more iterations would bring the
// potential change below tol at the measured convergence factor.
func remainingIterations(result *experiment.Result, tol float64) (int, bool) {
	if tol <= 0 || result.Converged || len(result.History) == 0 {
		return 0, false
	}
	factor, ok := result.Metrics["convergence_factor"]
	if !ok {
		return 0, false
	}
	n := analysis.IterationsToReach(result.History[len(result.History)-1].Change, tol, factor)
	return n, n >= 0
}

func printSummary(result *experiment.Result, tol float64) {
	status := viz.StatusRunning.Render("MAX ITERATIONS")
	if result.Converged {
		status = viz.StatusConverged.Render("CONVERGED")
	}
	fmt.Println(viz.HeaderStyle.Render(result.Name) + " " + status)
	fmt.Println(viz.KeyValue("Iterations", strconv.Itoa(result.Iterations)))
	fmt.Println(viz.KeyValue("Elapsed", result.Elapsed.String()))
	if n, ok := remainingIterations(result, tol); ok {
		fmt.Println(viz.KeyValue("To tolerance", fmt.Sprintf("~%d more iterations", n)))
	}
	if p := result.Probe; p != nil {
		fmt.Println(viz.KeyValue("Probe density", fmt.Sprintf("%.6e at %v", p.Density, p.Point)))
		fmt.Println(viz.KeyValue("Probe dispersion", fmt.Sprintf("%.4e %.4e %.4e", p.Dispersion[0], p.Dispersion[1], p.Dispersion[2])))
	}
	for _, name := range result.Components {
		if m, ok := result.Masses[name]; ok {
			fmt.Println(viz.KeyValue("Mass "+name, fmt.Sprintf("%.6f", m)))
		}
	}
	fmt.Println("\nmetrics:")
	for _, name := range sortedNames(result.Metrics) {
		fmt.Printf("  %s: %.6e\n", name, result.Metrics[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(logging.Discard())
	defer cancel()

	exp, err := newExperiment(ctx, cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewProgress(cfg.Name, cfg.Iterations, len(cfg.Components)))
	exp.AddObserver(viz.NewObserver(p.Send, exp.Change()))

	var result *experiment.Result
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, runErr = exp.Run(ctx)
		p.Send(viz.DoneMsg{Err: runErr})
	}()

	final, err := p.Run()
	cancel()
	<-done
	if err != nil {
		return err
	}
	if m, ok := final.(viz.Progress); ok && m.Quit() {
		return fmt.Errorf("interrupted")
	}
	if runErr != nil {
		return runErr
	}
	return saveResult(result, cfg)
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tITER\tCONVERGED\tCHANGE\tCOMPONENTS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%.2e\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Iterations,
			run.Converged,
			run.Metrics["potential_change"],
			strings.Join(run.Components, ","),
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
	profile, names, err := st.LoadProfile(runID)
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Name)
	if cfg, err := st.LoadConfig(runID); err == nil && cfg.Description != "" {
		fmt.Printf("description: %s\n", cfg.Description)
	}
	fmt.Printf("iterations: %d\n\n", meta.Iterations)

	if s := viz.PlotProfile(profile, names, plotWidth, plotHeight); s != "" {
		fmt.Println(s)
		fmt.Println()
	}
	if s := viz.PlotPotential(profile, plotWidth, plotHeight); s != "" {
		fmt.Println(s)
		fmt.Println()
	}
	if s := viz.PlotConvergence(changes(history), plotWidth, plotHeight/2); s != "" {
		fmt.Println(s)
	}
	return nil
}

func changes(history []experiment.IterationRecord) []float64 {
	out := make([]float64, len(history))
	for i, rec := range history {
		out[i] = rec.Change
	}
	return out
}

func exportRun(cmd *cobra.Command, args []string) error {
	data, err := storage.New(dataDir).Export(args[0])
	if err != nil {
		return err
	}
	if output == "" {
		return storage.ExportJSONStdout(data)
	}
	return storage.ExportJSON(output, data)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	profile, names, err := storage.New(dataDir).LoadProfile(args[0])
	if err != nil {
		return err
	}
	if len(profile.Radii) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	header := []string{"r", "potential", "vcirc", "total"}
	for _, name := range names {
		header = append(header, "rho_"+name)
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i, r := range profile.Radii {
		row := []string{
			strconv.FormatFloat(r, 'g', 10, 64),
			strconv.FormatFloat(profile.Potential[i], 'g', 10, 64),
			strconv.FormatFloat(profile.CircularVelocity[i], 'g', 10, 64),
			strconv.FormatFloat(profile.Total[i], 'g', 10, 64),
		}
		for _, col := range profile.Components {
			row = append(row, strconv.FormatFloat(col[i], 'g', 10, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	profile, names, err := st.LoadProfile(runID)
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	prefix := output
	if prefix == "" {
		prefix = runID
	}
	files := map[string]string{
		prefix + "_profile.svg":     export.ProfileToSVG(profile, names, svgWidth, svgHeight),
		prefix + "_convergence.svg": export.ConvergenceToSVG(changes(history), svgWidth, svgHeight),
	}
	for _, path := range sortedNames(files) {
		if err := os.WriteFile(path, []byte(files[path]), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(initPreset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", initPreset, config.ListPresets())
	}
	path := args[0]
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s (preset %s)\n", path, initPreset)
	return nil
}

// compareOrder runs the same configuration with the components added in
// stored and in reversed order and reports how far the results differ.
func compareOrder(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	profiles := make([]*analysis.Profile, 2)
	for i, rev := range []bool{false, true} {
		c := *cfg
		c.ReverseOrder = rev
		runCtx := logging.WithLogger(ctx, logger.With("reversed", rev))
		exp, err := newExperiment(runCtx, &c)
		if err != nil {
			return err
		}
		result, err := exp.Run(runCtx)
		if err != nil {
			return err
		}
		if result.Profile == nil {
			return fmt.Errorf("run produced no potential")
		}
		profiles[i] = result.Profile
	}

	dPhi := maxRelDiff(profiles[0].Potential, profiles[1].Potential)
	dRho := maxRelDiff(profiles[0].Total, profiles[1].Total)
	fmt.Printf("comparing component order for %s (%d iterations)\n\n", cfg.Name, cfg.Iterations)
	fmt.Printf("%-20s  %12s\n", "quantity", "max_rel_diff")
	fmt.Println(strings.Repeat("-", 34))
	fmt.Printf("%-20s  %12.3e\n", "potential", dPhi)
	fmt.Printf("%-20s  %12.3e\n", "density", dRho)
	return nil
}

// maxRelDiff is the largest |a-b| / max(|a|, |b|) over paired samples.
func maxRelDiff(a, b []float64) float64 {
	worst := 0.0
	for i := 0; i < len(a) && i < len(b); i++ {
		scale := math.Max(math.Abs(a[i]), math.Abs(b[i]))
		if scale == 0 {
			continue
		}
		worst = math.Max(worst, math.Abs(a[i]-b[i])/scale)
	}
	if len(a) != len(b) {
		return math.Inf(1)
	}
	return worst
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
