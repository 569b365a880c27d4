package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	sim "github.com/sparesim/sparesim/sim"
	"github.com/sparesim/sparesim/sim/observe"
	"github.com/sparesim/sparesim/sim/resultstore"
	"github.com/sparesim/sparesim/sim/trace"
)

// envPrefix namespaces environment overrides, e.g. SPARESIM_SEED.
const envPrefix = "SPARESIM"

var (
	logLevel string // Log verbosity level

	// run flags
	scenarioPath    string // Scenario YAML; empty uses built-in defaults
	summaryOut      string // Summary YAML destination; "-" is stdout
	resultOut       string // Full result JSON destination
	traceOut        string // Event trace JSONL destination
	dbPath          string // SQLite result store
	runLabel        string // Label stored with the run
	metricsTextfile string // Prometheus textfile destination
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "sparesim",
	Short: "Discrete-event simulator for repairable aircraft spare parts",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
}

// runCmd executes one simulation using the scenario file plus overrides
// from flags and SPARESIM_* environment variables.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one spare-parts simulation",
	Run: func(cmd *cobra.Command, args []string) {
		v, err := newViper(cmd.Flags())
		if err != nil {
			logrus.Fatalf("flag binding: %v", err)
		}
		sc, err := loadScenario(v.GetString("config"))
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		applyOverrides(v, &sc.Config)

		opts := runOptions{
			SummaryOut:      v.GetString("summary-out"),
			ResultOut:       v.GetString("result-out"),
			TraceOut:        v.GetString("trace-out"),
			DBPath:          v.GetString("db"),
			Label:           v.GetString("label"),
			MetricsTextfile: v.GetString("metrics-textfile"),
		}
		if err := runScenario(cmd.Context(), sc, opts, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// runOptions selects the outputs written after a run.
type runOptions struct {
	SummaryOut      string
	ResultOut       string
	TraceOut        string
	DBPath          string
	Label           string
	MetricsTextfile string
}

// runScenario runs one engine and writes every requested output.
func runScenario(ctx context.Context, sc Scenario, opts runOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.TraceOut != "" {
		sc.Output.TraceLevel = string(trace.TraceLevelEvents)
	} else if sc.Output.TraceLevel == string(trace.TraceLevelEvents) {
		logrus.Warn("trace level is events but no trace destination is set; tracing disabled")
		sc.Output.TraceLevel = string(trace.TraceLevelNone)
	}
	alloc, err := sc.allocation()
	if err != nil {
		return fmt.Errorf("allocation: %w", err)
	}

	var metrics *observe.Metrics
	var obs sim.Observer
	if opts.MetricsTextfile != "" {
		metrics = observe.NewMetrics(map[string]string{"seed": fmt.Sprint(sc.Seed)})
		obs = metrics
	}

	logrus.Infof("Starting simulation: %d parts, %d aircraft, depot capacity %d, horizon %.1f days, seed %d",
		sc.TotalParts, sc.TotalAircraft, sc.Depot.Capacity, sc.Horizon, sc.Seed)
	startTime := time.Now()
	res, err := sim.SimulateWith(ctx, sc.Config, alloc, obs)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	logrus.Infof("Simulated %d events in %v", res.EventCounts["total"], time.Since(startTime))

	sum := sim.Summarize(res)
	if err := writeTo(opts.SummaryOut, stdout, func(w io.Writer) error { return writeSummaryYAML(w, sum) }); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	if opts.ResultOut != "" {
		if err := writeTo(opts.ResultOut, stdout, func(w io.Writer) error { return writeResultJSON(w, res) }); err != nil {
			return fmt.Errorf("result: %w", err)
		}
	}
	if opts.TraceOut != "" {
		if err := writeTo(opts.TraceOut, stdout, res.Trace.WriteEventsJSONL); err != nil {
			return fmt.Errorf("trace: %w", err)
		}
		ts := trace.Summarize(res.Trace)
		logrus.Infof("Trace: %d events, %d depot admissions (%d condemned), mean depot wait %.2f days, max %.2f",
			ts.TotalEvents, ts.Admissions, ts.Condemned, ts.MeanDepotWait, ts.MaxDepotWait)
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(opts.MetricsTextfile); err != nil {
			return err
		}
	}
	if opts.DBPath != "" {
		store, err := resultstore.Open(ctx, opts.DBPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		runID, err := store.SaveRun(ctx, opts.Label, sc.Config, res)
		if err != nil {
			return fmt.Errorf("store run: %w", err)
		}
		logrus.Infof("Stored run %s in %s", runID, store.Path())
	}
	return nil
}

// newViper binds the command's flags to a fresh viper instance that also
// reads SPARESIM_<FLAG> environment variables (dashes become underscores).
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	return v, nil
}

// applyOverrides copies explicitly set flags or environment values over
// the scenario. Unset keys keep the scenario's values.
func applyOverrides(v *viper.Viper, cfg *sim.Config) {
	if v.IsSet("seed") {
		cfg.Seed = v.GetInt64("seed")
	}
	if v.IsSet("horizon") {
		cfg.Horizon = v.GetFloat64("horizon")
	}
	if v.IsSet("total-parts") {
		cfg.TotalParts = v.GetInt("total-parts")
	}
	if v.IsSet("total-aircraft") {
		cfg.TotalAircraft = v.GetInt("total-aircraft")
	}
	if v.IsSet("mission-capable-rate") {
		cfg.MissionCapableRate = v.GetFloat64("mission-capable-rate")
	}
	if v.IsSet("depot-capacity") {
		cfg.Depot.Capacity = v.GetInt("depot-capacity")
	}
	if v.IsSet("trace-level") {
		cfg.Output.TraceLevel = v.GetString("trace-level")
	}
	if v.IsSet("wip-interval") {
		cfg.Output.WIPInterval = v.GetFloat64("wip-interval")
	}
	if v.IsSet("warmup-days") {
		cfg.Output.WarmupDays = v.GetFloat64("warmup-days")
	}
	if v.IsSet("closing-days") {
		cfg.Output.ClosingDays = v.GetFloat64("closing-days")
	}
}

// addScenarioFlags registers the scenario file and override flags shared
// by run and sweep.
func addScenarioFlags(fs *pflag.FlagSet) {
	fs.StringVar(&scenarioPath, "config", "", "Scenario YAML file (defaults are used when empty)")
	fs.Int64("seed", 42, "Master seed for all RNG streams")
	fs.Float64("horizon", 1000, "Simulation horizon in days")
	fs.Int("total-parts", 35, "Total number of parts")
	fs.Int("total-aircraft", 30, "Total number of aircraft")
	fs.Float64("mission-capable-rate", 0.8, "Share of aircraft starting with a part installed")
	fs.Int("depot-capacity", 5, "Number of identical depot repair machines")
	fs.String("trace-level", "none", "Event trace level (none, events); run only writes a trace with --trace-out")
	fs.Float64("wip-interval", 5, "Days between WIP snapshots")
	fs.Float64("warmup-days", 0, "Days at the start of the horizon left out of statistics")
	fs.Float64("closing-days", 0, "Days at the end of the horizon left out of statistics")
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	addScenarioFlags(runCmd.Flags())
	runCmd.Flags().StringVar(&summaryOut, "summary-out", "-", "Summary YAML destination (- for stdout)")
	runCmd.Flags().StringVar(&resultOut, "result-out", "", "Full result JSON destination")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Event trace JSONL destination (enables tracing)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite file to store the run in")
	runCmd.Flags().StringVar(&runLabel, "label", "", "Label stored with the run")
	runCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics in textfile format")

	rootCmd.AddCommand(runCmd)
}
