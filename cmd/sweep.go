package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	sim "github.com/sparesim/sparesim/sim"
	"github.com/sparesim/sparesim/sim/resultstore"
	"github.com/sparesim/sparesim/sim/trace"
)

var (
	sweepReplications int // Seeds per grid point
	sweepParallel     int // Engines run concurrently
	sweepOut          string
	sweepDB           string
)

// SweepPoint aggregates the replications of one (capacity, parts) pair.
// Every mean is taken over the analysis window.
type SweepPoint struct {
	Capacity         int              `yaml:"capacity"`
	TotalParts       int              `yaml:"total_parts"`
	Init             sim.InitConfig   `yaml:"init"`
	Replications     int              `yaml:"replications"`
	MeanMicap        float64          `yaml:"mean_micap"`
	MeanMicapNonZero float64          `yaml:"mean_micap_non_zero"`
	MeanFleet        float64          `yaml:"mean_fleet"`
	MeanConditionF   float64          `yaml:"mean_condition_f"`
	MeanDepot        float64          `yaml:"mean_depot"`
	MeanConditionA   float64          `yaml:"mean_condition_a"`
	MeanCondemned    float64          `yaml:"mean_condemned"`
	MaxMicap         int              `yaml:"max_micap"`
	WIP              []sim.WIPAverage `yaml:"wip"`
	ReplicationSeeds []int64          `yaml:"replication_seeds"`
	StoredRunIDs     []string         `yaml:"stored_run_ids,omitempty"`
}

// BestConfig names the grid point with the lowest mean MICAP in a group.
type BestConfig struct {
	Capacity   int     `yaml:"capacity"`
	TotalParts int     `yaml:"total_parts"`
	MeanMicap  float64 `yaml:"mean_micap"`
}

// SweepReport is the output of the sweep command. Points are ordered by
// capacity, then by parts, following the order the axes were given in.
type SweepReport struct {
	BaseSeed      int64        `yaml:"base_seed"`
	Horizon       float64      `yaml:"horizon"`
	AnalysisStart float64      `yaml:"analysis_start"`
	AnalysisEnd   float64      `yaml:"analysis_end"`
	Points        []SweepPoint `yaml:"points"`

	Best                *BestConfig  `yaml:"best,omitempty"`
	BestPartsByCapacity []BestConfig `yaml:"best_parts_by_capacity,omitempty"`
	BestCapacityByParts []BestConfig `yaml:"best_capacity_by_parts,omitempty"`
}

// sweepSpec describes one sweep: every capacity times every parts count
// times every replication. An empty axis uses the scenario's value. With a
// parts axis each point re-derives its initial placement with
// sim.SpareInit, otherwise the scenario's init counts are kept.
type sweepSpec struct {
	Capacities   []int
	Parts        []int
	Replications int
	Parallel     int
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run replicated simulations over a grid of depot capacities and part counts",
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
		capacities, err := intList(v, "capacities")
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		parts, err := intList(v, "parts")
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		spec := sweepSpec{
			Capacities:   capacities,
			Parts:        parts,
			Replications: v.GetInt("replications"),
			Parallel:     v.GetInt("parallel"),
		}
		report, results, err := runSweep(cmd.Context(), sc, spec)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if path := v.GetString("db"); path != "" {
			if err := storeSweep(cmd.Context(), path, sc, report, results); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		if err := writeTo(v.GetString("out"), cmd.OutOrStdout(), func(w io.Writer) error {
			return writeYAML(w, report)
		}); err != nil {
			logrus.Fatalf("sweep report: %v", err)
		}
	},
}

// intList reads an integer list from a flag or from its environment
// variable. Environment values are comma or space separated.
func intList(v *viper.Viper, key string) ([]int, error) {
	raw := v.Get(key)
	if s, ok := raw.(string); ok {
		fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
		raw = fields
	}
	if raw == nil {
		return nil, nil
	}
	out, err := cast.ToIntSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}

// runSweep runs every (capacity, parts, replication) engine, at most
// spec.Parallel at a time. Replication r uses seed base+r so grid points
// are compared on common random numbers. The first engine error cancels
// the rest. results is indexed [point][replication].
func runSweep(ctx context.Context, sc Scenario, spec sweepSpec) (*SweepReport, [][]*sim.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(spec.Capacities) == 0 {
		spec.Capacities = []int{sc.Depot.Capacity}
	}
	partsAxis := len(spec.Parts) > 0
	if !partsAxis {
		spec.Parts = []int{sc.TotalParts}
	} else if sc.Allocation != nil {
		return nil, nil, errors.New("a parts axis cannot be combined with an explicit allocation")
	}
	if spec.Replications <= 0 {
		return nil, nil, fmt.Errorf("replications must be > 0, got %d", spec.Replications)
	}

	type gridPoint struct {
		capacity, parts int
		placement       sim.InitConfig
	}
	var grid []gridPoint
	for _, c := range spec.Capacities {
		for _, n := range spec.Parts {
			placement := sc.Init
			if partsAxis {
				placement = sim.SpareInit(n, sc.TotalAircraft, sc.MissionCapableRate, c)
			}
			grid = append(grid, gridPoint{c, n, placement})
		}
	}

	results := make([][]*sim.Result, len(grid))
	g, gCtx := errgroup.WithContext(ctx)
	if spec.Parallel > 0 {
		g.SetLimit(spec.Parallel)
	}
	for pi, gp := range grid {
		results[pi] = make([]*sim.Result, spec.Replications)
		for r := 0; r < spec.Replications; r++ {
			cfg := sc.Config
			cfg.Depot.Capacity = gp.capacity
			cfg.TotalParts = gp.parts
			cfg.Init = gp.placement
			cfg.Seed = sc.Seed + int64(r)
			cfg.Output.TraceLevel = string(trace.TraceLevelNone)
			g.Go(func() error {
				alloc, err := sc.allocationFor(cfg)
				if err != nil {
					return fmt.Errorf("capacity %d parts %d seed %d: %w", gp.capacity, gp.parts, cfg.Seed, err)
				}
				res, err := sim.SimulateWith(gCtx, cfg, alloc, nil)
				if err != nil {
					return fmt.Errorf("capacity %d parts %d seed %d: %w", gp.capacity, gp.parts, cfg.Seed, err)
				}
				results[pi][r] = res
				logrus.Debugf("sweep: capacity %d parts %d seed %d done (%d events)",
					gp.capacity, gp.parts, cfg.Seed, res.EventCounts["total"])
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	start, end := sc.AnalysisWindow()
	report := &SweepReport{BaseSeed: sc.Seed, Horizon: sc.Horizon, AnalysisStart: start, AnalysisEnd: end}
	for pi, gp := range grid {
		pt := aggregatePoint(gp.capacity, gp.parts, results[pi])
		pt.Init = gp.placement
		report.Points = append(report.Points, pt)
	}
	report.rankBest(spec.Capacities, spec.Parts)
	return report, results, nil
}

func aggregatePoint(capacity, parts int, runs []*sim.Result) SweepPoint {
	pt := SweepPoint{Capacity: capacity, TotalParts: parts, Replications: len(runs)}
	wip := make([][]sim.WIPSnapshot, 0, len(runs))
	var micap, micapNZ, condemned []float64
	for _, res := range runs {
		sum := sim.Summarize(res)
		micap = append(micap, sum.Micap.AverageWithZeros)
		micapNZ = append(micapNZ, sum.Micap.AverageNonZero)
		condemned = append(condemned, float64(sum.Condemned))
		pt.MaxMicap = max(pt.MaxMicap, sum.Micap.Max)
		pt.ReplicationSeeds = append(pt.ReplicationSeeds, res.Seed)
		wip = append(wip, res.AnalysisWIP())
	}
	pt.MeanMicap = sim.CalculateMean(micap)
	pt.MeanMicapNonZero = sim.CalculateMean(micapNZ)
	pt.MeanCondemned = sim.CalculateMean(condemned)
	pt.WIP = sim.AverageWIP(wip)

	var fleet, condF, depot, condA []float64
	for _, w := range pt.WIP {
		fleet = append(fleet, w.Fleet)
		condF = append(condF, w.ConditionF)
		depot = append(depot, w.Depot)
		condA = append(condA, w.ConditionA)
	}
	pt.MeanFleet = sim.CalculateMean(fleet)
	pt.MeanConditionF = sim.CalculateMean(condF)
	pt.MeanDepot = sim.CalculateMean(depot)
	pt.MeanConditionA = sim.CalculateMean(condA)
	return pt
}

// rankBest fills the best-configuration tables. Ties go to the point
// listed first.
func (r *SweepReport) rankBest(capacities, parts []int) {
	lowest := func(keep func(SweepPoint) bool) *BestConfig {
		var best *BestConfig
		for _, pt := range r.Points {
			if !keep(pt) {
				continue
			}
			if best == nil || pt.MeanMicap < best.MeanMicap {
				best = &BestConfig{Capacity: pt.Capacity, TotalParts: pt.TotalParts, MeanMicap: pt.MeanMicap}
			}
		}
		return best
	}
	r.Best = lowest(func(SweepPoint) bool { return true })
	r.BestPartsByCapacity = nil
	for _, c := range capacities {
		if b := lowest(func(pt SweepPoint) bool { return pt.Capacity == c }); b != nil {
			r.BestPartsByCapacity = append(r.BestPartsByCapacity, *b)
		}
	}
	r.BestCapacityByParts = nil
	for _, n := range parts {
		if b := lowest(func(pt SweepPoint) bool { return pt.TotalParts == n }); b != nil {
			r.BestCapacityByParts = append(r.BestCapacityByParts, *b)
		}
	}
}

// storeSweep saves every run of a sweep, labelled by its grid point, and
// records the run ids on the report.
func storeSweep(ctx context.Context, path string, sc Scenario, report *SweepReport, results [][]*sim.Result) error {
	store, err := resultstore.Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	for pi := range report.Points {
		pt := &report.Points[pi]
		for _, res := range results[pi] {
			cfg := sc.Config
			cfg.Depot.Capacity = pt.Capacity
			cfg.TotalParts = pt.TotalParts
			cfg.Init = pt.Init
			cfg.Seed = res.Seed
			label := fmt.Sprintf("sweep capacity=%d parts=%d", pt.Capacity, pt.TotalParts)
			id, err := store.SaveRun(ctx, label, cfg, res)
			if err != nil {
				return fmt.Errorf("store capacity %d parts %d seed %d: %w", pt.Capacity, pt.TotalParts, res.Seed, err)
			}
			pt.StoredRunIDs = append(pt.StoredRunIDs, id)
		}
	}
	return nil
}

func init() {
	addScenarioFlags(sweepCmd.Flags())
	sweepCmd.Flags().IntSlice("capacities", nil, "Depot capacities to sweep (defaults to the scenario's capacity)")
	sweepCmd.Flags().IntSlice("parts", nil, "Total part counts to sweep (defaults to the scenario's total_parts)")
	sweepCmd.Flags().IntVar(&sweepReplications, "replications", 5, "Replications (seeds) per grid point")
	sweepCmd.Flags().IntVar(&sweepParallel, "parallel", 4, "Maximum engines running at once")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "-", "Sweep report YAML destination (- for stdout)")
	sweepCmd.Flags().StringVar(&sweepDB, "db", "", "SQLite file to store every run in")

	rootCmd.AddCommand(sweepCmd)
}
