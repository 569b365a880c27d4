package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/sparesim/sparesim/sim/trace"
)

// FleetConfig groups Fleet-stage parameters.
type FleetConfig struct {
	Duration DistSpec `yaml:"duration"` // Fleet-stage duration distribution
	Stagger  Stagger  `yaml:"stagger"`  // multiplier on initial Fleet durations
}

// DepotConfig groups Depot-stage parameters.
type DepotConfig struct {
	Capacity int      `yaml:"capacity"` // identical repair machines (must be > 0)
	Duration DistSpec `yaml:"duration"` // Depot-stage duration distribution
	Stagger  Stagger  `yaml:"stagger"`  // multiplier on initial Depot durations
}

// CondemnConfig groups condemnation and replacement parameters.
type CondemnConfig struct {
	Cycle         int     `yaml:"cycle"`          // cycle count at which a part is retired (>= 2)
	DepotFraction float64 `yaml:"depot_fraction"` // share of a normal Depot duration a condemned part spends
	OrderLag      float64 `yaml:"order_lag"`      // days from condemnation to replacement arrival
}

// InitConfig is the requested initial placement of the parts that are not
// installed on an aircraft. The installed count follows from the
// mission-capable rate.
type InitConfig struct {
	PartsInDepot      int `yaml:"parts_in_depot"`
	PartsInConditionF int `yaml:"parts_in_condition_f"`
	PartsInConditionA int `yaml:"parts_in_condition_a"`
}

// OutputConfig groups what the engine records besides the cycle logs.
type OutputConfig struct {
	WIPInterval float64 `yaml:"wip_interval"` // days between WIP snapshots (default 5)
	TraceLevel  string  `yaml:"trace_level"`  // "none" (default) or "events"

	// Statistics ignore the first WarmupDays and the last ClosingDays of
	// the horizon. The t=0 cohort starts in lock-step and skews early days.
	WarmupDays  float64 `yaml:"warmup_days"`
	ClosingDays float64 `yaml:"closing_days"`
}

// Config is the full parameter set for one engine run.
type Config struct {
	Seed               int64         `yaml:"seed"`
	Horizon            float64       `yaml:"horizon"` // sim_time in days; events after it are discarded
	TotalParts         int           `yaml:"total_parts"`
	TotalAircraft      int           `yaml:"total_aircraft"`
	MissionCapableRate float64       `yaml:"mission_capable_rate"`
	InstallDuration    float64       `yaml:"install_duration"`
	Fleet              FleetConfig   `yaml:"fleet"`
	Depot              DepotConfig   `yaml:"depot"`
	Condemn            CondemnConfig `yaml:"condemn"`
	Init               InitConfig    `yaml:"init"`
	Output             OutputConfig  `yaml:"output"`
}

const defaultWIPInterval = 5.0

// DefaultConfig returns a small, runnable configuration.
func DefaultConfig() Config {
	return Config{
		Seed:               42,
		Horizon:            1000,
		TotalParts:         35,
		TotalAircraft:      30,
		MissionCapableRate: 0.8,
		Fleet: FleetConfig{
			Duration: DistSpec{Type: DistNormal, Params: map[string]float64{"mean": 300, "std_dev": 30}},
			Stagger:  Stagger{Enabled: true, Min: 0.01, Max: 1.0},
		},
		Depot: DepotConfig{
			Capacity: 5,
			Duration: DistSpec{Type: DistNormal, Params: map[string]float64{"mean": 45, "std_dev": 5}},
			Stagger:  Stagger{Enabled: true, Min: 0.01, Max: 1.0},
		},
		Condemn: CondemnConfig{Cycle: 20, DepotFraction: 0.1, OrderLag: 60},
		Init:    InitConfig{PartsInDepot: 5, PartsInConditionF: 3, PartsInConditionA: 3},
		Output:  OutputConfig{WIPInterval: defaultWIPInterval, TraceLevel: string(trace.TraceLevelNone)},
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Horizon < 0 || math.IsNaN(c.Horizon) || math.IsInf(c.Horizon, 0) {
		errs = append(errs, fmt.Errorf("horizon must be a finite value >= 0, got %v", c.Horizon))
	}
	if c.TotalParts < 0 {
		errs = append(errs, fmt.Errorf("total_parts must be >= 0, got %d", c.TotalParts))
	}
	if c.TotalAircraft < 0 {
		errs = append(errs, fmt.Errorf("total_aircraft must be >= 0, got %d", c.TotalAircraft))
	}
	if c.MissionCapableRate < 0 || c.MissionCapableRate > 1 {
		errs = append(errs, fmt.Errorf("mission_capable_rate must be in [0, 1], got %v", c.MissionCapableRate))
	}
	if c.InstallDuration < 0 {
		errs = append(errs, fmt.Errorf("install_duration must be >= 0, got %v", c.InstallDuration))
	}
	if _, err := NewDurationSampler(c.Fleet.Duration); err != nil {
		errs = append(errs, fmt.Errorf("fleet.duration: %w", err))
	}
	if err := c.Fleet.Stagger.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("fleet.stagger: %w", err))
	}
	if c.Depot.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("depot.capacity must be > 0, got %d", c.Depot.Capacity))
	}
	if _, err := NewDurationSampler(c.Depot.Duration); err != nil {
		errs = append(errs, fmt.Errorf("depot.duration: %w", err))
	}
	if err := c.Depot.Stagger.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("depot.stagger: %w", err))
	}
	if c.Condemn.Cycle < 2 {
		errs = append(errs, fmt.Errorf("condemn.cycle must be >= 2, got %d", c.Condemn.Cycle))
	}
	if c.Condemn.DepotFraction < 0 {
		errs = append(errs, fmt.Errorf("condemn.depot_fraction must be >= 0, got %v", c.Condemn.DepotFraction))
	}
	if c.Condemn.OrderLag < 0 {
		errs = append(errs, fmt.Errorf("condemn.order_lag must be >= 0, got %v", c.Condemn.OrderLag))
	}
	if c.Init.PartsInDepot < 0 || c.Init.PartsInConditionF < 0 || c.Init.PartsInConditionA < 0 {
		errs = append(errs, fmt.Errorf("init part counts must be >= 0, got depot=%d condition_f=%d condition_a=%d",
			c.Init.PartsInDepot, c.Init.PartsInConditionF, c.Init.PartsInConditionA))
	}
	if c.Depot.Capacity > 0 && c.Init.PartsInDepot > c.Depot.Capacity {
		errs = append(errs, fmt.Errorf("init.parts_in_depot (%d) exceeds depot.capacity (%d)",
			c.Init.PartsInDepot, c.Depot.Capacity))
	}
	if c.Output.WIPInterval < 0 {
		errs = append(errs, fmt.Errorf("output.wip_interval must be >= 0, got %v", c.Output.WIPInterval))
	}
	if c.Output.WarmupDays < 0 || c.Output.ClosingDays < 0 ||
		math.IsNaN(c.Output.WarmupDays) || math.IsNaN(c.Output.ClosingDays) {
		errs = append(errs, fmt.Errorf("output.warmup_days and output.closing_days must be >= 0, got %v and %v",
			c.Output.WarmupDays, c.Output.ClosingDays))
	} else if c.Output.WarmupDays+c.Output.ClosingDays > c.Horizon {
		errs = append(errs, fmt.Errorf("output.warmup_days + output.closing_days (%v) exceeds horizon (%v)",
			c.Output.WarmupDays+c.Output.ClosingDays, c.Horizon))
	}
	if !trace.IsValidTraceLevel(c.Output.TraceLevel) {
		errs = append(errs, fmt.Errorf("output.trace_level must be %q or %q, got %q",
			trace.TraceLevelNone, trace.TraceLevelEvents, c.Output.TraceLevel))
	}
	return errors.Join(errs...)
}

func (c Config) wipInterval() float64 {
	if c.Output.WIPInterval <= 0 {
		return defaultWIPInterval
	}
	return c.Output.WIPInterval
}

// AnalysisWindow returns the [start, end] span statistics are computed over.
func (c Config) AnalysisWindow() (start, end float64) {
	return c.Output.WarmupDays, c.Horizon - c.Output.ClosingDays
}
