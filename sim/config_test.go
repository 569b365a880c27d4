package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Validates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate_ReportsEveryInvalidField(t *testing.T) {
	// GIVEN a config with several independent mistakes
	cfg := DefaultConfig()
	cfg.Horizon = -1
	cfg.Depot.Capacity = 0
	cfg.Condemn.Cycle = 1
	cfg.Output.TraceLevel = "verbose"

	// WHEN validated
	err := cfg.Validate()

	// THEN every mistake is named in the joined error
	require.Error(t, err)
	for _, want := range []string{"horizon", "depot.capacity", "condemn.cycle", "output.trace_level"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestConfigValidate_Table(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"rate above one", func(c *Config) { c.MissionCapableRate = 1.5 }, "mission_capable_rate"},
		{"negative install", func(c *Config) { c.InstallDuration = -0.5 }, "install_duration"},
		{"unknown fleet distribution", func(c *Config) { c.Fleet.Duration.Type = "gamma" }, "fleet.duration"},
		{"normal without std_dev", func(c *Config) { c.Depot.Duration.Params = map[string]float64{"mean": 5} }, "depot.duration"},
		{"stagger min above max", func(c *Config) { c.Fleet.Stagger = Stagger{Enabled: true, Min: 0.9, Max: 0.5} }, "fleet.stagger"},
		{"stagger max above one", func(c *Config) { c.Depot.Stagger = Stagger{Enabled: true, Min: 0.1, Max: 1.5} }, "depot.stagger"},
		{"negative fraction", func(c *Config) { c.Condemn.DepotFraction = -0.1 }, "depot_fraction"},
		{"negative order lag", func(c *Config) { c.Condemn.OrderLag = -1 }, "order_lag"},
		{"depot seed over capacity", func(c *Config) { c.Init.PartsInDepot = c.Depot.Capacity + 1 }, "exceeds depot.capacity"},
		{"negative init count", func(c *Config) { c.Init.PartsInConditionA = -1 }, "init part counts"},
		{"negative warmup", func(c *Config) { c.Output.WarmupDays = -1 }, "output.warmup_days"},
		{"trim longer than horizon", func(c *Config) { c.Output.WarmupDays, c.Output.ClosingDays = 600, 500 }, "exceeds horizon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate_DisabledStaggerIgnoresBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fleet.Stagger = Stagger{Enabled: false, Min: 5, Max: -1}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_WIPIntervalDefaultsToFive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.WIPInterval = 0
	assert.Equal(t, 5.0, cfg.wipInterval())
	cfg.Output.WIPInterval = 2
	assert.Equal(t, 2.0, cfg.wipInterval())
}

func TestConfig_AnalysisWindow(t *testing.T) {
	cfg := DefaultConfig()
	start, end := cfg.AnalysisWindow()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, cfg.Horizon, end)

	cfg.Output.WarmupDays, cfg.Output.ClosingDays = 300, 200
	require.NoError(t, cfg.Validate())
	start, end = cfg.AnalysisWindow()
	assert.Equal(t, 300.0, start)
	assert.Equal(t, 800.0, end)
}
