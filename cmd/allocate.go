package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/sparesim/sparesim/sim"
)

var allocateOut string

// AllocationReport is what the allocate command prints: the placement a
// run would start from, in a form that can be pasted under `allocation:`.
type AllocationReport struct {
	MissionCapableAircraft int            `yaml:"mission_capable_aircraft"`
	UnallocatedParts       int            `yaml:"unallocated_parts"`
	Allocation             sim.Allocation `yaml:"allocation"`
}

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Print the initial allocation a scenario starts from",
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
		report, err := buildAllocationReport(sc)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := writeTo(v.GetString("out"), cmd.OutOrStdout(), func(w io.Writer) error {
			return writeYAML(w, report)
		}); err != nil {
			logrus.Fatalf("allocation report: %v", err)
		}
	},
}

func buildAllocationReport(sc Scenario) (AllocationReport, error) {
	alloc, err := sc.allocation()
	if err != nil {
		return AllocationReport{}, err
	}
	if err := alloc.Validate(sc.Config); err != nil {
		return AllocationReport{}, err
	}
	return AllocationReport{
		MissionCapableAircraft: alloc.AircraftWithParts(),
		UnallocatedParts:       sc.TotalParts - alloc.AllocatedParts(),
		Allocation:             alloc,
	}, nil
}

func init() {
	addScenarioFlags(allocateCmd.Flags())
	allocateCmd.Flags().StringVar(&allocateOut, "out", "-", "Allocation YAML destination (- for stdout)")

	rootCmd.AddCommand(allocateCmd)
}
