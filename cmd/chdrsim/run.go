package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mainland/chdrsim/sim/chdr/scenario"
)

var scenarioPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scenario and report the outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logrus.WithField("command", "run")
		sc := &scenario.DefaultScenario
		if scenarioPath != "" {
			var err error
			sc, err = scenario.Load(scenarioPath)
			if err != nil {
				return err
			}
		}
		log.WithFields(logrus.Fields{
			"scenario":  sc.Name,
			"bus_width": sc.BusWidth,
			"packets":   sc.NumPackets,
		}).Info("starting scenario")
		report, err := scenario.Run(sc, log)
		if err != nil {
			return err
		}
		if report.Mismatches > 0 || report.RxErrors > 0 {
			return fmt.Errorf("scenario %q failed: %d mismatches, %d receive errors",
				sc.Name, report.Mismatches, report.RxErrors)
		}
		log.WithFields(logrus.Fields{
			"sent":     report.Sent,
			"received": report.Received,
			"elapsed":  report.Elapsed,
		}).Info("scenario complete")
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario YAML file (defaults built in)")
}
