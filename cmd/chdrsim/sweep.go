package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mainland/chdrsim/sim/chdr/scenario"
)

var (
	sweepOut      string
	sweepBusWidth int
	sweepPackets  int
	sweepStep     int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep slave stall probability and chart packet throughput",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logrus.WithField("command", "sweep")

		var points plotter.XYs
		// probability 100 closes the gate permanently, so stop short of it
		for prob := 0; prob < 100; prob += sweepStep {
			sc := scenario.DefaultScenario
			sc.Name = "sweep"
			sc.BusWidth = sweepBusWidth
			sc.NumPackets = sweepPackets
			sc.SlaveStallProb = prob
			report, err := scenario.Run(&sc, log)
			if err != nil {
				return err
			}
			perSecond := float64(report.Received) / report.Elapsed.Seconds()
			log.WithFields(logrus.Fields{
				"stall_prob":  prob,
				"packets_sec": perSecond,
			}).Info("sweep point")
			points = append(points, plotter.XY{X: float64(prob), Y: perSecond})
		}

		p := plot.New()
		p.Title.Text = "CHDR loopback throughput vs. slave stall probability"
		p.X.Label.Text = "stall probability (%)"
		p.Y.Label.Text = "packets per simulated second"
		line, err := plotter.NewLine(points)
		if err != nil {
			return err
		}
		p.Add(line, plotter.NewGrid())
		return p.Save(6*vg.Inch, 4*vg.Inch, sweepOut)
	},
}

func init() {
	sweepCmd.Flags().StringVarP(&sweepOut, "out", "o", "sweep.png", "output chart file")
	sweepCmd.Flags().IntVar(&sweepBusWidth, "bus-width", 64, "bus width in bits")
	sweepCmd.Flags().IntVar(&sweepPackets, "packets", 200, "packets per sweep point")
	sweepCmd.Flags().IntVar(&sweepStep, "step", 5, "stall probability step")
}
