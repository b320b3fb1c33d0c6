// Command chdrsim drives CHDR bus-functional-model scenarios from the
// command line: run a YAML-described scenario, or sweep stall probabilities
// and chart the resulting throughput.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "chdrsim",
	Short: "CHDR packet protocol simulator harness",
	Long: `chdrsim exercises the CHDR packet codec and bus functional model:
loopback traffic over a simulated flow-controlled word stream, with
configurable bus width and stall behavior.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
