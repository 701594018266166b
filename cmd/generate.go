// Package cmd implements CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"icc.tech/pcapsmith/internal/capture"
	"icc.tech/pcapsmith/internal/config"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Append synthesized frames from a scenario file to a capture",
	Long: `Append synthesized frames from a scenario file to a capture file.

The capture is created (with its global header) when missing; repeated runs
against the same file append after the last record, continuing its timeline.

Examples:
  pcapsmith generate -f scenario.yml -o out.pcap
  pcapsmith generate -f burst.yml -o out.pcap --link-speed 1G`,
	Run: func(cmd *cobra.Command, args []string) {
		runGenerateCommand()
	},
}

var (
	generateScenarioFile string
	generateOutput       string
	generateLinkSpeed    string
)

func init() {
	generateCmd.Flags().StringVarP(&generateScenarioFile, "file", "f", "",
		"scenario file (required)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "",
		"capture file to append to (required)")
	generateCmd.Flags().StringVar(&generateLinkSpeed, "link-speed", "",
		"default link speed, e.g. 1G or 100M (overrides the scenario's)")
	generateCmd.MarkFlagRequired("file")
	generateCmd.MarkFlagRequired("output")
}

func runGenerateCommand() {
	scenario, err := config.LoadScenario(generateScenarioFile)
	if err != nil {
		exitWithError("invalid scenario", err)
	}
	specs, linkSpeed, err := scenario.FrameSpecs()
	if err != nil {
		exitWithError("invalid scenario", err)
	}
	if generateLinkSpeed != "" {
		if linkSpeed, err = capture.ParseLinkSpeed(generateLinkSpeed); err != nil {
			exitWithError("invalid --link-speed", err)
		}
	}

	lastTs, err := capture.Append(generateOutput, specs, scenario.StartTimeNs, linkSpeed)
	if err != nil {
		exitWithError("generate failed", err)
	}
	fmt.Printf("Appended %d spec(s) to %s, last timestamp %d ns\n",
		len(specs), generateOutput, lastTs)
}
