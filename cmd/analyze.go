// Package cmd implements CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"icc.tech/pcapsmith/internal/analyze"
	"icc.tech/pcapsmith/internal/config"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Check structural invariants of a capture",
	Long: `Filter a capture with a display filter and check invariants over the
remaining frames: count, frame sizes, inter-frame timing, payload patterns,
MAC addressing and VLAN tags. The first violated rule fails the run and
names the offending frame.

Examples:
  pcapsmith analyze -r out.pcap -f checks.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		runAnalyzeCommand()
	},
}

var (
	analyzeCapture   string
	analyzeCheckFile string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeCapture, "read-file", "r", "",
		"capture file to analyze (required)")
	analyzeCmd.Flags().StringVarP(&analyzeCheckFile, "file", "f", "",
		"check file with invariant rules (required)")
	analyzeCmd.MarkFlagRequired("read-file")
	analyzeCmd.MarkFlagRequired("file")
}

func runAnalyzeCommand() {
	checks, err := config.LoadCheckFile(analyzeCheckFile)
	if err != nil {
		exitWithError("invalid check file", err)
	}

	analyzer := analyze.New(newReader())
	if err := analyzer.AnalyzeInvariants(rootCmd.Context(), analyzeCapture,
		checks.Filter, checks.Checks()); err != nil {
		exitWithError("analysis failed", err)
	}
	fmt.Printf("PASS: %s satisfies %s\n", analyzeCapture, analyzeCheckFile)
}
