// Package cmd implements CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"icc.tech/pcapsmith/internal/analyze"
	"icc.tech/pcapsmith/internal/config"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a capture against an expected frame list",
	Long: `Read a capture and match its frames against the expected_frames list of a
check file, either in order or by greedy first-fit regardless of order.

Examples:
  pcapsmith match -r out.pcap -f expected.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		runMatchCommand()
	},
}

var (
	matchCapture   string
	matchCheckFile string
)

func init() {
	matchCmd.Flags().StringVarP(&matchCapture, "read-file", "r", "",
		"capture file to match against (required)")
	matchCmd.Flags().StringVarP(&matchCheckFile, "file", "f", "",
		"check file with expected_frames (required)")
	matchCmd.MarkFlagRequired("read-file")
	matchCmd.MarkFlagRequired("file")
}

func runMatchCommand() {
	checks, err := config.LoadCheckFile(matchCheckFile)
	if err != nil {
		exitWithError("invalid check file", err)
	}
	if len(checks.ExpectedFrames) == 0 {
		exitWithError(fmt.Sprintf("%s has no expected_frames", matchCheckFile), nil)
	}

	analyzer := analyze.New(newReader())
	frames, err := analyzer.MatchFrames(rootCmd.Context(), matchCapture, checks.Filter,
		checks.ExpectedFrames, checks.IsOrdered(), checks.ExpectCount)
	if err != nil {
		exitWithError("match failed", err)
	}
	mode := "ordered"
	if !checks.IsOrdered() {
		mode = "unordered"
	}
	fmt.Printf("PASS: matched %d expectation(s) (%s) against %d frame(s) in %s\n",
		len(checks.ExpectedFrames), mode, len(frames), matchCapture)
}
