// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"icc.tech/pcapsmith/internal/config"
	"icc.tech/pcapsmith/internal/dissect"
	"icc.tech/pcapsmith/internal/log"
	"icc.tech/pcapsmith/internal/metrics"
)

var (
	// Global flags
	configFile string

	// Loaded global configuration, available to all subcommands.
	cfg *config.GlobalConfig
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pcapsmith",
	Short: "pcapsmith - Capture-file synthesis and verification for hardware test benches",
	Long: `pcapsmith synthesizes Ethernet/IPv4 traffic directly into libpcap capture
files and verifies captures against structural expectations.

Synthesis:
  - nanosecond-resolution libpcap containers, append-only
  - Ethernet frames with real CRC-32 FCS, optionally corrupted for negative tests
  - IPv4 packets with header checksum, manual flags or automatic fragmentation
  - inter-frame timing from explicit deltas or an IFG/link-rate model

Verification (requires tshark):
  - frame size, inter-frame timing, payload, MAC and VLAN invariants
  - expected-frame matching, ordered or unordered`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		if err := log.Init(cfg.Log); err != nil {
			return err
		}
		if cfg.Metrics.Enabled {
			metrics.NewServer(cfg.Metrics.Listen).Start()
		}
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"global config file path (optional)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(validateCmd)
}

// newReader builds the capture reader over the configured dissector.
func newReader() *dissect.Reader {
	return dissect.NewReader(dissect.NewTshark(cfg.Dissector.Binary, cfg.Dissector.Timeout))
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
