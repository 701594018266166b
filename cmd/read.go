// Package cmd implements CLI commands.
package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read a capture back through the dissector and print its frames",
	Long: `Read a capture file through the external dissector and print one line per
frame: number, length, timestamp, addressing, VLAN stack and payload.

Examples:
  pcapsmith read -r out.pcap
  pcapsmith read -r out.pcap -Y "vlan.id == 100" --json`,
	Run: func(cmd *cobra.Command, args []string) {
		runReadCommand()
	},
}

var (
	readCapture string
	readFilter  string
	readJSON    bool
)

func init() {
	readCmd.Flags().StringVarP(&readCapture, "read-file", "r", "",
		"capture file to read (required)")
	readCmd.Flags().StringVarP(&readFilter, "filter", "Y", "",
		"display filter passed to the dissector")
	readCmd.Flags().BoolVar(&readJSON, "json", false,
		"emit frames as JSON instead of text")
	readCmd.MarkFlagRequired("read-file")
}

func runReadCommand() {
	frames, err := newReader().ReadFrames(rootCmd.Context(), readCapture, readFilter)
	if err != nil {
		exitWithError("read failed", err)
	}

	if readJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(frames); err != nil {
			exitWithError("encoding frames", err)
		}
		return
	}

	for _, f := range frames {
		vlans := ""
		for _, tag := range f.VLANStack {
			if vlans != "" {
				vlans += ","
			}
			if tag.Priority != nil {
				vlans += fmt.Sprintf("%d/p%d", tag.ID, *tag.Priority)
			} else {
				vlans += fmt.Sprintf("%d", tag.ID)
			}
		}
		if vlans == "" {
			vlans = "-"
		}
		fmt.Printf("#%-4d len=%-5d t=%dns %s -> %s vlan=%s payload=%s\n",
			f.FrameNumber, f.FrameLen, f.TimestampNs, f.EthSrc, f.EthDst,
			vlans, hex.EncodeToString(f.Payload))
	}
	fmt.Printf("%d frame(s)\n", len(frames))
}
