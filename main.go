package main

import (
	"os"

	"icc.tech/pcapsmith/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
