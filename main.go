package main

import (
	"os"

	"github.com/anomalab/edgegraph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
