// Package cmd provides CLI commands for the edgegraph engine.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	rootConfigPath   string
	rootArchitecture string
	rootSeed         uint64
	rootVerbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "edgegraph",
	Short: "Edgegraph - anomaly detection over relationship graphs",
	Long: `Edgegraph scores the relationships in security audit trails and clinical
patient records. Events or records are assembled into a typed graph, node
features are derived deterministically, and a graph neural network scores
every edge for anomaly likelihood.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to a config file (overrides default locations)")
	rootCmd.PersistentFlags().StringVar(&rootArchitecture, "architecture", "", "Classifier architecture: baseline, prototype, contrastive, gsl")
	rootCmd.PersistentFlags().Uint64Var(&rootSeed, "seed", 0, "Weight initialization seed (0 keeps the configured seed)")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")
}
