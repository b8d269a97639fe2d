// Package cmd provides CLI commands for the edgegraph engine.
// This file implements the info command for inspecting the configured model.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anomalab/edgegraph/core/model"
	"github.com/anomalab/edgegraph/core/service"
)

// =============================================================================
// Info Command
// =============================================================================

var infoJSON bool

// infoCmd represents the info command.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the configured model and service health",
	Long: `Show the configured classifier architecture, its expected accuracy,
service health, and the available architectures.

Examples:
  edgegraph info
  edgegraph info --architecture prototype
  edgegraph info --json`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Output as JSON")
}

// =============================================================================
// Info Execution
// =============================================================================

// infoOutput is the JSON output for the info command.
type infoOutput struct {
	Model         service.ModelInfo    `json:"model"`
	Health        service.HealthStatus `json:"health"`
	Architectures []architectureInfo   `json:"architectures"`
}

// architectureInfo describes one selectable architecture.
type architectureInfo struct {
	Name               string  `json:"name"`
	ExpectedAccuracy   float64 `json:"expected_accuracy"`
	SupportsImportance bool    `json:"supports_importance"`
}

// runInfo prints model and health information.
func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	out := &infoOutput{
		Model:         svc.ModelInfo(),
		Health:        svc.Health(),
		Architectures: listArchitectures(),
	}

	if infoJSON {
		return outputJSONInfo(cmd.OutOrStdout(), out)
	}
	return outputRichInfo(cmd.OutOrStdout(), out)
}

// listArchitectures enumerates every selectable architecture with its
// characteristics under an otherwise default configuration.
func listArchitectures() []architectureInfo {
	archs := model.ValidArchitectures()
	out := make([]architectureInfo, 0, len(archs))
	for _, a := range archs {
		cfg := model.DefaultConfig()
		cfg.Architecture = a
		out = append(out, architectureInfo{
			Name:               a.String(),
			ExpectedAccuracy:   cfg.ExpectedAccuracy(),
			SupportsImportance: cfg.SupportsImportance(),
		})
	}
	return out
}

// =============================================================================
// Info Output
// =============================================================================

// outputJSONInfo outputs model information as JSON.
func outputJSONInfo(w io.Writer, out *infoOutput) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// outputRichInfo outputs model information with terminal formatting.
func outputRichInfo(w io.Writer, out *infoOutput) error {
	fmt.Fprintf(w, "%s%sModel Info%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)
	fmt.Fprintf(w, "%sArchitecture:%s %s\n", colorGray, colorReset, out.Model.ModelType)
	fmt.Fprintf(w, "%sExpected Acc:%s %.2f\n", colorGray, colorReset, out.Model.ExpectedAccuracy)

	if out.Model.SupportsImportance {
		fmt.Fprintf(w, "%sImportance:%s   %ssupported%s\n", colorGray, colorReset, colorGreen, colorReset)
	} else {
		fmt.Fprintf(w, "%sImportance:%s   not supported\n", colorGray, colorReset)
	}

	if out.Health.IsHealthy() {
		fmt.Fprintf(w, "%sStatus:%s       %s%s%s\n", colorGray, colorReset, colorGreen, out.Health.Status, colorReset)
	} else {
		fmt.Fprintf(w, "%sStatus:%s       %s%s%s\n", colorGray, colorReset, colorRed, out.Health.Status, colorReset)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%sAvailable architectures:%s\n", colorGray, colorReset)
	for _, a := range out.Architectures {
		note := ""
		if a.SupportsImportance {
			note = "  (importance)"
		}
		fmt.Fprintf(w, "  %-13s %.2f%s\n", a.Name, a.ExpectedAccuracy, note)
	}
	return nil
}
