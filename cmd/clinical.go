// Package cmd provides CLI commands for the edgegraph engine.
// This file implements the clinical command for patient record anomaly
// detection.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anomalab/edgegraph/core/clinical"
	"github.com/anomalab/edgegraph/core/graph"
	"github.com/anomalab/edgegraph/core/service"
)

// =============================================================================
// Clinical Command Flags
// =============================================================================

var (
	clinicalThreshold float64
	clinicalJSON      bool
	clinicalGraphOnly bool
)

// =============================================================================
// Clinical Command
// =============================================================================

// clinicalCmd represents the clinical command.
var clinicalCmd = &cobra.Command{
	Use:   "clinical [file]",
	Short: "Detect anomalies in a clinical patient record",
	Long: `Detect anomalous relationships in a clinical patient record.

The record is a single JSON document with the patient's medications,
conditions, and lab observations:

  {"patient_id":"patient-7","age":67,"medications":[{"name":"Warfarin","dosage":5}]}

Reads from the named file, or from stdin when no file is given.

Examples:
  edgegraph clinical record.json                # Full anomaly report
  edgegraph clinical record.json -t 0.7         # Stricter threshold
  edgegraph clinical record.json --graph        # Show the constructed graph
  edgegraph clinical record.json --json         # Machine-readable report`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClinical,
}

func init() {
	rootCmd.AddCommand(clinicalCmd)

	clinicalCmd.Flags().Float64VarP(&clinicalThreshold, "threshold", "t", ScoreDefaultThreshold, "Anomaly decision threshold")
	clinicalCmd.Flags().BoolVar(&clinicalJSON, "json", false, "Output as JSON")
	clinicalCmd.Flags().BoolVar(&clinicalGraphOnly, "graph", false, "Print the constructed graph without scoring")
}

// =============================================================================
// Clinical Execution
// =============================================================================

// runClinical builds and scores a patient graph and prints the report.
func runClinical(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	record, err := readRecord(cmd, args)
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if clinicalGraphOnly {
		g, meta, err := svc.BuildClinicalGraph(record)
		if err != nil {
			return fmt.Errorf("graph construction failed: %w", err)
		}
		return outputGraphMetadata(cmd.OutOrStdout(), g, meta)
	}

	threshold := clinicalThreshold
	if !cmd.Flags().Changed("threshold") {
		threshold = cfg.Service.Threshold
	}

	report, err := svc.DetectClinicalAnomalies(record, threshold)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if clinicalJSON {
		return outputJSONReport(cmd.OutOrStdout(), report)
	}
	return outputRichReport(cmd.OutOrStdout(), report, threshold)
}

// readRecord reads one patient record document from args or stdin.
func readRecord(cmd *cobra.Command, args []string) (*clinical.PatientRecord, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read record file: %w", err)
		}
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
	}

	var record clinical.PatientRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}
	return &record, nil
}

// =============================================================================
// Clinical Output
// =============================================================================

// graphOutput is the JSON output for the --graph mode.
type graphOutput struct {
	Nodes    int             `json:"nodes"`
	Edges    int             `json:"edges"`
	Metadata *graph.Metadata `json:"metadata"`
}

// outputGraphMetadata outputs the constructed graph as JSON.
func outputGraphMetadata(w io.Writer, g *graph.Graph, meta *graph.Metadata) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(&graphOutput{
		Nodes:    g.NumNodes(),
		Edges:    g.NumEdges(),
		Metadata: meta,
	})
}

// outputJSONReport outputs the anomaly report as JSON.
func outputJSONReport(w io.Writer, report *service.ClinicalReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// outputRichReport outputs the anomaly report with terminal formatting.
func outputRichReport(w io.Writer, report *service.ClinicalReport, threshold float64) error {
	fmt.Fprintf(w, "%s%sClinical Anomaly Report%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)
	fmt.Fprintf(w, "%sPatient:%s   %s\n", colorGray, colorReset, report.PatientID)
	fmt.Fprintf(w, "%sThreshold:%s %.3f\n", colorGray, colorReset, threshold)
	fmt.Fprintln(w)

	if report.AnomalyCount == 0 {
		fmt.Fprintf(w, "%s%s%s\n", colorGreen, report.Message, colorReset)
		return nil
	}

	for i := range report.Anomalies {
		a := &report.Anomalies[i]
		fmt.Fprintf(w, "%sFLAGGED%s  %.3f  %-26s %s -> %s\n",
			colorRed, colorReset, a.Score, a.AnomalyType, a.Source, a.Target)
		fmt.Fprintf(w, "                %s%s%s\n", colorGray, a.Explanation, colorReset)
	}

	fmt.Fprintln(w)
	types := make([]string, 0, len(report.TypeCounts))
	for at := range report.TypeCounts {
		types = append(types, at)
	}
	sort.Strings(types)
	for _, at := range types {
		fmt.Fprintf(w, "%s%-26s%s %d\n", colorGray, at+":", colorReset, report.TypeCounts[at])
	}

	fmt.Fprintf(w, "%s%s%s\n", colorYellow, report.Message, colorReset)
	return nil
}
