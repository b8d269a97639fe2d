// Package cmd provides CLI commands for the edgegraph engine.
// This file implements the score command for scoring audit event batches.
package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anomalab/edgegraph/core/audit"
	"github.com/anomalab/edgegraph/core/service"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// ScoreDefaultThreshold is the decision threshold when neither the flag
	// nor the configuration sets one.
	ScoreDefaultThreshold = 0.5

	// scoreMaxLineBytes bounds a single JSONL event line.
	scoreMaxLineBytes = 1 << 20
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// =============================================================================
// Score Command Flags
// =============================================================================

var (
	scoreThreshold float64
	scoreJSON      bool
)

// =============================================================================
// Score Command
// =============================================================================

// scoreCmd represents the score command.
var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score a batch of audit events for anomalous relationships",
	Long: `Score a batch of security audit events for anomalous relationships.

Events are read as JSON Lines, one event object per line:

  {"event_id":"evt-1","source_entity":"user_alice","destination_entity":"patient_001","action":"read"}

Reads from the named file, or from stdin when no file is given.

Examples:
  edgegraph score events.jsonl                  # Score with the configured threshold
  cat events.jsonl | edgegraph score -t 0.7     # Read stdin, stricter threshold
  edgegraph score events.jsonl --json           # Machine-readable output`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().Float64VarP(&scoreThreshold, "threshold", "t", ScoreDefaultThreshold, "Anomaly decision threshold")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Output as JSON")
}

// =============================================================================
// Score Execution
// =============================================================================

// scoreOutput is the JSON output for the score command.
type scoreOutput struct {
	Threshold    float64              `json:"threshold"`
	EventCount   int                  `json:"event_count"`
	AnomalyCount int                  `json:"anomaly_count"`
	Results      []service.ScoredEdge `json:"results"`
}

// runScore scores an event batch and prints the results.
func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	threshold := scoreThreshold
	if !cmd.Flags().Changed("threshold") {
		threshold = cfg.Service.Threshold
	}

	events, err := readEvents(cmd, args)
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	scored, err := svc.ScoreEvents(events, threshold)
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}

	out := &scoreOutput{
		Threshold:  threshold,
		EventCount: len(events),
		Results:    scored,
	}
	for i := range scored {
		if scored[i].IsAnomaly {
			out.AnomalyCount++
		}
	}

	if scoreJSON {
		return outputJSONScore(cmd.OutOrStdout(), out)
	}
	return outputRichScore(cmd.OutOrStdout(), out)
}

// readEvents opens the events source named in args, falling back to stdin.
func readEvents(cmd *cobra.Command, args []string) ([]audit.LogEvent, error) {
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open events file: %w", err)
		}
		defer f.Close()
		return decodeEvents(f)
	}
	return decodeEvents(cmd.InOrStdin())
}

// decodeEvents parses JSON Lines audit events. Blank lines are skipped;
// malformed lines fail with their line number.
func decodeEvents(r io.Reader) ([]audit.LogEvent, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), scoreMaxLineBytes)

	var events []audit.LogEvent
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var ev audit.LogEvent
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return events, nil
}

// =============================================================================
// Score Output
// =============================================================================

// outputJSONScore outputs scoring results as JSON.
func outputJSONScore(w io.Writer, out *scoreOutput) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// outputRichScore outputs scoring results with terminal formatting.
func outputRichScore(w io.Writer, out *scoreOutput) error {
	fmt.Fprintf(w, "%s%sAudit Scoring%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "%s%s%s\n", colorGray, strings.Repeat("-", 40), colorReset)
	fmt.Fprintf(w, "%sEvents:%s    %d\n", colorGray, colorReset, out.EventCount)
	fmt.Fprintf(w, "%sThreshold:%s %.3f\n", colorGray, colorReset, out.Threshold)
	fmt.Fprintln(w)

	for i := range out.Results {
		se := &out.Results[i]
		marker := fmt.Sprintf("%s     ok%s", colorGreen, colorReset)
		if se.IsAnomaly {
			marker = fmt.Sprintf("%sFLAGGED%s", colorRed, colorReset)
		}
		fmt.Fprintf(w, "%s  %.3f  %-14s %s -> %s\n", marker, se.Score, se.OriginID, se.Source, se.Target)
		if se.IsAnomaly {
			fmt.Fprintf(w, "                %s%s%s\n", colorGray, se.Explanation, colorReset)
		}
	}

	fmt.Fprintln(w)
	if out.AnomalyCount > 0 {
		fmt.Fprintf(w, "%s%d of %d events flagged anomalous%s\n", colorYellow, out.AnomalyCount, out.EventCount, colorReset)
	} else {
		fmt.Fprintf(w, "%sNo anomalies above threshold%s\n", colorGreen, colorReset)
	}
	return nil
}
