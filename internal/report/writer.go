package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

const divider = "============================================================"

// WriteResults writes the full run result as pretty-printed JSON into dir,
// named run_<id>.json, and returns the file path.
func WriteResults(dir string, result *schema.RunResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("run_%s.json", result.RunID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}

// WriteSummary writes the human-readable summary into dir as summary.txt
// and returns the file path.
func WriteSummary(dir string, summary *Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	path := filepath.Join(dir, "summary.txt")
	if err := os.WriteFile(path, []byte(FormatSummary(summary)), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

// FormatSummary renders the campaign summary as plain text.
func FormatSummary(s *Summary) string {
	var b strings.Builder
	fmt.Fprintln(&b, divider)
	fmt.Fprintf(&b, "  %s - run %s\n", s.WorkflowName, s.RunID)
	fmt.Fprintln(&b, divider)
	fmt.Fprintf(&b, "  Leads found:       %d\n", s.LeadsFound)
	fmt.Fprintf(&b, "  Enriched leads:    %d\n", s.EnrichedLeads)
	fmt.Fprintf(&b, "  Average score:     %.1f\n", s.AverageScore)
	fmt.Fprintf(&b, "  Messages created:  %d\n", s.MessagesCreated)
	if s.CampaignID != "" {
		fmt.Fprintf(&b, "  Emails sent:       %d (%s)\n", s.EmailsSent, s.CampaignID)
	} else {
		fmt.Fprintf(&b, "  Emails sent:       %d\n", s.EmailsSent)
	}
	fmt.Fprintf(&b, "  Open rate:         %.1f%%\n", s.OpenRate)
	fmt.Fprintf(&b, "  Reply rate:        %.1f%%\n", s.ReplyRate)
	fmt.Fprintf(&b, "  Recommendations:   %d\n", s.Recommendations)

	status := "SUCCESS"
	if !s.Success {
		status = "COMPLETED WITH ERRORS"
	}
	if s.Duration > 0 {
		fmt.Fprintf(&b, "  Status:            %s (took %s)\n", status, s.Duration.Round(time.Millisecond))
	} else {
		fmt.Fprintf(&b, "  Status:            %s\n", status)
	}

	if len(s.Errors) > 0 {
		fmt.Fprintln(&b, divider)
		fmt.Fprintln(&b, "  Errors:")
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "    - %s\n", e)
		}
	}
	fmt.Fprintln(&b, divider)
	return b.String()
}
