package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/signalfold/triage-engine/internal/models"
)

// TerminalSink renders alerts to a writer for interactive runs.
type TerminalSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalSink writes to out, or stdout when nil.
func NewTerminalSink(out io.Writer) *TerminalSink {
	if out == nil {
		out = os.Stdout
	}
	return &TerminalSink{out: out}
}

// Name identifies the sink in emitter logs.
func (s *TerminalSink) Name() string { return "terminal" }

// Send renders one alert panel.
func (s *TerminalSink) Send(ctx context.Context, alert models.Alert) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	recommendations := "  (none)"
	if len(alert.Recommendations) > 0 {
		items := make([]string, 0, len(alert.Recommendations))
		for _, rec := range alert.Recommendations {
			items = append(items, "  - "+rec)
		}
		recommendations = strings.Join(items, "\n")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rule := strings.Repeat("=", 64)
	_, err := fmt.Fprintf(s.out, `%s
ALERT: %s
%s
Service:    %s
Severity:   %s
Risk Score: %d/100 (%s)

Summary:
  %s

Root Cause:
  %s

Recommendations:
%s
%s
`, rule, alert.Title, rule,
		alert.Service,
		strings.ToUpper(string(alert.Severity)),
		alert.RiskScore, alert.RiskLevel,
		alert.Summary,
		alert.RootCause,
		recommendations,
		rule,
	)
	return err == nil, err
}

// PrintSummaryTable renders a compact table of all alerts from a batch.
func (s *TerminalSink) PrintSummaryTable(alerts []models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(alerts) == 0 {
		fmt.Fprintln(s.out, "No alerts emitted this cycle.")
		return
	}

	w := tabwriter.NewWriter(s.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSEVERITY\tRISK\tTITLE")
	for _, a := range alerts {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.Service, strings.ToUpper(string(a.Severity)), a.RiskScore, a.Title)
	}
	w.Flush()
}
