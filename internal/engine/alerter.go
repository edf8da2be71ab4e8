package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/signalfold/triage-engine/internal/models"
	"github.com/signalfold/triage-engine/internal/sink"
)

// buildAlert assembles an alert from the outputs of the enrichment steps.
func (p *Pipeline) buildAlert(
	event models.ClassifiedEvent,
	extraction models.ExtractionResult,
	rca models.RootCauseResult,
	risk models.RiskScore,
	runID string,
) models.Alert {
	alert := models.NewAlert()
	alert.EventID = event.EventID
	alert.Service = event.Service
	alert.Severity = event.Severity
	alert.RiskScore = risk.Score
	alert.RiskLevel = risk.Level
	alert.Title = fmt.Sprintf("%s — %s: %s", strings.ToUpper(string(event.Severity)), event.Service, event.EventType)
	alert.Summary = extraction.Summary
	alert.RootCause = rca.RootCause
	alert.Recommendations = rca.Recommendations
	alert.PipelineRunID = runID
	return alert
}

// emitAlert fans the alert out to every configured sink concurrently and
// waits for all of them. It reports true only when every sink accepted the
// alert; individual sink failures are logged and swallowed.
func (p *Pipeline) emitAlert(ctx context.Context, alert models.Alert) bool {
	results := make([]bool, len(p.sinks))

	var wg sync.WaitGroup
	for i, s := range p.sinks {
		wg.Add(1)
		go func(i int, s sink.Sink) {
			defer wg.Done()
			sent, err := s.Send(ctx, alert)
			if err != nil {
				p.logger.Error("alert sink error",
					slog.String("sink", s.Name()),
					slog.String("alert_id", alert.AlertID),
					slog.Any("error", err),
				)
				return
			}
			if !sent {
				p.logger.Warn("alert sink refused",
					slog.String("sink", s.Name()),
					slog.String("alert_id", alert.AlertID),
				)
				return
			}
			results[i] = true
		}(i, s)
	}
	wg.Wait()

	success := true
	for _, ok := range results {
		if !ok {
			success = false
			break
		}
	}

	p.logger.Info("alert emitted",
		slog.String("alert_id", alert.AlertID),
		slog.String("event_id", alert.EventID),
		slog.Int("risk_score", alert.RiskScore),
		slog.String("risk_level", string(alert.RiskLevel)),
		slog.Bool("all_sinks_ok", success),
	)
	return success
}
