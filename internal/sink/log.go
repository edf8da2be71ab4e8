package sink

import (
	"context"
	"log/slog"

	"github.com/signalfold/triage-engine/internal/models"
)

// LogSink writes alerts to the structured log. Useful when no other sink is
// configured so alerts are never silently dropped.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink constructs a sink over the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Name identifies the sink in emitter logs.
func (s *LogSink) Name() string { return "log" }

// Send logs the alert at warn level.
func (s *LogSink) Send(ctx context.Context, alert models.Alert) (bool, error) {
	s.logger.Warn("alert",
		slog.String("alert_id", alert.AlertID),
		slog.String("service", alert.Service),
		slog.String("severity", string(alert.Severity)),
		slog.Int("risk_score", alert.RiskScore),
		slog.String("risk_level", string(alert.RiskLevel)),
		slog.String("title", alert.Title),
		slog.String("root_cause", alert.RootCause),
	)
	return true, nil
}
