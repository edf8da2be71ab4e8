package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/signalfold/triage-engine/internal/models"
)

// SlackSink posts alerts to a Slack incoming webhook using block kit.
type SlackSink struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackSink constructs a Slack sink for the given webhook URL.
func NewSlackSink(logger *slog.Logger, webhookURL string, timeout time.Duration) *SlackSink {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SlackSink{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name identifies the sink in emitter logs.
func (s *SlackSink) Name() string { return "slack" }

// Send posts the alert blocks; any non-2xx response is a failed delivery.
func (s *SlackSink) Send(ctx context.Context, alert models.Alert) (bool, error) {
	recommendations := "None"
	if len(alert.Recommendations) > 0 {
		items := make([]string, 0, len(alert.Recommendations))
		for _, rec := range alert.Recommendations {
			items = append(items, "• "+rec)
		}
		recommendations = strings.Join(items, "\n")
	}

	eventRef := alert.EventID
	if len(eventRef) > 8 {
		eventRef = eventRef[:8] + "..."
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{"type": "plain_text", "text": alert.Title},
		},
		{
			"type": "section",
			"fields": []map[string]any{
				{"type": "mrkdwn", "text": "*Service:*\n" + alert.Service},
				{"type": "mrkdwn", "text": "*Severity:*\n" + strings.ToUpper(string(alert.Severity))},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Risk Score:*\n%d/100 (%s)", alert.RiskScore, alert.RiskLevel)},
				{"type": "mrkdwn", "text": "*Event ID:*\n`" + eventRef + "`"},
			},
		},
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": "*Summary:*\n" + alert.Summary},
		},
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": "*Root Cause:*\n" + alert.RootCause},
		},
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": "*Recommendations:*\n" + recommendations},
		},
	}

	body, err := json.Marshal(map[string]any{"blocks": blocks})
	if err != nil {
		return false, fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	s.logger.Info("slack alert sent", slog.String("alert_id", alert.AlertID))
	return true, nil
}
