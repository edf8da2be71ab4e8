// Package sink defines the alert delivery capability and its concrete
// implementations: Slack webhook, terminal, and structured log.
package sink

import (
	"context"

	"github.com/signalfold/triage-engine/internal/models"
)

// Sink delivers one alert. Returning false or an error both count as a
// failed delivery; the emitter treats them identically and never lets a sink
// failure escape.
type Sink interface {
	Name() string
	Send(ctx context.Context, alert models.Alert) (bool, error)
}
