// Package gen produces synthetic operational events for demos and the
// continuous runner. Weighted template pools keep roughly 40% of events
// healthy, 35% warnings, and the rest incident-grade.
package gen

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/signalfold/triage-engine/internal/models"
)

var services = []string{"checkout", "payments", "inventory", "api-gateway", "frontend", "users", "orders"}

var deployers = []string{"ci-bot", "deploy-bot", "github-actions", "argocd"}

// Generator builds random RawEvents from a seeded source so demos can be
// reproduced.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator seeds the generator; a zero seed uses the current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Events returns count random events.
func (g *Generator) Events(count int) []models.RawEvent {
	events := make([]models.RawEvent, 0, count)
	for i := 0; i < count; i++ {
		roll := g.rng.Float64()
		switch {
		case roll < 0.40:
			events = append(events, g.normalEvent())
		case roll < 0.75:
			events = append(events, g.warningEvent())
		default:
			events = append(events, g.incidentEvent())
		}
	}
	return events
}

// IncidentBurst returns count incident-grade events against one service,
// useful for demonstrating anomaly detection on a skewed stream.
func (g *Generator) IncidentBurst(service string, count int) []models.RawEvent {
	if service == "" {
		service = g.pick(services)
	}
	events := make([]models.RawEvent, 0, count)
	for i := 0; i < count; i++ {
		events = append(events, g.incidentFor(service))
	}
	return events
}

func (g *Generator) normalEvent() models.RawEvent {
	svc := g.pick(services)
	pod := g.pod(svc)
	switch g.rng.Intn(3) {
	case 0:
		return models.NewRawEvent(models.SourceLogCollector, svc,
			fmt.Sprintf("INFO %s Health check passed. Response time: %dms. Active users: %d. Cache hit rate: %d%%.",
				pod, g.intn(10, 180), g.intn(200, 3000), g.intn(88, 99)),
			map[string]string{"pod": pod, "namespace": "production"})
	case 1:
		return models.NewRawEvent(models.SourceLogCollector, svc,
			fmt.Sprintf("INFO %s Metrics nominal. CPU: %d%%, Memory: %d%%, p99 latency: %dms, error rate: %.1f%%.",
				pod, g.intn(15, 45), g.intn(30, 60), g.intn(80, 200), g.rng.Float64()*1.4+0.1),
			map[string]string{"pod": pod})
	default:
		deployer := g.pick(deployers)
		return models.NewRawEvent(models.SourceDeploy, svc,
			fmt.Sprintf("DEPLOY %s %s Deployer: %s. Rollout: 3/3 pods updated. Status: SUCCESS.",
				svc, g.version(), deployer),
			map[string]string{"deployer": deployer, "status": "success"})
	}
}

func (g *Generator) warningEvent() models.RawEvent {
	svc := g.pick(services)
	pod := g.pod(svc)
	switch g.rng.Intn(3) {
	case 0:
		return models.NewRawEvent(models.SourceLogCollector, svc,
			fmt.Sprintf("WARNING %s Slow response detected. p99 latency: %dms exceeds 500ms budget.",
				pod, g.intn(500, 1400)),
			map[string]string{"pod": pod})
	case 1:
		return models.NewRawEvent(models.SourceApplication, svc,
			fmt.Sprintf("WARN %s Connection pool utilization at %d%%. Query latency degraded.",
				pod, g.intn(80, 95)),
			map[string]string{"pod": pod})
	default:
		return models.NewRawEvent(models.SourceLogCollector, svc,
			fmt.Sprintf("WARNING %s CPU usage climbing: %d%% over the last 10 minutes.",
				pod, g.intn(70, 85)),
			map[string]string{"pod": pod, "cpu_pct": fmt.Sprintf("%d", g.intn(70, 85))})
	}
}

func (g *Generator) incidentEvent() models.RawEvent {
	return g.incidentFor(g.pick(services))
}

func (g *Generator) incidentFor(svc string) models.RawEvent {
	pod := g.pod(svc)
	switch g.rng.Intn(4) {
	case 0:
		return models.NewRawEvent(models.SourceLogCollector, svc,
			fmt.Sprintf("CRITICAL %s OOMKilled container %s exceeded memory limit. Restart count: %d.",
				pod, svc, g.intn(3, 9)),
			map[string]string{"pod": pod, "reason": "OOMKilled"})
	case 1:
		return models.NewRawEvent(models.SourceApplication, svc,
			fmt.Sprintf("ERROR %s Unhandled exception: connection refused (ECONNREFUSED). %d requests failed with HTTP 500.",
				pod, g.intn(40, 400)),
			map[string]string{"pod": pod, "error_code": "HTTP 500"})
	case 2:
		return models.NewRawEvent(models.SourceApplication, svc,
			fmt.Sprintf("ERROR %s Payment gateway TIMEOUT after 30s. Error rate: %.1f%%. Circuit breaker open.",
				pod, g.rng.Float64()*10+5),
			map[string]string{"pod": pod})
	default:
		return models.NewRawEvent(models.SourceDeploy, svc,
			fmt.Sprintf("DEPLOY %s %s FAILED. Rollback initiated. Fatal error during migration step.",
				svc, g.version()),
			map[string]string{"status": "failed"})
	}
}

func (g *Generator) pick(options []string) string {
	return options[g.rng.Intn(len(options))]
}

func (g *Generator) pod(service string) string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = chars[g.rng.Intn(len(chars))]
	}
	return fmt.Sprintf("%s-pod-%s", service, suffix)
}

func (g *Generator) version() string {
	return fmt.Sprintf("v%d.%d.%d", g.intn(2, 4), g.intn(0, 30), g.intn(0, 9))
}

func (g *Generator) intn(low, high int) int {
	if high <= low {
		return low
	}
	return low + g.rng.Intn(high-low+1)
}
