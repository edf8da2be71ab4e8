package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/signalfold/triage-engine/internal/embed"
	"github.com/signalfold/triage-engine/internal/llm"
	"github.com/signalfold/triage-engine/internal/models"
	"github.com/signalfold/triage-engine/internal/rag"
	"github.com/signalfold/triage-engine/internal/sink"
	"github.com/signalfold/triage-engine/internal/vecstore"
)

// failingProvider rejects every generation request.
type failingProvider struct{}

func (failingProvider) Name() string    { return "failing" }
func (failingProvider) ModelID() string { return "failing-model" }

func (failingProvider) Generate(ctx context.Context, prompt string, out any, opts llm.GenerateOptions) (llm.Usage, error) {
	return llm.Usage{}, errors.New("provider unavailable")
}

// panickingProvider panics when the prompt contains the trigger string,
// otherwise delegates to the deterministic provider.
type panickingProvider struct {
	trigger  string
	delegate llm.Provider
}

func (p *panickingProvider) Name() string    { return p.delegate.Name() }
func (p *panickingProvider) ModelID() string { return p.delegate.ModelID() }

func (p *panickingProvider) Generate(ctx context.Context, prompt string, out any, opts llm.GenerateOptions) (llm.Usage, error) {
	if strings.Contains(prompt, p.trigger) {
		panic("malformed event")
	}
	return p.delegate.Generate(ctx, prompt, out, opts)
}

// recordingSink captures alerts and optionally refuses them.
type recordingSink struct {
	name   string
	refuse bool

	mu     sync.Mutex
	alerts []models.Alert
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(ctx context.Context, alert models.Alert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return !s.refuse, nil
}

func (s *recordingSink) received() []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, provider llm.Provider, sinks []sink.Sink, opts ...Option) *Pipeline {
	t.Helper()
	logger := testLogger()
	ragEngine := rag.NewEngine(logger, embed.NewLocalEmbedder(0), vecstore.NewMemoryIndex(0))
	return NewPipeline(logger, provider, ragEngine, nil, sinks, opts...)
}
