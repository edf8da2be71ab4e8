package anomaly

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/signalfold/triage-engine/internal/models"
)

const (
	// DefaultAlpha is the EWMA smoothing factor.
	DefaultAlpha = 0.3
	// DefaultZThreshold flags anomalies when |z| exceeds it.
	DefaultZThreshold = 2.5
	// minObservations is the cold-start cutoff: buckets with fewer
	// observations never flag anomalies.
	minObservations = 3
)

// ewmaState holds per-bucket running statistics.
type ewmaState struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Count    int     `json:"count"`
	Alpha    float64 `json:"alpha"`
}

// BucketView is a read-only snapshot of one bucket for observability consumers.
type BucketView struct {
	Bucket   string  `json:"bucket"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Std      float64 `json:"std"`
	Count    int     `json:"count"`
	Status   string  `json:"status"`
}

// Detector tracks per-(service, event type) severity streams with an EWMA
// baseline and flags observations whose z-score exceeds the threshold.
// Buckets are keyed "service:event_type". State optionally persists to a JSON
// file so baselines survive between runs.
//
// Detector is not safe for concurrent use; the orchestrator calls it from a
// single goroutine in event order.
type Detector struct {
	alpha      float64
	zThreshold float64
	stateFile  string
	states     map[string]*ewmaState
	logger     *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithAlpha overrides the EWMA smoothing factor.
func WithAlpha(alpha float64) Option {
	return func(d *Detector) {
		if alpha > 0 && alpha <= 1 {
			d.alpha = alpha
		}
	}
}

// WithZThreshold overrides the anomaly threshold.
func WithZThreshold(threshold float64) Option {
	return func(d *Detector) {
		if threshold > 0 {
			d.zThreshold = threshold
		}
	}
}

// WithStateFile enables snapshot persistence at the given path.
func WithStateFile(path string) Option {
	return func(d *Detector) {
		d.stateFile = path
	}
}

// NewDetector constructs a Detector and loads persisted state when a state
// file is configured. A missing or corrupt snapshot starts empty with a
// warning, never an error.
func NewDetector(logger *slog.Logger, opts ...Option) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Detector{
		alpha:      DefaultAlpha,
		zThreshold: DefaultZThreshold,
		states:     make(map[string]*ewmaState),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.loadState()
	return d
}

// severityValue maps severity onto the numeric ordinal used for the EWMA.
func severityValue(severity models.Severity) float64 {
	switch severity {
	case models.SeverityLow:
		return 1
	case models.SeverityMedium:
		return 2
	case models.SeverityHigh:
		return 3
	case models.SeverityCritical:
		return 4
	default:
		return 1
	}
}

// Detect scores the observation against the bucket's pre-update statistics,
// then folds it into the baseline. During cold start (fewer than three
// observations) the bucket is updated but nothing is flagged.
func (d *Detector) Detect(service string, eventType models.EventType, severity models.Severity) models.AnomalyResult {
	bucket := fmt.Sprintf("%s:%s", service, eventType)
	value := severityValue(severity)
	state := d.bucket(bucket)

	if state.Count < minObservations {
		d.update(state, value)
		return models.AnomalyResult{Bucket: bucket, Threshold: d.zThreshold}
	}

	std := 1.0
	if state.Variance > 0 {
		std = math.Sqrt(state.Variance)
	}
	zScore := (value - state.Mean) / std
	isAnomaly := math.Abs(zScore) > d.zThreshold

	if isAnomaly {
		d.logger.Warn("anomaly detected",
			slog.String("bucket", bucket),
			slog.Float64("z_score", zScore),
			slog.Float64("value", value),
			slog.Float64("mean", state.Mean),
			slog.Float64("std", std),
		)
	}

	// Update after scoring so the observation cannot dampen its own signal.
	d.update(state, value)

	return models.AnomalyResult{
		IsAnomaly: isAnomaly,
		ZScore:    zScore,
		Bucket:    bucket,
		Threshold: d.zThreshold,
	}
}

func (d *Detector) bucket(key string) *ewmaState {
	state, ok := d.states[key]
	if !ok {
		state = &ewmaState{Alpha: d.alpha}
		d.states[key] = state
	}
	return state
}

func (d *Detector) update(state *ewmaState, value float64) {
	if state.Count == 0 {
		state.Mean = value
		state.Variance = 0
	} else {
		diff := value - state.Mean
		state.Mean = state.Alpha*value + (1-state.Alpha)*state.Mean
		state.Variance = (1 - state.Alpha) * (state.Variance + state.Alpha*diff*diff)
	}
	state.Count++
}

// Snapshot returns a per-bucket view sorted by bucket key.
func (d *Detector) Snapshot() []BucketView {
	views := make([]BucketView, 0, len(d.states))
	for bucket, state := range d.states {
		std := 0.0
		if state.Variance > 0 {
			std = math.Sqrt(state.Variance)
		}
		status := "active"
		if state.Count < minObservations {
			status = "training"
		}
		views = append(views, BucketView{
			Bucket:   bucket,
			Mean:     state.Mean,
			Variance: state.Variance,
			Std:      std,
			Count:    state.Count,
			Status:   status,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Bucket < views[j].Bucket })
	return views
}

// SaveState persists current bucket statistics with an atomic replace.
// Write failures are logged, not returned as fatal, so a full disk never
// aborts a batch; the error is still surfaced for callers that care.
func (d *Detector) SaveState() error {
	if d.stateFile == "" {
		return nil
	}

	data, err := json.MarshalIndent(d.states, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal anomaly state: %w", err)
	}

	dir := filepath.Dir(d.stateFile)
	tmp, err := os.CreateTemp(dir, ".anomaly-state-*.tmp")
	if err != nil {
		d.logger.Error("anomaly state save failed", slog.Any("error", err))
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		d.logger.Error("anomaly state save failed", slog.Any("error", err))
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmpName, d.stateFile); err != nil {
		os.Remove(tmpName)
		d.logger.Error("anomaly state save failed", slog.Any("error", err))
		return fmt.Errorf("replace state file: %w", err)
	}

	d.logger.Info("anomaly state saved",
		slog.Int("buckets", len(d.states)),
		slog.String("file", d.stateFile),
	)
	return nil
}

func (d *Detector) loadState() {
	if d.stateFile == "" {
		return
	}
	data, err := os.ReadFile(d.stateFile)
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.Warn("anomaly state load failed", slog.Any("error", err))
		}
		return
	}

	var loaded map[string]*ewmaState
	if err := json.Unmarshal(data, &loaded); err != nil {
		d.logger.Warn("anomaly state load failed", slog.Any("error", err))
		return
	}
	for bucket, state := range loaded {
		if state.Alpha <= 0 {
			state.Alpha = d.alpha
		}
		d.states[bucket] = state
	}
	d.logger.Info("anomaly state loaded",
		slog.Int("buckets", len(loaded)),
		slog.String("file", d.stateFile),
	)
}

// ResetState clears in-memory buckets and deletes the persisted snapshot.
func (d *Detector) ResetState() error {
	d.states = make(map[string]*ewmaState)
	if d.stateFile == "" {
		return nil
	}
	if err := os.Remove(d.stateFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file: %w", err)
	}
	d.logger.Info("anomaly state reset", slog.String("file", d.stateFile))
	return nil
}
