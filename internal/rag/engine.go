// Package rag retrieves reference documents (runbooks, postmortems,
// changelogs) for a query and renders them as bounded prompt context.
package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/signalfold/triage-engine/internal/cache"
	"github.com/signalfold/triage-engine/internal/embed"
	"github.com/signalfold/triage-engine/internal/vecstore"
)

const (
	// DefaultTopK bounds how many documents a retrieval returns.
	DefaultTopK = 3
	// DefaultMaxCharsPerDoc caps the rendered content of each document.
	DefaultMaxCharsPerDoc = 500
	// NoDocumentsSentinel is returned when retrieval yields nothing.
	NoDocumentsSentinel = "No relevant documents found."
)

// Document is a reference document to index.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Engine embeds queries, searches the vector index, and formats context.
type Engine struct {
	embedder embed.Embedder
	index    vecstore.Index
	topK     int
	cache    cache.Provider
	cacheTTL time.Duration
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTopK overrides the retrieval depth.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithCache enables caching of retrieval results with the given TTL.
func WithCache(provider cache.Provider, ttl time.Duration) Option {
	return func(e *Engine) {
		if provider != nil && ttl > 0 {
			e.cache = provider
			e.cacheTTL = ttl
		}
	}
}

// NewEngine constructs a retrieval engine over the given capabilities.
func NewEngine(logger *slog.Logger, embedder embed.Embedder, index vecstore.Index, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		embedder: embedder,
		index:    index,
		topK:     DefaultTopK,
		cache:    cache.NoopProvider{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retrieve returns the top-k documents for the query, ordered by descending
// score.
func (e *Engine) Retrieve(ctx context.Context, query string) ([]vecstore.Result, error) {
	if cached, ok := e.cachedResults(ctx, query); ok {
		return cached, nil
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := e.index.Search(ctx, vector, e.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	topScore := 0.0
	if len(results) > 0 {
		topScore = results[0].Score
	}
	e.logger.Debug("rag search",
		slog.String("query", truncate(query, 80)),
		slog.Int("results", len(results)),
		slog.Float64("top_score", topScore),
	)

	e.storeResults(ctx, query, results)
	return results, nil
}

// RetrieveContext retrieves documents and renders them as numbered blocks
// joined by separator lines, each block capped at maxCharsPerDoc characters
// (DefaultMaxCharsPerDoc when non-positive). Returns the sentinel string when
// nothing matches.
func (e *Engine) RetrieveContext(ctx context.Context, query string, maxCharsPerDoc int) (string, error) {
	if maxCharsPerDoc <= 0 {
		maxCharsPerDoc = DefaultMaxCharsPerDoc
	}

	results, err := e.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return NoDocumentsSentinel, nil
	}

	sections := make([]string, 0, len(results))
	for i, r := range results {
		source := r.Metadata["source"]
		if source == "" {
			source = "unknown"
		}
		docType := r.Metadata["type"]
		if docType == "" {
			docType = "document"
		}
		content := r.Content
		if len(content) > maxCharsPerDoc {
			content = content[:maxCharsPerDoc] + "..."
		}
		sections = append(sections, fmt.Sprintf("[%d] (%s) %s (score: %.3f)\nSource: %s\n%s\n",
			i+1, docType, r.DocID, r.Score, source, content))
	}
	return strings.Join(sections, "\n---\n"), nil
}

// IndexDocument embeds the content and upserts it keyed by the document id.
// The content rides along in metadata so search hits can return it.
func (e *Engine) IndexDocument(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	vector, err := e.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", doc.ID, err)
	}

	metadata := make(map[string]string, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		metadata[k] = v
	}
	metadata["content"] = doc.Content

	if err := e.index.Upsert(ctx, doc.ID, vector, metadata); err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	e.logger.Debug("rag indexed", slog.String("doc_id", doc.ID), slog.Int("content_len", len(doc.Content)))
	return nil
}

// IndexDocuments indexes all documents and returns how many succeeded before
// the first failure.
func (e *Engine) IndexDocuments(ctx context.Context, docs []Document) (int, error) {
	for i, doc := range docs {
		if err := e.IndexDocument(ctx, doc); err != nil {
			return i, err
		}
	}
	return len(docs), nil
}

func (e *Engine) cachedResults(ctx context.Context, query string) ([]vecstore.Result, bool) {
	if e.cacheTTL <= 0 {
		return nil, false
	}
	data, err := e.cache.Get(ctx, queryCacheKey(query))
	if err != nil {
		return nil, false
	}
	var results []vecstore.Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (e *Engine) storeResults(ctx context.Context, query string, results []vecstore.Result) {
	if e.cacheTTL <= 0 || len(results) == 0 {
		return
	}
	if data, err := json.Marshal(results); err == nil {
		_ = e.cache.Set(ctx, queryCacheKey(query), data, e.cacheTTL)
	}
}

func queryCacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "rag:query:" + hex.EncodeToString(sum[:8])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
