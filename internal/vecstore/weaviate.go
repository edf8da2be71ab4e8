package vecstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WeaviateIndex stores reference documents as Weaviate objects with explicit
// vectors and searches them with nearVector GraphQL queries.
type WeaviateIndex struct {
	endpoint   string
	apiKey     string
	class      string
	httpClient *http.Client
}

// NewWeaviateIndex constructs a Weaviate-backed index. An empty class
// defaults to ReferenceDocument.
func NewWeaviateIndex(endpoint, apiKey, class string, timeout time.Duration) *WeaviateIndex {
	if class == "" {
		class = "ReferenceDocument"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WeaviateIndex{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		class:      class,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Upsert writes the document object with its vector. Weaviate replaces the
// object when the deterministic id already exists.
func (w *WeaviateIndex) Upsert(ctx context.Context, docID string, vector []float32, metadata map[string]string) error {
	if w.endpoint == "" {
		return fmt.Errorf("weaviate endpoint not configured")
	}

	properties := map[string]any{
		"docId":   docID,
		"content": metadata["content"],
		"source":  metadata["source"],
		"docType": metadata["type"],
	}
	payload := map[string]any{
		"class":      w.class,
		"id":         deterministicUUID(docID),
		"properties": properties,
		"vector":     vector,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal object: %w", err)
	}

	// PUT with a deterministic id makes re-indexing an idempotent replace.
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, w.endpoint+"/v1/objects/"+w.class+"/"+deterministicUUID(docID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	w.setHeaders(req)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weaviate upsert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return w.create(ctx, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("weaviate upsert failed: %s", strings.TrimSpace(string(data)))
	}
	return nil
}

func (w *WeaviateIndex) create(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint+"/v1/objects", bytes.NewReader(body))
	if err != nil {
		return err
	}
	w.setHeaders(req)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weaviate create: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("weaviate create failed: %s", strings.TrimSpace(string(data)))
	}
	return nil
}

// Search runs a nearVector query and maps hits into Results ordered by
// certainty.
func (w *WeaviateIndex) Search(ctx context.Context, query []float32, topK int) ([]Result, error) {
	if w.endpoint == "" {
		return nil, fmt.Errorf("weaviate endpoint not configured")
	}
	if topK <= 0 {
		topK = 5
	}

	vector, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	gql := map[string]any{
		"query": fmt.Sprintf(`{
  Get {
    %s(limit: %d, nearVector: {vector: %s}) {
      docId
      content
      source
      docType
      _additional { certainty }
    }
  }
}`, w.class, topK, string(vector)),
	}

	payload, err := json.Marshal(gql)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint+"/v1/graphql", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	w.setHeaders(req)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weaviate search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weaviate search failed: %s", strings.TrimSpace(string(data)))
	}

	var response struct {
		Data map[string]map[string][]struct {
			DocID      string `json:"docId"`
			Content    string `json:"content"`
			Source     string `json:"source"`
			DocType    string `json:"docType"`
			Additional struct {
				Certainty float64 `json:"certainty"`
			} `json:"_additional"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode weaviate response: %w", err)
	}

	hits := response.Data["Get"][w.class]
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			DocID:   hit.DocID,
			Score:   hit.Additional.Certainty,
			Content: hit.Content,
			Metadata: map[string]string{
				"content": hit.Content,
				"source":  hit.Source,
				"type":    hit.DocType,
			},
		})
	}
	return results, nil
}

// deterministicUUID derives a stable Weaviate object id from the document id
// so repeated indexing replaces rather than duplicates.
func deterministicUUID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("triage-engine/"+docID)).String()
}

func (w *WeaviateIndex) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}
}
