// Package qdrant is a minimal REST-backed implementation of domain.Index.
// It assumes cosine distance and creates the collection on first use.
package qdrant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"ragchat/internal/domain"
)

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Index talks to a remote Qdrant collection. Network errors are structural
// here and surface immediately; retry policy lives in the embedder and
// generator collaborators only.
type Index struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client

	mu      sync.Mutex
	created bool
}

func New(cfg Config, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  dimension,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (ix *Index) Dimension() int { return ix.dimension }

// Len returns the number of points in the collection, or 0 when the
// collection is unreachable.
func (ix *Index) Len() int {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := ix.postJSON(fmt.Sprintf("%s/collections/%s/points/count", ix.url, ix.collection),
		map[string]any{"exact": true}, &resp)
	if err != nil {
		return 0
	}
	return resp.Result.Count
}

// Ping checks that the Qdrant endpoint answers at all.
func (ix *Index) Ping() error {
	req, err := http.NewRequest(http.MethodGet, ix.url+"/collections", nil)
	if err != nil {
		return err
	}
	ix.auth(req)
	resp, err := ix.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant ping failed: %s", resp.Status)
	}
	return nil
}

func (ix *Index) Insert(chunk domain.Chunk, vector []float64) error {
	if len(vector) != ix.dimension {
		return fmt.Errorf("%w: got %d, index has %d", domain.ErrDimensionMismatch, len(vector), ix.dimension)
	}
	if err := ix.ensureCollection(); err != nil {
		return err
	}
	exists, err := ix.hasPoint(chunk.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, chunk.ID)
	}
	body := map[string]any{
		"points": []map[string]any{{
			"id":     chunk.ID,
			"vector": vector,
			"payload": map[string]any{
				"source":   chunk.Source,
				"position": chunk.Position,
				"text":     chunk.Text,
			},
		}},
	}
	return ix.putJSON(fmt.Sprintf("%s/collections/%s/points?wait=true", ix.url, ix.collection), body)
}

func (ix *Index) Delete(id string) error {
	body := map[string]any{"points": []string{id}}
	return ix.postJSON(fmt.Sprintf("%s/collections/%s/points/delete?wait=true", ix.url, ix.collection), body, nil)
}

func (ix *Index) Search(vector []float64, k int, filter *domain.Filter) ([]domain.ScoredChunk, error) {
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("%w: got %d, index has %d", domain.ErrDimensionMismatch, len(vector), ix.dimension)
	}
	if k <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if filter != nil && len(filter.Sources) > 0 {
		req["filter"] = map[string]any{
			"must": []map[string]any{{
				"key":   "source",
				"match": map[string]any{"any": filter.Sources},
			}},
		}
	}
	var resp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := ix.postJSON(fmt.Sprintf("%s/collections/%s/points/search", ix.url, ix.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{ID: r.ID}
		if v, ok := r.Payload["source"].(string); ok {
			chunk.Source = v
		}
		if v, ok := r.Payload["position"].(float64); ok {
			chunk.Position = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		results = append(results, domain.ScoredChunk{Chunk: chunk, Score: r.Score})
	}
	// Qdrant orders by score; re-sort so equal scores keep the same
	// deterministic id tie-break as the in-memory index.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

func (ix *Index) ensureCollection() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.created {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     ix.dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant answers 200 when the collection already exists with the same schema.
	if err := ix.putJSON(fmt.Sprintf("%s/collections/%s", ix.url, ix.collection), body); err != nil {
		return err
	}
	ix.created = true
	return nil
}

func (ix *Index) hasPoint(id string) (bool, error) {
	req, err := http.NewRequest(http.MethodGet,
		fmt.Sprintf("%s/collections/%s/points/%s", ix.url, ix.collection, id), nil)
	if err != nil {
		return false, err
	}
	ix.auth(req)
	resp, err := ix.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 300:
		return false, fmt.Errorf("qdrant point lookup failed: %s", resp.Status)
	}
	return true, nil
}

func (ix *Index) auth(req *http.Request) {
	if ix.apiKey != "" {
		req.Header.Set("api-key", ix.apiKey)
	}
}

func (ix *Index) putJSON(url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	ix.auth(req)
	resp, err := ix.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (ix *Index) postJSON(url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	ix.auth(req)
	resp, err := ix.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
