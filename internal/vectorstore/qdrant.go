package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrCollectionNotFound reports that the target collection does not exist.
// Callers distinguish this at query time (soft, empty results) from ingestion
// time (hard stop).
var ErrCollectionNotFound = errors.New("collection not found")

// Client is a minimal REST client to Qdrant.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(url, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetCollectionInfo fetches collection metadata, or ErrCollectionNotFound.
func (c *Client) GetCollectionInfo(ctx context.Context, name string) (CollectionInfo, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return CollectionInfo{}, err
	}
	var parsed struct {
		Result struct {
			PointsCount int64 `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size     int    `json:"size"`
						Distance string `json:"distance"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return CollectionInfo{}, err
	}
	return CollectionInfo{
		PointsCount: parsed.Result.PointsCount,
		VectorSize:  parsed.Result.Config.Params.Vectors.Size,
		Distance:    parsed.Result.Config.Params.Vectors.Distance,
	}, nil
}

// CollectionExists reports whether the collection exists, treating only the
// not-found condition as a non-error.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, err := c.GetCollectionInfo(ctx, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrCollectionNotFound) {
		return false, nil
	}
	return false, err
}

// CreateCollection creates a cosine-distance collection of the given vector
// size. Creation is an explicit step; upserts never auto-create.
func (c *Client) CreateCollection(ctx context.Context, name string, vectorSize int) error {
	req := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	_, err := c.doRequest(ctx, http.MethodPut, "/collections/"+name, req)
	return err
}

// DeleteCollection drops the collection and all of its points.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/collections/"+name, nil)
	return err
}

// UpsertPoints writes points into an existing collection.
func (c *Client) UpsertPoints(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	req := map[string]any{"points": points}
	_, err := c.doRequest(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", req)
	return err
}

// QueryPoints runs a similarity search filtered to points tagged with the
// given book id. Vectors are excluded from the response; only scores and
// payloads come back.
func (c *Client) QueryPoints(ctx context.Context, collection string, vector []float32, book string, limit int) ([]ScoredPoint, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "book",
					"match": map[string]any{"value": book},
				},
			},
		},
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/collections/"+collection+"/points/search", req)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Result []struct {
			ID      any     `json:"id"`
			Score   float64 `json:"score"`
			Payload Payload `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	points := make([]ScoredPoint, 0, len(parsed.Result))
	for _, item := range parsed.Result {
		points = append(points, ScoredPoint{
			ID:      fmt.Sprintf("%v", item.ID),
			Score:   item.Score,
			Payload: item.Payload,
		})
	}
	return points, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewBuffer(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if isNotFound(resp.StatusCode, msg) {
			return nil, fmt.Errorf("qdrant status %d: %s: %w", resp.StatusCode, msg, ErrCollectionNotFound)
		}
		return nil, fmt.Errorf("qdrant status %d: %s", resp.StatusCode, msg)
	}
	return data, nil
}

// isNotFound classifies a missing collection by HTTP status, with a substring
// match on the error body as a compatibility shim for older servers.
func isNotFound(status int, body string) bool {
	if status == http.StatusNotFound {
		return true
	}
	return strings.Contains(body, "doesn't exist") || strings.Contains(body, "Not found")
}
