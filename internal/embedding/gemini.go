package embedding

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var embedRequests = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tutorbook_embedding_requests_total",
	Help: "Number of embedContent requests issued.",
})

const (
	// Dimension is the fixed vector length produced by the embedding model.
	Dimension = 768

	DefaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel     = "models/text-embedding-004"
	DefaultBatchSize = 50
)

// ErrMissingAPIKey reports an unconfigured embedding client. Checked before
// any network call.
var ErrMissingAPIKey = errors.New("embedding api key is not set")

// TaskType tells the embedding API whether the text is a document being
// indexed or a search query; the distinction affects vector geometry for
// asymmetric retrieval.
type TaskType string

const (
	TaskRetrievalDocument TaskType = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    TaskType = "RETRIEVAL_QUERY"
)

// Client calls the Gemini embedContent endpoint.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	batchSize int
	client    *http.Client
}

// Config configures the embedding client.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	BatchSize int
	Timeout   time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Embed converts a single text into a fixed-dimension vector.
func (c *Client) Embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	embedRequests.Inc()
	reqBody := map[string]any{
		"content": map[string]any{
			"parts": []map[string]any{{"text": text}},
		},
		"taskType": string(task),
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s:embedContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini api: unexpected response format: %s", strings.TrimSpace(string(body)))
	}
	return parsed.Embedding.Values, nil
}

// EmbedBatch converts an ordered list of texts into a same-length ordered
// list of vectors. Requests within one batch are issued concurrently and
// correlated back by index; batches run strictly sequentially, bounding peak
// outbound concurrency to the batch size. The first failed request aborts the
// whole call; there is no partial-batch retry.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for batchStart := 0; batchStart < len(texts); batchStart += c.batchSize {
		batchEnd := batchStart + c.batchSize
		if batchEnd > len(texts) {
			batchEnd = len(texts)
		}
		g, gctx := errgroup.WithContext(ctx)
		for i := batchStart; i < batchEnd; i++ {
			idx := i
			g.Go(func() error {
				vec, err := c.Embed(gctx, texts[idx], task)
				if err != nil {
					return fmt.Errorf("embed text %d: %w", idx, err)
				}
				out[idx] = vec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
