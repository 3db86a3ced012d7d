// Package openai embeds text through an OpenAI-compatible embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"ragchat/internal/domain"
)

// Config configures the embeddings client.
type Config struct {
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Client implements domain.Embedder against a remote embeddings endpoint.
// Transient failures are retried here with exponential backoff; once the
// attempts are exhausted the error surfaces as a terminal ErrEmbedding.
type Client struct {
	client     *goopenai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	dimension  int
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	clientCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		client:     goopenai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
	}, nil
}

func (c *Client) Name() string { return "openai" }

// Prepare is not required for remote embedding; the dimension is fixed
// lazily from the first response.
func (c *Client) Prepare(corpus []string) error { return nil }

func (c *Client) Dimension() int { return c.dimension }

// Embed returns an L2-normalized embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, input string) ([]float64, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: empty input", domain.ErrEmbedding)
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrTimeout, ctx.Err())
			case <-time.After(retryDelay(attempt - 1)):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateEmbeddings(callCtx, goopenai.EmbeddingRequest{
			Model: goopenai.EmbeddingModel(c.model),
			Input: []string{input},
		})
		cancel()
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrTimeout, err)
			}
			lastErr = err
			continue
		}
		if len(resp.Data) == 0 {
			lastErr = errors.New("no embedding returned")
			continue
		}
		vec := make([]float64, len(resp.Data[0].Embedding))
		for i, v := range resp.Data[0].Embedding {
			vec[i] = float64(v)
		}
		normalize(vec)
		if c.dimension == 0 {
			c.dimension = len(vec)
		}
		return vec, nil
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, lastErr)
}

func normalize(v []float64) {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] *= inv
	}
}

func retryDelay(attempt int) time.Duration {
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
