// Package generator invokes a chat-completion model with an assembled
// retrieval context.
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"ragchat/internal/domain"
)

// Config configures the OpenAI-compatible chat client.
type Config struct {
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// OpenAI implements domain.Generator and domain.Pinger. Transient failures
// are retried with exponential backoff inside this collaborator; the
// pipeline never retries on top of it.
type OpenAI struct {
	client     *goopenai.Client
	model      string
	timeout    time.Duration
	maxRetries int
}

func New(cfg Config) (*OpenAI, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	clientCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		client:     goopenai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Generate produces an answer grounded in the assembled context.
func (g *OpenAI) Generate(ctx context.Context, assembled domain.AssembledContext, question string) (string, error) {
	messages := []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: BuildSystemPrompt(assembled)},
		{Role: goopenai.ChatMessageRoleUser, Content: question},
	}
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", domain.ErrTimeout, ctx.Err())
			case <-time.After(retryDelay(attempt - 1)):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		resp, err := g.client.CreateChatCompletion(callCtx, goopenai.ChatCompletionRequest{
			Model:    g.model,
			Messages: messages,
		})
		cancel()
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", domain.ErrTimeout, err)
			}
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("no completion returned")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("%w: %v", domain.ErrGeneration, lastErr)
}

// Ping verifies the endpoint is reachable without running a completion.
func (g *OpenAI) Ping(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if _, err := g.client.ListModels(callCtx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	return nil
}

func retryDelay(attempt int) time.Duration {
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
