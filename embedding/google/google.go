// Package google implements the Google embedding provider (spec §4.6):
// one call per text to the Gemini embedContent endpoint, enforcing a
// minimum inter-request delay and surfacing a rate-limit diagnostic on
// HTTP 429 instead of retrying silently.
package google

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

const defaultMinInterval = 1100 * time.Millisecond

// RateLimitError marks an HTTP 429 response from the embedding endpoint,
// per spec §4.6's "surfaces a rate-limit diagnostic and fails" clause —
// unlike TEI, the Google provider never retries a 429 on its own.
type RateLimitError struct {
	Model string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("google: embedContent rate limited for model %q", e.Model)
}

type Provider struct {
	Client      *genai.Client
	Model       string
	TaskType    string
	MinInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

func New(client *genai.Client, model, taskType string) *Provider {
	return &Provider{Client: client, Model: model, TaskType: taskType, MinInterval: defaultMinInterval}
}

func (p *Provider) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.generateOne(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (p *Provider) generateOne(ctx context.Context, text string) ([]float32, error) {
	p.throttle()

	resp, err := p.Client.Models.EmbedContent(ctx, p.Model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: p.TaskType,
	})
	if err != nil {
		if isRateLimited(err) {
			return nil, &RateLimitError{Model: p.Model}
		}
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("google: embedContent returned no embeddings for model %q", p.Model)
	}
	return resp.Embeddings[0].Values, nil
}

// throttle blocks the caller until at least MinInterval has elapsed
// since the previous request, serializing calls the way the single
// Gemini API key's rate limit requires.
func (p *Provider) throttle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	minInterval := p.MinInterval
	if minInterval <= 0 {
		minInterval = defaultMinInterval
	}
	if wait := minInterval - time.Since(p.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	p.lastCall = time.Now()
}

func isRateLimited(err error) bool {
	return err != nil && strings.Contains(err.Error(), "429")
}
