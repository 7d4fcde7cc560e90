// Package ollama implements the Ollama embedding provider (spec §4.6):
// POST <base>/api/embeddings with a single prompt, or a batched
// {model, prompts} request; on batched failure or shape mismatch it
// falls back to parallel single-item calls bounded by the configured
// concurrency.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/vecmigrate/vecmigrate/util"
)

type Provider struct {
	BaseURL     string
	Model       string
	Concurrency int
	Client      *retryablehttp.Client
}

func New(baseURL, model string, concurrency int) *Provider {
	client := retryablehttp.NewClient()
	client.Logger = nil
	return &Provider{BaseURL: baseURL, Model: model, Concurrency: concurrency, Client: client}
}

type batchRequest struct {
	Model   string   `json:"model"`
	Prompts []string `json:"prompts"`
}

type batchResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type singleRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type singleResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *Provider) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := p.generateBatched(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		return vectors, nil
	}
	return p.generateParallelSingle(ctx, texts)
}

func (p *Provider) generateBatched(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(batchRequest{Model: p.Model, Prompts: texts})
	if err != nil {
		return nil, err
	}
	var out batchResponse
	if err := p.post(ctx, "/api/embeddings", body, &out); err != nil {
		return nil, err
	}
	return out.Embeddings, nil
}

func (p *Provider) generateParallelSingle(ctx context.Context, texts []string) ([][]float32, error) {
	return util.ConcurrentMapFuncWithError(texts, p.Concurrency, func(text string) ([]float32, error) {
		body, err := json.Marshal(singleRequest{Model: p.Model, Prompt: text})
		if err != nil {
			return nil, err
		}
		var out singleResponse
		if err := p.post(ctx, "/api/embeddings", body, &out); err != nil {
			return nil, err
		}
		return out.Embedding, nil
	})
}

func (p *Provider) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ollama: %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
