// Package tei implements the Text Embeddings Inference provider
// (spec §4.6): POST <base>/embed with {inputs:[...]}, expecting
// [[f32...], ...]; retries up to three times with a 500ms backoff on
// transport error and fails outright on a non-2xx response.
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	maxAttempts   = 3
	retryInterval = 500 * time.Millisecond
)

type Provider struct {
	BaseURL string
	Client  *http.Client
}

func New(baseURL string) *Provider {
	return &Provider{BaseURL: baseURL, Client: &http.Client{}}
}

type request struct {
	Inputs []string `json:"inputs"`
}

func (p *Provider) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(request{Inputs: texts})
	if err != nil {
		return nil, err
	}

	var vectors [][]float32
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/embed", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.Client.Do(req)
		if err != nil {
			// transport error: retryable
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("tei: /embed returned status %d", resp.StatusCode))
		}

		var out [][]float32
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(err)
		}
		vectors = out
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), maxAttempts-1)
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return vectors, nil
}
