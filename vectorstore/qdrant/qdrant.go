// Package qdrant implements the Qdrant vector store driver (spec
// §4.7.2): checks collection existence via GET, provisions it with PUT
// on a 404, then upserts points with PUT .../points?wait=true.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vecmigrate/vecmigrate/vectorstore"
)

type Driver struct {
	BaseURL   string
	APIKey    string
	Dimension int
	Metric    vectorstore.Metric
	Client    *http.Client

	known map[string]bool
}

func New(baseURL, apiKey string, dimension int, metric vectorstore.Metric) *Driver {
	return &Driver{BaseURL: strings.TrimRight(baseURL, "/"), APIKey: apiKey, Dimension: dimension, Metric: metric, Client: &http.Client{}, known: make(map[string]bool)}
}

func (d *Driver) Store(ctx context.Context, table string, items []vectorstore.Item) error {
	collection := strings.ToLower(table)
	if err := d.ensureCollection(ctx, collection); err != nil {
		return err
	}

	points := make([]map[string]any, len(items))
	for i, item := range items {
		points[i] = map[string]any{
			"id":      item.ID,
			"vector":  vectorstore.ShapeVector("qdrant", table, item.Vector, d.Dimension),
			"payload": item.Metadata,
		}
	}

	_, err := d.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", collection), map[string]any{"points": points})
	return err
}

func (d *Driver) ensureCollection(ctx context.Context, collection string) error {
	if d.known[collection] {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"/collections/"+collection, nil)
	if err != nil {
		return err
	}
	d.setAuth(req)
	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		d.known[collection] = true
		return nil
	}
	if resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("qdrant: GET /collections/%s returned status %d", collection, resp.StatusCode)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     d.Dimension,
			"distance": qdrantDistance(d.Metric),
		},
	}
	if _, err := d.do(ctx, http.MethodPut, "/collections/"+collection, body); err != nil {
		return err
	}
	d.known[collection] = true
	return nil
}

func (d *Driver) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, d.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	d.setAuth(req)

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, fmt.Errorf("qdrant: %s %s returned status %d", method, path, resp.StatusCode)
	}
	return resp, nil
}

func (d *Driver) setAuth(req *http.Request) {
	if d.APIKey != "" {
		req.Header.Set("api-key", d.APIKey)
	}
}

func qdrantDistance(m vectorstore.Metric) string {
	switch m {
	case vectorstore.MetricEuclidean:
		return "Euclid"
	case vectorstore.MetricDotProduct:
		return "Dot"
	default:
		return "Cosine"
	}
}
