// Package pinecone implements the Pinecone vector store driver (spec
// §4.7.6): supports both a local emulator (host contains localhost/
// 127.0.0.1/::1) and Pinecone's hosted control plane, resolving the
// data-plane host once per index before upserting.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vecmigrate/vecmigrate/vectorstore"
)

const controlPlaneURL = "https://api.pinecone.io"

type Driver struct {
	Host      string // local mode: direct data-plane host; cloud mode: seed used only to detect mode
	APIKey    string
	IndexName string
	Dimension int
	Metric    vectorstore.Metric
	Cloud     string
	Region    string
	Client    *http.Client

	dataPlaneHost string
}

func New(host, apiKey, indexName, cloud, region string, dimension int, metric vectorstore.Metric) *Driver {
	return &Driver{
		Host: host, APIKey: apiKey, IndexName: indexName, Dimension: dimension,
		Metric: metric, Cloud: cloud, Region: region, Client: &http.Client{},
	}
}

func (d *Driver) isLocal() bool {
	return strings.Contains(d.Host, "localhost") || strings.Contains(d.Host, "127.0.0.1") || strings.Contains(d.Host, "::1")
}

func (d *Driver) Store(ctx context.Context, table string, items []vectorstore.Item) error {
	host, err := d.ensureDataPlaneHost(ctx)
	if err != nil {
		return err
	}

	vectors := make([]map[string]any, len(items))
	for i, item := range items {
		meta := vectorstore.StringifyMetadata(item.Metadata, false)
		for k, v := range meta {
			if v == nil {
				delete(meta, k)
			}
		}
		meta["table"] = table
		vectors[i] = map[string]any{
			"id":       item.ID,
			"values":   vectorstore.ShapeVector("pinecone", table, item.Vector, d.Dimension),
			"metadata": meta,
		}
	}

	_, err = d.do(ctx, host, http.MethodPost, "/vectors/upsert", map[string]any{
		"vectors":   vectors,
		"namespace": table,
	})
	return err
}

func (d *Driver) ensureDataPlaneHost(ctx context.Context) (string, error) {
	if d.dataPlaneHost != "" {
		return d.dataPlaneHost, nil
	}
	if d.isLocal() {
		d.dataPlaneHost = d.Host
		return d.dataPlaneHost, nil
	}

	createBody := map[string]any{
		"name":      d.IndexName,
		"dimension": d.Dimension,
		"metric":    string(d.Metric),
		"spec": map[string]any{
			"serverless": map[string]any{"cloud": d.Cloud, "region": d.Region},
		},
	}
	resp, err := d.do(ctx, controlPlaneURL, http.MethodPost, "/indexes", createBody)
	if err != nil && !isBenignConflict(err) {
		return "", err
	}

	var out struct {
		Host string `json:"host"`
	}
	if resp != nil {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	if out.Host == "" {
		out.Host, err = d.describeIndex(ctx)
		if err != nil {
			return "", err
		}
	}

	d.dataPlaneHost = "https://" + out.Host
	return d.dataPlaneHost, nil
}

func (d *Driver) describeIndex(ctx context.Context) (string, error) {
	resp, err := d.do(ctx, controlPlaneURL, http.MethodGet, "/indexes/"+d.IndexName, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Host string `json:"host"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Host, nil
}

func (d *Driver) do(ctx context.Context, base, method, path string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(base, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", d.APIKey)

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("pinecone: %s %s returned status %d", method, path, resp.StatusCode)
		if resp.StatusCode == http.StatusConflict {
			return resp, &conflictError{err}
		}
		return resp, err
	}
	return resp, nil
}

type conflictError struct{ error }

func isBenignConflict(err error) bool {
	_, ok := err.(*conflictError)
	return ok
}
