// Package chroma implements the Chroma vector store driver (spec
// §4.7.3): ensures the tenant's database exists, ensures a collection
// named after the source table exists, then adds embeddings to it.
// Metadata values that are not scalar are dropped, and a backend
// "Error in compaction" response is treated as non-fatal.
package chroma

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
	Token     string
	Tenant    string
	Database  string
	Dimension int
	Metric    vectorstore.Metric
	Client    *http.Client

	dbEnsured       bool
	collectionIDs   map[string]string
}

func New(baseURL, token, tenant, database string, dimension int, metric vectorstore.Metric) *Driver {
	return &Driver{
		BaseURL: strings.TrimRight(baseURL, "/"), Token: token, Tenant: tenant, Database: database,
		Dimension: dimension, Metric: metric, Client: &http.Client{}, collectionIDs: make(map[string]string),
	}
}

func (d *Driver) Store(ctx context.Context, table string, items []vectorstore.Item) error {
	if err := d.ensureDatabase(ctx); err != nil {
		return err
	}
	collectionID, err := d.ensureCollection(ctx, table)
	if err != nil {
		return err
	}

	ids := make([]string, len(items))
	embeddings := make([][]float32, len(items))
	documents := make([]string, len(items))
	metadatas := make([]map[string]any, len(items))
	for i, item := range items {
		ids[i] = fmt.Sprintf("%s:%s", table, item.ID)
		embeddings[i] = vectorstore.ShapeVector("chroma", table, item.Vector, d.Dimension)
		documents[i] = ""
		metadatas[i] = vectorstore.StringifyMetadata(item.Metadata, true)
	}

	path := fmt.Sprintf("/collections/%s/add", collectionID)
	_, err = d.do(ctx, http.MethodPost, path, map[string]any{
		"ids": ids, "embeddings": embeddings, "documents": documents, "metadatas": metadatas,
	})
	if err != nil && isBenignCompactionError(err) {
		return nil
	}
	return err
}

func (d *Driver) ensureDatabase(ctx context.Context) error {
	if d.dbEnsured {
		return nil
	}
	path := fmt.Sprintf("/tenants/%s/databases", d.Tenant)
	_, err := d.do(ctx, http.MethodPost, path, map[string]any{"name": d.Database})
	if err != nil && !isBenignConflict(err) {
		return err
	}
	d.dbEnsured = true
	return nil
}

func (d *Driver) ensureCollection(ctx context.Context, table string) (string, error) {
	if id, ok := d.collectionIDs[table]; ok {
		return id, nil
	}

	resp, err := d.do(ctx, http.MethodPost, "/collections", map[string]any{
		"name":      table,
		"dimension": d.Dimension,
		"configuration_json": map[string]any{
			"hnsw": map[string]any{
				"space": string(d.Metric), "ef_construction": 100, "ef_search": 100,
				"max_neighbors": 16, "resize_factor": 1.2, "sync_threshold": 1000,
			},
		},
	})
	if err != nil && !isBenignConflict(err) {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if resp != nil {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	if out.ID == "" {
		out.ID = table
	}
	d.collectionIDs[table] = out.ID
	return out.ID, nil
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
	if d.Token != "" {
		req.Header.Set("X-Chroma-Token", d.Token)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		return resp, fmt.Errorf("chroma: %s %s returned status %d: %s", method, path, resp.StatusCode, buf.String())
	}
	return resp, nil
}

func isBenignConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "409")
}

func isBenignCompactionError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "error in compaction")
}
