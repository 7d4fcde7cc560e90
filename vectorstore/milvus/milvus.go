// Package milvus implements the Milvus vector store driver (spec
// §4.7.4): ensures the collection schema exists, inserts via the v2
// REST entities endpoint, and distinguishes Milvus's top-level `code`
// response field from transport-level HTTP failures. The database named
// by Database is not created; it must already exist.
package milvus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vecmigrate/vecmigrate/vectorstore"
)

const codeCollectionNotFound = 100 // Milvus API error code for "collection not found" on the stats probe

type Driver struct {
	BaseURL    string
	Token      string
	Database   string
	Dimension  int
	Metric     vectorstore.Metric
	Client     *http.Client

	knownCollections map[string]bool
}

func New(baseURL, token, database string, dimension int, metric vectorstore.Metric) *Driver {
	return &Driver{
		BaseURL: strings.TrimRight(baseURL, "/"), Token: token, Database: database,
		Dimension: dimension, Metric: metric, Client: &http.Client{}, knownCollections: make(map[string]bool),
	}
}

func (d *Driver) Store(ctx context.Context, table string, items []vectorstore.Item) error {
	if err := d.ensureCollection(ctx, table); err != nil {
		return err
	}

	data := make([]map[string]any, len(items))
	for i, item := range items {
		row := map[string]any{
			"id":     item.ID,
			"vector": vectorstore.ShapeVector("milvus", table, item.Vector, d.Dimension),
		}
		for k, v := range item.Metadata {
			row[strings.ReplaceAll(k, ".", "_")] = v
		}
		data[i] = row
	}

	if err := d.call(ctx, "/v2/vectordb/entities/insert", map[string]any{
		"dbName": d.Database, "collectionName": table, "data": data,
	}); err != nil {
		return err
	}

	if err := d.call(ctx, "/v2/vectordb/collections/flush", map[string]any{
		"dbName": d.Database, "collectionName": table,
	}); err != nil {
		vectorstore.DriverLog("milvus", table).Warn("milvus: flush failed, continuing", "error", err)
	}
	return nil
}

func (d *Driver) ensureCollection(ctx context.Context, table string) error {
	if d.knownCollections[table] {
		return nil
	}

	needsCreate := false
	var stats struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := d.callInto(ctx, "/v2/vectordb/collections/get_stats", map[string]any{
		"dbName": d.Database, "collectionName": table,
	}, &stats); err != nil {
		return err
	}
	if stats.Code == codeCollectionNotFound || strings.Contains(strings.ToLower(stats.Message), "collection not found") {
		needsCreate = true
	}

	if needsCreate {
		body := map[string]any{
			"dbName":         d.Database,
			"collectionName": table,
			"schema": map[string]any{
				"enableDynamicField": true,
				"fields": []map[string]any{
					{"fieldName": "id", "dataType": "VarChar", "isPrimary": true, "elementTypeParams": map[string]any{"max_length": 256}},
					{"fieldName": "vector", "dataType": "FloatVector", "elementTypeParams": map[string]any{"dim": d.Dimension}},
				},
			},
			"indexParams": []map[string]any{
				{"fieldName": "vector", "metricType": milvusMetric(d.Metric)},
			},
		}
		if err := d.call(ctx, "/v2/vectordb/collections/create", body); err != nil {
			return err
		}
	}

	d.knownCollections[table] = true
	return nil
}

func (d *Driver) call(ctx context.Context, path string, body any) error {
	var out struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := d.callInto(ctx, path, body, &out); err != nil {
		return err
	}
	if out.Code != 0 {
		return fmt.Errorf("milvus: %s returned code %d: %s", path, out.Code, out.Message)
	}
	return nil
}

func (d *Driver) callInto(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.Token)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("milvus: POST %s returned HTTP status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func milvusMetric(m vectorstore.Metric) string {
	switch m {
	case vectorstore.MetricEuclidean:
		return "L2"
	case vectorstore.MetricDotProduct:
		return "IP"
	default:
		return "COSINE"
	}
}
