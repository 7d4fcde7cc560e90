// Package redis implements the Redis vector store driver (spec §4.7.1):
// it requires a Redis deployment with vector-indexed JSON support and
// supports two write modes, grouped (one document per table) and
// indexed (one document per item, backed by a vector index).
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vecmigrate/vecmigrate/vectorstore"
)

type Mode int

const (
	ModeIndexed Mode = iota
	ModeGrouped
)

type Driver struct {
	Client    *goredis.Client
	Dimension int
	Metric    vectorstore.Metric
	Mode      Mode

	indexedTables map[string]bool
}

func New(client *goredis.Client, dimension int, metric vectorstore.Metric, mode Mode) *Driver {
	return &Driver{Client: client, Dimension: dimension, Metric: metric, Mode: mode, indexedTables: make(map[string]bool)}
}

func (d *Driver) Store(ctx context.Context, table string, items []vectorstore.Item) error {
	if d.Mode == ModeGrouped {
		return d.storeGrouped(ctx, table, items)
	}
	return d.storeIndexed(ctx, table, items)
}

func (d *Driver) storeGrouped(ctx context.Context, table string, items []vectorstore.Item) error {
	docs := make([]map[string]any, len(items))
	for i, item := range items {
		vec := vectorstore.ShapeVector("redis", table, item.Vector, d.Dimension)
		doc := map[string]any{"id": item.ID, "vector": vec}
		for k, v := range item.Metadata {
			doc[k] = v
		}
		docs[i] = doc
	}

	body, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("table:%s", table)
	return d.Client.Do(ctx, "JSON.SET", key, "$", string(body)).Err()
}

func (d *Driver) storeIndexed(ctx context.Context, table string, items []vectorstore.Item) error {
	if err := d.ensureIndex(ctx, table, items); err != nil {
		return err
	}

	pipe := d.Client.Pipeline()
	for _, item := range items {
		vec := vectorstore.ShapeVector("redis", table, item.Vector, d.Dimension)
		doc := map[string]any{
			"vector":        vec,
			"source_table":  table,
			"original_id":   item.ID,
		}
		for k, v := range item.Metadata {
			doc[k] = v
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("item:%s:%s", table, item.ID)
		pipe.Do(ctx, "JSON.SET", key, "$", string(body))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// ensureIndex provisions `idx:<T>` on first write to table T (spec
// §4.7.1), treating "Index already exists" as benign per the shared
// provisioning contract in §4.7.
func (d *Driver) ensureIndex(ctx context.Context, table string, items []vectorstore.Item) error {
	if d.indexedTables[table] {
		return nil
	}

	args := []any{
		"FT.CREATE", fmt.Sprintf("idx:%s", table),
		"ON", "JSON",
		"PREFIX", "1", fmt.Sprintf("item:%s:", table),
		"SCHEMA",
		"$.vector", "AS", "vector", "VECTOR", "FLAT", "6",
		"TYPE", "FLOAT32", "DIM", fmt.Sprintf("%d", d.Dimension), "DISTANCE_METRIC", redisMetric(d.Metric),
		"$.source_table", "AS", "source_table", "TEXT", "SORTABLE",
		"$.original_id", "AS", "original_id", "TEXT", "SORTABLE",
	}
	for k, field := range heuristicFields(items) {
		args = append(args, fmt.Sprintf("$.%s", k), "AS", k, field)
	}

	err := d.Client.Do(ctx, args...).Err()
	if err != nil && !isBenignConflict(err) {
		return err
	}
	d.indexedTables[table] = true
	return nil
}

// heuristicFields discovers TEXT/NUMERIC fields from the first item's
// scalar metadata keys, per spec §4.7.1.
func heuristicFields(items []vectorstore.Item) map[string]string {
	out := make(map[string]string)
	if len(items) == 0 {
		return out
	}
	for k, v := range items[0].Metadata {
		switch v.(type) {
		case int64, float64:
			out[k] = "NUMERIC"
		case string:
			out[k] = "TEXT"
		}
	}
	return out
}

func redisMetric(m vectorstore.Metric) string {
	switch m {
	case vectorstore.MetricEuclidean:
		return "L2"
	case vectorstore.MetricDotProduct:
		return "IP"
	default:
		return "COSINE"
	}
}

func isBenignConflict(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
