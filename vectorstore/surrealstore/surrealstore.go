// Package surrealstore implements the SurrealDB vector store driver
// (spec §4.7.5): defines namespace/database on construction, defines
// each table schemalessly on first write, then batches records through
// the /import endpoint as one CREATE statement per record.
package surrealstore

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
	Namespace string
	Database  string
	User      string
	Pass      string
	Client    *http.Client

	knownTables map[string]bool
}

func New(baseURL, namespace, database, user, pass string) (*Driver, error) {
	d := &Driver{
		BaseURL: strings.TrimRight(baseURL, "/"), Namespace: namespace, Database: database,
		User: user, Pass: pass, Client: &http.Client{}, knownTables: make(map[string]bool),
	}
	ctx := context.Background()
	if err := d.sql(ctx, fmt.Sprintf("DEFINE NAMESPACE IF NOT EXISTS %s;", namespace)); err != nil {
		return nil, err
	}
	if err := d.sql(ctx, fmt.Sprintf("DEFINE DATABASE IF NOT EXISTS %s;", database)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) Store(ctx context.Context, table string, items []vectorstore.Item) error {
	tableLower := strings.ToLower(table)
	if err := d.ensureTable(ctx, tableLower); err != nil {
		return err
	}

	var sb strings.Builder
	for _, item := range items {
		doc := map[string]any{"vector": item.Vector}
		for k, v := range item.Metadata {
			doc[k] = v
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		sb.WriteString(fmt.Sprintf("CREATE %s:`%s` CONTENT %s;\n", tableLower, item.ID, body))
	}

	return d.importStatements(ctx, sb.String())
}

func (d *Driver) ensureTable(ctx context.Context, table string) error {
	if d.knownTables[table] {
		return nil
	}
	stmt := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s TYPE ANY SCHEMALESS PERMISSIONS NONE;", table)
	if err := d.sql(ctx, stmt); err != nil {
		return err
	}
	d.knownTables[table] = true
	return nil
}

func (d *Driver) sql(ctx context.Context, query string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/sql", strings.NewReader(query))
	if err != nil {
		return err
	}
	d.setHeaders(req, "text/plain")

	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("surrealdb: /sql returned status %d", resp.StatusCode)
	}
	return nil
}

func (d *Driver) importStatements(ctx context.Context, statements string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/import", bytes.NewReader([]byte(statements)))
	if err != nil {
		return err
	}
	d.setHeaders(req, "text/plain")

	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("surrealdb: /import returned status %d", resp.StatusCode)
	}
	return nil
}

func (d *Driver) setHeaders(req *http.Request, contentType string) {
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("NS", d.Namespace)
	req.Header.Set("DB", d.Database)
	if d.User != "" {
		req.SetBasicAuth(d.User, d.Pass)
	}
}
