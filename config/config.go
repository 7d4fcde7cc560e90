// Package config defines the runtime configuration surface (spec §6,
// expanded in SPEC_FULL.md §9.3): a plain struct built from CLI flags,
// an optional YAML file, and environment variable overrides, following
// the teacher's flag-then-file-then-env precedence.
package config

import (
	"os"
	"time"

	"github.com/vecmigrate/vecmigrate/util"
	"gopkg.in/yaml.v2"
)

// Config mirrors the abstract migration surface: where the dump lives,
// which vector backend to write to, and the embedding/vector-store
// parameters every driver and the orchestrator need.
type Config struct {
	DumpFile          string `yaml:"dump_file"`
	ExcludeRulesFile  string `yaml:"exclude_rules_file"`

	VectorExportType string `yaml:"vector_export_type"` // redis | qdrant | chroma | milvus | surreal | pinecone
	VectorHost       string `yaml:"vector_host"`
	VectorUser       string `yaml:"vector_user"`
	VectorPass       string `yaml:"vector_pass"`
	Database         string `yaml:"database"`
	Namespace        string `yaml:"namespace"`
	Tenant           string `yaml:"tenant"`
	Cloud            string `yaml:"cloud"`  // Pinecone cloud mode: serverless cloud provider (aws, gcp, azure)
	Region           string `yaml:"region"` // Pinecone cloud mode: region

	Dimension        int    `yaml:"dimension"`
	Metric           string `yaml:"metric"`
	MaxPayloadSizeMB int    `yaml:"max_payload_size_mb"`
	ChunkSize        int    `yaml:"chunk_size"` // vector store batch item-count ceiling (spec §4.8)

	EmbeddingProvider     string        `yaml:"embedding_provider"` // ollama | tei | google
	EmbeddingBaseURL      string        `yaml:"embedding_base_url"`
	EmbeddingModel        string        `yaml:"embedding_model"`
	EmbeddingAPIKey       string        `yaml:"embedding_api_key"`
	EmbeddingChunkSize    int           `yaml:"embedding_chunk_size"`    // spec §4.6 C: records per provider call
	EmbeddingTimeout      time.Duration `yaml:"embedding_timeout"`       // spec §4.6 T
	EmbeddingMaxRetries   int           `yaml:"embedding_max_retries"`   // spec §4.6 R
	EmbeddingRetryDelay   time.Duration `yaml:"embedding_retry_delay"`   // spec §4.6 Δ
	EmbeddingTokenCapChars int          `yaml:"embedding_token_cap_chars"` // spec §4.6 L

	Concurrency int  `yaml:"concurrency"`
	Debug       bool `yaml:"debug"`
}

// LoadFile reads a YAML config file, merging its values under whatever
// is already set on cfg: a zero-value field on cfg is overwritten by
// the file; a non-zero field (already set by a flag) is left alone.
// This is the same merge-with-override pattern the teacher's
// GeneratorConfig uses for `--config` files layered under CLI flags.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return err
	}
	mergeNonZero(c, &fromFile)
	return nil
}

// ApplyEnvOverrides applies the VECMIGRATE_* environment variables that
// take precedence over both flags and the config file, for secrets the
// teacher's `MYSQL_PWD`-style convention keeps out of argv/config.
func (c *Config) ApplyEnvOverrides() {
	if v, ok := os.LookupEnv("VECMIGRATE_EMBEDDING_API_KEY"); ok {
		c.EmbeddingAPIKey = v
	}
	if v, ok := os.LookupEnv("VECMIGRATE_VECTOR_PASS"); ok {
		c.VectorPass = v
	}
}

// InitLogging wires log/slog per SPEC_FULL.md §9.1, deferring to
// util.InitSlog (adapted from the teacher's util.InitSlog) so Debug
// forces slog.LevelDebug regardless of LOG_LEVEL.
func (c *Config) InitLogging() {
	util.InitSlog(c.Debug)
}

func mergeNonZero(dst, src *Config) {
	if dst.DumpFile == "" {
		dst.DumpFile = src.DumpFile
	}
	if dst.ExcludeRulesFile == "" {
		dst.ExcludeRulesFile = src.ExcludeRulesFile
	}
	if dst.VectorExportType == "" {
		dst.VectorExportType = src.VectorExportType
	}
	if dst.VectorHost == "" {
		dst.VectorHost = src.VectorHost
	}
	if dst.VectorUser == "" {
		dst.VectorUser = src.VectorUser
	}
	if dst.VectorPass == "" {
		dst.VectorPass = src.VectorPass
	}
	if dst.Database == "" {
		dst.Database = src.Database
	}
	if dst.Namespace == "" {
		dst.Namespace = src.Namespace
	}
	if dst.Tenant == "" {
		dst.Tenant = src.Tenant
	}
	if dst.Cloud == "" {
		dst.Cloud = src.Cloud
	}
	if dst.Region == "" {
		dst.Region = src.Region
	}
	if dst.Dimension == 0 {
		dst.Dimension = src.Dimension
	}
	if dst.Metric == "" {
		dst.Metric = src.Metric
	}
	if dst.MaxPayloadSizeMB == 0 {
		dst.MaxPayloadSizeMB = src.MaxPayloadSizeMB
	}
	if dst.ChunkSize == 0 {
		dst.ChunkSize = src.ChunkSize
	}
	if dst.EmbeddingProvider == "" {
		dst.EmbeddingProvider = src.EmbeddingProvider
	}
	if dst.EmbeddingBaseURL == "" {
		dst.EmbeddingBaseURL = src.EmbeddingBaseURL
	}
	if dst.EmbeddingModel == "" {
		dst.EmbeddingModel = src.EmbeddingModel
	}
	if dst.EmbeddingAPIKey == "" {
		dst.EmbeddingAPIKey = src.EmbeddingAPIKey
	}
	if dst.EmbeddingChunkSize == 0 {
		dst.EmbeddingChunkSize = src.EmbeddingChunkSize
	}
	if dst.EmbeddingTimeout == 0 {
		dst.EmbeddingTimeout = src.EmbeddingTimeout
	}
	if dst.EmbeddingMaxRetries == 0 {
		dst.EmbeddingMaxRetries = src.EmbeddingMaxRetries
	}
	if dst.EmbeddingRetryDelay == 0 {
		dst.EmbeddingRetryDelay = src.EmbeddingRetryDelay
	}
	if dst.EmbeddingTokenCapChars == 0 {
		dst.EmbeddingTokenCapChars = src.EmbeddingTokenCapChars
	}
	if dst.Concurrency == 0 {
		dst.Concurrency = src.Concurrency
	}
	if !dst.Debug {
		dst.Debug = src.Debug
	}
}
