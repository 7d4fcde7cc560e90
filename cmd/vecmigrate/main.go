// Command vecmigrate reads a SQL or SurrealDB dump, embeds each record,
// and writes the resulting vectors to a configured vector store.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/vecmigrate/vecmigrate/batch"
	"github.com/vecmigrate/vecmigrate/config"
	"github.com/vecmigrate/vecmigrate/detect"
	"github.com/vecmigrate/vecmigrate/embedding"
	"github.com/vecmigrate/vecmigrate/embedding/google"
	"github.com/vecmigrate/vecmigrate/embedding/ollama"
	"github.com/vecmigrate/vecmigrate/embedding/tei"
	"github.com/vecmigrate/vecmigrate/exclude"
	"github.com/vecmigrate/vecmigrate/parser/mssql"
	"github.com/vecmigrate/vecmigrate/parser/mysql"
	"github.com/vecmigrate/vecmigrate/parser/oracle"
	"github.com/vecmigrate/vecmigrate/parser/postgres"
	"github.com/vecmigrate/vecmigrate/parser/sqlite"
	"github.com/vecmigrate/vecmigrate/parser/surreal"
	"github.com/vecmigrate/vecmigrate/vectorstore"
	"github.com/vecmigrate/vecmigrate/vectorstore/chroma"
	"github.com/vecmigrate/vecmigrate/vectorstore/milvus"
	"github.com/vecmigrate/vecmigrate/vectorstore/pinecone"
	"github.com/vecmigrate/vecmigrate/vectorstore/qdrant"
	goredis "github.com/redis/go-redis/v9"
	vredis "github.com/vecmigrate/vecmigrate/vectorstore/redis"
	"github.com/vecmigrate/vecmigrate/vectorstore/surrealstore"
	"github.com/vecmigrate/vecmigrate/workflow"
	"google.golang.org/genai"
)

var version string

type cliOptions struct {
	DumpFile          string `long:"dump-file" description:"Path to the SQL or SurrealDB dump to migrate" value-name:"path" required:"true"`
	ExcludeRules      string `long:"exclude-rules" description:"YAML file of table/field exclusion rules" value-name:"path"`
	ConfigFile        string `long:"config" description:"YAML file supplying values for options still unset after flag parsing (options with a non-empty default keep it)" value-name:"path"`

	VectorType string `long:"vector-type" description:"Target vector store (redis, qdrant, chroma, milvus, surreal, pinecone)" value-name:"type" required:"true"`
	VectorHost string `long:"vector-host" description:"Vector store base URL/address" value-name:"host"`
	VectorUser string `long:"vector-user" description:"Vector store username, if required" value-name:"user"`
	VectorPass string `long:"vector-pass" description:"Vector store password, overridden by $VECMIGRATE_VECTOR_PASS" value-name:"password"`
	Database   string `long:"database" description:"Target database/namespace name" value-name:"db"`
	Namespace  string `long:"namespace" description:"Target namespace (SurrealDB)" value-name:"ns"`
	Tenant     string `long:"tenant" description:"Target tenant (Chroma)" value-name:"tenant"`
	Cloud      string `long:"cloud" description:"Pinecone serverless cloud provider (aws, gcp, azure)" value-name:"cloud"`
	Region     string `long:"region" description:"Pinecone serverless region" value-name:"region"`

	Dimension        int    `long:"dimension" description:"Embedding vector dimension" value-name:"n" required:"true"`
	Metric           string `long:"metric" description:"Distance metric (cosine, euclidean, l2, dotproduct, ip)" value-name:"metric" default:"cosine"`
	MaxPayloadSizeMB int    `long:"max-payload-mb" description:"Per-batch payload budget in MB" value-name:"mb" default:"4"`
	ChunkSize        int    `long:"chunk-size" description:"Per-batch item count ceiling" value-name:"n" default:"100"`

	EmbeddingProvider      string        `long:"embedding-provider" description:"Embedding provider (ollama, tei, google)" value-name:"provider" required:"true"`
	EmbeddingBaseURL       string        `long:"embedding-base-url" description:"Embedding server base URL" value-name:"url"`
	EmbeddingModel         string        `long:"embedding-model" description:"Embedding model name" value-name:"model"`
	EmbeddingAPIKey        string        `long:"embedding-api-key" description:"Embedding provider API key, overridden by $VECMIGRATE_EMBEDDING_API_KEY" value-name:"key"`
	EmbeddingChunkSize     int           `long:"embedding-chunk-size" description:"Records embedded per provider call" value-name:"n" default:"32"`
	EmbeddingTimeout       time.Duration `long:"embedding-timeout" description:"Per-call embedding request timeout" value-name:"duration" default:"30s"`
	EmbeddingMaxRetries    int           `long:"embedding-max-retries" description:"Maximum embedding call retries" value-name:"n" default:"3"`
	EmbeddingRetryDelay    time.Duration `long:"embedding-retry-delay" description:"Delay between embedding call retries" value-name:"duration" default:"500ms"`
	EmbeddingTokenCapChars int           `long:"embedding-token-cap-chars" description:"Character cap applied to a record's serialized text before embedding" value-name:"n" default:"8000"`
	PasswordPrompt         bool          `long:"password-prompt" description:"Force an interactive prompt for the embedding API key"`

	Concurrency int  `long:"concurrency" description:"Embedding request concurrency" value-name:"n" default:"4"`
	Debug       bool `long:"debug" description:"Verbose logging and pretty-printed records"`
	Help        bool `long:"help" description:"Show this help"`
	Version     bool `long:"version" description:"Show this version"`
}

func parseOptions(args []string) *config.Config {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options]"

	if _, err := parser.ParseArgs(args); err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}

	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := &config.Config{
		DumpFile:          opts.DumpFile,
		ExcludeRulesFile:  opts.ExcludeRules,
		VectorExportType:  opts.VectorType,
		VectorHost:        opts.VectorHost,
		VectorUser:        opts.VectorUser,
		VectorPass:        opts.VectorPass,
		Database:          opts.Database,
		Namespace:         opts.Namespace,
		Tenant:            opts.Tenant,
		Cloud:             opts.Cloud,
		Region:            opts.Region,
		Dimension:         opts.Dimension,
		Metric:            opts.Metric,
		MaxPayloadSizeMB:  opts.MaxPayloadSizeMB,
		ChunkSize:         opts.ChunkSize,
		EmbeddingProvider:      opts.EmbeddingProvider,
		EmbeddingBaseURL:       opts.EmbeddingBaseURL,
		EmbeddingModel:         opts.EmbeddingModel,
		EmbeddingAPIKey:        opts.EmbeddingAPIKey,
		EmbeddingChunkSize:     opts.EmbeddingChunkSize,
		EmbeddingTimeout:       opts.EmbeddingTimeout,
		EmbeddingMaxRetries:    opts.EmbeddingMaxRetries,
		EmbeddingRetryDelay:    opts.EmbeddingRetryDelay,
		EmbeddingTokenCapChars: opts.EmbeddingTokenCapChars,
		Concurrency:            opts.Concurrency,
		Debug:                  opts.Debug,
	}

	if opts.ConfigFile != "" {
		if err := cfg.LoadFile(opts.ConfigFile); err != nil {
			log.Fatalf("vecmigrate: loading --config file: %v", err)
		}
	}

	cfg.ApplyEnvOverrides()

	if opts.PasswordPrompt || (cfg.EmbeddingAPIKey == "" && term.IsTerminal(int(syscall.Stdin)) && cfg.EmbeddingProvider == "google") {
		fmt.Fprint(os.Stderr, "Enter embedding API key: ")
		key, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			log.Fatal(err)
		}
		cfg.EmbeddingAPIKey = string(key)
	}

	return cfg
}

func buildProvider(cfg *config.Config) (embedding.Provider, error) {
	switch cfg.EmbeddingProvider {
	case "ollama":
		return ollama.New(cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.Concurrency), nil
	case "tei":
		return tei.New(cfg.EmbeddingBaseURL), nil
	case "google":
		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.EmbeddingAPIKey})
		if err != nil {
			return nil, fmt.Errorf("vecmigrate: building genai client: %w", err)
		}
		return google.New(client, cfg.EmbeddingModel, "RETRIEVAL_DOCUMENT"), nil
	default:
		return nil, fmt.Errorf("vecmigrate: unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

func buildDriver(cfg *config.Config) (vectorstore.Driver, error) {
	metric := vectorstore.MapMetric(cfg.Metric)
	switch cfg.VectorExportType {
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: cfg.VectorHost, Username: cfg.VectorUser, Password: cfg.VectorPass})
		return vredis.New(client, cfg.Dimension, metric, vredis.ModeIndexed), nil
	case "qdrant":
		return qdrant.New(cfg.VectorHost, cfg.VectorPass, cfg.Dimension, metric), nil
	case "chroma":
		return chroma.New(cfg.VectorHost, cfg.VectorPass, cfg.Tenant, cfg.Database, cfg.Dimension, metric), nil
	case "milvus":
		return milvus.New(cfg.VectorHost, cfg.VectorPass, cfg.Database, cfg.Dimension, metric), nil
	case "surreal":
		return surrealstore.New(cfg.VectorHost, cfg.Namespace, cfg.Database, cfg.VectorUser, cfg.VectorPass)
	case "pinecone":
		return pinecone.New(cfg.VectorHost, cfg.VectorPass, cfg.Database, cfg.Cloud, cfg.Region, cfg.Dimension, metric), nil
	default:
		return nil, fmt.Errorf("vecmigrate: unknown vector store type %q", cfg.VectorExportType)
	}
}

func buildDialects() workflow.Dialects {
	return workflow.Dialects{
		detect.MySQL:    mysql.New(),
		detect.Postgres: postgres.New(),
		detect.MSSQL:    mssql.New(),
		detect.Oracle:   oracle.New(),
		detect.SQLite:   sqlite.New(),
		detect.Surreal:  surreal.New(),
	}
}

func run() error {
	cfg := parseOptions(os.Args[1:])
	cfg.InitLogging()

	var rules exclude.Rules
	if cfg.ExcludeRulesFile != "" {
		loaded, err := exclude.Load(cfg.ExcludeRulesFile)
		if err != nil {
			return fmt.Errorf("vecmigrate: loading exclude rules: %w", err)
		}
		rules = loaded
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	driver, err := buildDriver(cfg)
	if err != nil {
		return err
	}

	payloadBudget := cfg.MaxPayloadSizeMB * 1024 * 1024
	coordinator := &workflow.Coordinator{
		Dialects: buildDialects(),
		Provider: provider,
		Orchestrator: embedding.New(embedding.Params{
			ChunkSize:     cfg.EmbeddingChunkSize,
			Concurrency:   cfg.Concurrency,
			Timeout:       cfg.EmbeddingTimeout,
			MaxRetries:    cfg.EmbeddingMaxRetries,
			RetryDelay:    cfg.EmbeddingRetryDelay,
			Dimension:     cfg.Dimension,
			TokenCapChars: cfg.EmbeddingTokenCapChars,
		}),
		Batch: batch.New(driver, batch.Limits{
			PayloadBudget: payloadBudget,
			ChunkSize:     cfg.ChunkSize,
		}),
		Rules: rules,
		Debug: cfg.Debug,
	}

	summary, err := coordinator.Run(context.Background(), cfg.DumpFile)
	if err != nil {
		return err
	}

	slog.Info("vecmigrate: migration complete",
		"total_records", summary.TotalRecords,
		"processed_records", summary.ProcessedRecords,
		"elapsed_seconds", summary.ElapsedSeconds,
	)
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
