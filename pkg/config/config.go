// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Collection, Output, Indexer, Search, Server, Redis, Kafka, etc.).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Collection CollectionConfig `yaml:"collection"`
	Output     OutputConfig     `yaml:"output"`
	Indexer    IndexerConfig    `yaml:"indexer"`
	Search     SearchConfig     `yaml:"search"`
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// CollectionConfig locates the cleaned document collection.
type CollectionConfig struct {
	Dir                 string   `yaml:"dir"`
	DocList             string   `yaml:"docList"`
	Extension           string   `yaml:"extension"`
	VocabularyExtension string   `yaml:"vocabularyExtension"`
	DropTerms           []string `yaml:"dropTerms"`
}

// DocListPath returns the document list path. When unset it defaults to a file
// named after the collection directory inside that directory.
func (c CollectionConfig) DocListPath() string {
	if c.DocList == "" {
		return filepath.Join(c.Dir, filepath.Base(c.Dir))
	}
	return c.DocList
}

// OutputConfig names every artifact written by the indexer. A file name ending
// in ".zst" is written and read zstd-compressed.
type OutputConfig struct {
	Dir           string `yaml:"dir"`
	Vocabulary    string `yaml:"vocabulary"`
	DocFrequency  string `yaml:"docFrequency"`
	TermFrequency string `yaml:"termFrequency"`
	TFIDF         string `yaml:"tfidf"`
	Binary        string `yaml:"binary"`
	InvertedIndex string `yaml:"invertedIndex"`
	Counter       string `yaml:"counter"`
	TermSummary   string `yaml:"termSummary"`
	Manifest      string `yaml:"manifest"`
}

// Path joins an artifact file name onto the output directory.
func (o OutputConfig) Path(name string) string {
	return filepath.Join(o.Dir, name)
}

// IndexerConfig controls the batch build.
type IndexerConfig struct {
	Workers         int      `yaml:"workers"`
	WeightPrecision int      `yaml:"weightPrecision"`
	SummaryTerms    []string `yaml:"summaryTerms"`
}

// SearchConfig controls query execution.
type SearchConfig struct {
	DefaultModel string `yaml:"defaultModel"`
	DefaultLimit int    `yaml:"defaultLimit"`
	MaxResults   int    `yaml:"maxResults"`
	ProximityK   int    `yaml:"proximityK"`
	Partitions   int    `yaml:"partitions"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// RateLimit is the number of requests a client may make per RateWindow.
	// Zero disables limiting.
	RateLimit  int           `yaml:"rateLimit"`
	RateWindow time.Duration `yaml:"rateWindow"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings for search analytics.
type KafkaConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Brokers         []string `yaml:"brokers"`
	AnalyticsTopic  string   `yaml:"analyticsTopic"`
	EventBufferSize int      `yaml:"eventBufferSize"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config laid out the way the collection tooling expects:
// documents under Collection/, artifacts under outputs/.
func Default() *Config {
	return &Config{
		Collection: CollectionConfig{
			Dir:       "Collection",
			DocList:   "Collection/Collection",
			Extension: ".stp",
		},
		Output: OutputConfig{
			Dir:           "outputs",
			Vocabulary:    "vocabulaire.txt",
			DocFrequency:  "df.txt",
			TermFrequency: "vecteurTF.txt",
			TFIDF:         "vecteurTFIDF.txt",
			Binary:        "vecteurBinaire.txt",
			InvertedIndex: "indexInverse.txt",
			Counter:       "counter.txt",
			TermSummary:   "termfreq.txt",
			Manifest:      "manifest.yaml",
		},
		Indexer: IndexerConfig{
			Workers:         4,
			WeightPrecision: 6,
		},
		Search: SearchConfig{
			DefaultModel: "cosine",
			DefaultLimit: 20,
			MaxResults:   100,
			ProximityK:   5,
			Partitions:   4,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateWindow:      time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:         []string{"localhost:9092"},
			AnalyticsTopic:  "search-analytics",
			EventBufferSize: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Collection.Dir == "" {
		return fmt.Errorf("collection.dir must be set")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Indexer.Workers < 1 {
		return fmt.Errorf("indexer.workers must be >= 1, got %d", c.Indexer.Workers)
	}
	if c.Indexer.WeightPrecision < 0 {
		return fmt.Errorf("indexer.weightPrecision must be >= 0, got %d", c.Indexer.WeightPrecision)
	}
	if c.Search.ProximityK < 1 {
		return fmt.Errorf("search.proximityK must be >= 1, got %d", c.Search.ProximityK)
	}
	if c.Search.Partitions < 1 {
		return fmt.Errorf("search.partitions must be >= 1, got %d", c.Search.Partitions)
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow <= 0 {
		return fmt.Errorf("server.rateWindow must be positive when rateLimit is set")
	}
	switch c.Search.DefaultModel {
	case "cosine", "proximity":
	default:
		return fmt.Errorf("search.defaultModel must be cosine or proximity, got %q", c.Search.DefaultModel)
	}
	return nil
}

// applyEnvOverrides reads RE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RE_COLLECTION_DIR"); v != "" {
		cfg.Collection.Dir = v
	}
	if v := os.Getenv("RE_COLLECTION_DOC_LIST"); v != "" {
		cfg.Collection.DocList = v
	}
	if v := os.Getenv("RE_COLLECTION_EXTENSION"); v != "" {
		cfg.Collection.Extension = v
	}
	if v := os.Getenv("RE_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("RE_INDEXER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Workers = n
		}
	}
	if v := os.Getenv("RE_SEARCH_PROXIMITY_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.ProximityK = n
		}
	}
	if v := os.Getenv("RE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("RE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("RE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("RE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
