// Package config loads typed application configuration from environment
// variables, applying defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend names accepted by STORE_BACKEND.
const (
	BackendBolt      = "bolt"
	BackendCouchbase = "couchbase"
	BackendMemory    = "memory"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Store   StoreConfig
	Logging LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig selects and parameterizes the backing medium.
type StoreConfig struct {
	Backend   string
	BoltPath  string
	Couchbase CouchbaseConfig
}

// CouchbaseConfig describes connectivity to the remote document store.
type CouchbaseConfig struct {
	URL      string
	Username string
	Password string
	Bucket   string
}

// LoggingConfig controls the structured logging sink.
type LoggingConfig struct {
	ElasticsearchURL string
	App              string
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultBoltPath        = "optivault.db"
	defaultBucket          = "optivault"
)

// Load reads configuration from environment variables.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Store: StoreConfig{
			Backend:  valueOrDefault("STORE_BACKEND", BackendBolt),
			BoltPath: valueOrDefault("BOLT_PATH", defaultBoltPath),
			Couchbase: CouchbaseConfig{
				URL:      os.Getenv("COUCHBASE_URL"),
				Username: os.Getenv("COUCHBASE_USERNAME"),
				Password: os.Getenv("COUCHBASE_PASSWORD"),
				Bucket:   valueOrDefault("COUCHBASE_BUCKET", defaultBucket),
			},
		},
		Logging: LoggingConfig{
			ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),
			App:              valueOrDefault("APP_NAME", "optivault"),
		},
	}

	port, err := parseIntWithDefault("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	switch cfg.Store.Backend {
	case BackendBolt, BackendCouchbase, BackendMemory:
	default:
		return Config{}, fmt.Errorf("invalid STORE_BACKEND %q", cfg.Store.Backend)
	}

	if cfg.Store.Backend == BackendCouchbase && cfg.Store.Couchbase.URL == "" {
		return Config{}, fmt.Errorf("COUCHBASE_URL is required for the couchbase backend")
	}

	return cfg, nil
}

func valueOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntWithDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
