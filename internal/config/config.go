// Package config loads and validates the gateway configuration.
//
// Configuration is environment-variable driven: every setting has a
// documented default, so the gateway starts with zero required
// configuration and ops can override individual knobs without a file.
//
// FILES:
//   - config.go: root Config struct, Load(), Validate()
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the root runtime configuration for the AI gateway.
type Config struct {
	Server        ServerConfig
	Elasticsearch ElasticsearchConfig
	AWS           AWSConfig
	Telemetry     TelemetryConfig
	Environment   string // DEPLOYMENT_ENVIRONMENT
}

// ServerConfig contains HTTP listener and connection-pool tuning.
type ServerConfig struct {
	Host                  string
	Port                  int
	WorkerThreads         int
	MaxConnections        int
	TCPKeepAliveInterval  int // seconds
	TCPNoDelay            bool
	BufferSize            int
}

// ElasticsearchConfig configures the optional Elasticsearch telemetry exporter.
// URL empty means the exporter is not registered.
type ElasticsearchConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

// AWSConfig carries the default AWS credential/region material used when a
// Bedrock request does not supply per-request x-aws-* headers.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// TelemetryConfig toggles the registered metrics exporters. Console and
// Prometheus are on by default since they carry no external dependency;
// Elasticsearch activates only once ELASTICSEARCH_URL is set.
type TelemetryConfig struct {
	ConsoleEnabled    bool
	PrometheusEnabled bool
}

func defaultWorkerThreads() int {
	n := runtime.NumCPU()
	if n <= 4 {
		return 2 * n
	}
	return n + 4
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// LoadDotEnv loads an optional .env file from the current directory and from
// ~/.config/ai-gateway/.env, local values taking precedence. Missing files are
// not an error.
func LoadDotEnv() {
	// godotenv.Load never overrides a variable that is already set, so the
	// file loaded first wins.
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(home + "/.config/ai-gateway/.env")
	}
}

// Load builds a Config from the process environment, applying the documented
// defaults for every field per the gateway's external configuration contract.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:                 getEnv("HOST", "127.0.0.1"),
			Port:                 getEnvInt("PORT", 3000),
			WorkerThreads:        getEnvInt("WORKER_THREADS", defaultWorkerThreads()),
			MaxConnections:       getEnvInt("MAX_CONNECTIONS", 10000),
			TCPKeepAliveInterval: getEnvInt("TCP_KEEPALIVE_INTERVAL", 30),
			TCPNoDelay:           getEnvBool("TCP_NODELAY", true),
			BufferSize:           getEnvInt("BUFFER_SIZE", 8192),
		},
		Elasticsearch: ElasticsearchConfig{
			URL:      strings.TrimSpace(os.Getenv("ELASTICSEARCH_URL")),
			Username: os.Getenv("ELASTICSEARCH_USERNAME"),
			Password: os.Getenv("ELASTICSEARCH_PASSWORD"),
			Index:    getEnv("ELASTICSEARCH_INDEX", "ai-gateway-metrics"),
		},
		AWS: AWSConfig{
			Region:          os.Getenv("AWS_REGION"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		Telemetry: TelemetryConfig{
			ConsoleEnabled:    getEnvBool("TELEMETRY_CONSOLE_ENABLED", true),
			PrometheusEnabled: getEnvBool("TELEMETRY_PROMETHEUS_ENABLED", true),
		},
		Environment: getEnv("DEPLOYMENT_ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the parsed configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("HOST must not be empty")
	}
	if c.Server.WorkerThreads < 1 {
		return fmt.Errorf("WORKER_THREADS must be >= 1")
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("MAX_CONNECTIONS must be >= 1")
	}
	if c.Server.BufferSize < 1 {
		return fmt.Errorf("BUFFER_SIZE must be >= 1")
	}
	if c.Elasticsearch.URL != "" && c.Elasticsearch.Index == "" {
		return fmt.Errorf("ELASTICSEARCH_INDEX must not be empty when ELASTICSEARCH_URL is set")
	}
	return nil
}
