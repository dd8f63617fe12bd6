package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearGatewayEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"HOST", "PORT", "WORKER_THREADS", "MAX_CONNECTIONS",
		"TCP_KEEPALIVE_INTERVAL", "TCP_NODELAY", "BUFFER_SIZE",
		"ELASTICSEARCH_URL", "ELASTICSEARCH_USERNAME", "ELASTICSEARCH_PASSWORD", "ELASTICSEARCH_INDEX",
		"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"TELEMETRY_CONSOLE_ENABLED", "TELEMETRY_PROMETHEUS_ENABLED",
		"DEPLOYMENT_ENVIRONMENT",
	}
	for _, k := range keys {
		key, orig, had := k, "", false
		orig, had = os.LookupEnv(key)
		os.Unsetenv(key)
		if had {
			t.Cleanup(func() { os.Setenv(key, orig) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearGatewayEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 10000, cfg.Server.MaxConnections)
	assert.Equal(t, 30, cfg.Server.TCPKeepAliveInterval)
	assert.True(t, cfg.Server.TCPNoDelay)
	assert.Equal(t, 8192, cfg.Server.BufferSize)
	assert.Equal(t, "ai-gateway-metrics", cfg.Elasticsearch.Index)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.Telemetry.ConsoleEnabled)
	assert.True(t, cfg.Telemetry.PrometheusEnabled)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	clearGatewayEnv(t)
	os.Setenv("PORT", "8080")
	os.Setenv("HOST", "0.0.0.0")
	os.Setenv("ELASTICSEARCH_URL", "http://es:9200")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "http://es:9200", cfg.Elasticsearch.URL)
}

func TestDefaultWorkerThreads_MatchesCoreRule(t *testing.T) {
	n := defaultWorkerThreads()
	assert.True(t, n >= 2)
}

func TestValidate_RejectsOutOfRangePort(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Host: "h", Port: 70000, WorkerThreads: 1, MaxConnections: 1, BufferSize: 1}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestValidate_RequiresIndexWhenElasticsearchURLSet(t *testing.T) {
	cfg := &Config{
		Server:        ServerConfig{Host: "h", Port: 80, WorkerThreads: 1, MaxConnections: 1, BufferSize: 1},
		Elasticsearch: ElasticsearchConfig{URL: "http://es:9200"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ELASTICSEARCH_INDEX")
}
