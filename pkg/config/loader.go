package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "PRICING"

func Load(configPath string) (*Config, error) {
	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/pricing")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "getaround-pricing")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// API defaults
	v.SetDefault("api.port", 4000)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.report_rate_limit", 10)
	v.SetDefault("api.max_body_bytes", 1<<20)
	v.SetDefault("api.default_preview_rows", 5)
	v.SetDefault("api.max_preview_rows", 100)
	v.SetDefault("api.default_limit", 50)
	v.SetDefault("api.max_limit", 500)
	v.SetDefault("api.cors.allowed_origins", []string{"*"})
	v.SetDefault("api.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("api.cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-Trace-ID"})
	v.SetDefault("api.cors.exposed_headers", []string{"X-Trace-ID"})

	// Model defaults
	v.SetDefault("model.preprocessor_path", "artifacts/preprocessor.json")
	v.SetDefault("model.regressor_path", "artifacts/model.json")
	v.SetDefault("model.require_artifacts", false)

	// Dataset defaults
	v.SetDefault("dataset.pricing_source", "data/get_around_pricing_project.csv")
	v.SetDefault("dataset.delay_source", "data/get_around_delay_analysis.xlsx")
	v.SetDefault("dataset.delay_sheet", "rentals_data")
	v.SetDefault("dataset.timeout", "30s")
	v.SetDefault("dataset.retry_attempts", 3)
	v.SetDefault("dataset.retry_delay", "1s")
	v.SetDefault("dataset.cache_ttl", "10m")
	v.SetDefault("dataset.circuit_breaker.max_failures", 5)
	v.SetDefault("dataset.circuit_breaker.timeout", "30s")

	// Report defaults
	v.SetDefault("report.thresholds", []float64{15, 30, 60, 120, 180, 240, 360, 480, 720})
	v.SetDefault("report.histogram_bin_minutes", 30.0)
	v.SetDefault("report.trim_quantile", 0.01)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "pricing")
	v.SetDefault("database.user", "pricing")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "1m")
	v.SetDefault("database.ping_timeout", "5s")
	v.SetDefault("database.migration_timeout", "60s")
	v.SetDefault("database.audit_buffer", 1024)
	v.SetDefault("database.audit_write_timeout", "2s")

	// WebSocket defaults
	v.SetDefault("websocket.enabled", true)
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.broadcast_buffer", 256)
	v.SetDefault("websocket.client_buffer", 64)

	// Prometheus defaults
	v.SetDefault("prometheus.enabled", false)
	v.SetDefault("prometheus.port", 9090)
}
