package config

import (
	"fmt"
	"time"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	API        APIConfig        `mapstructure:"api"`
	Model      ModelConfig      `mapstructure:"model"`
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Report     ReportConfig     `mapstructure:"report"`
	Database   DatabaseConfig   `mapstructure:"database"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type APIConfig struct {
	Port               int           `mapstructure:"port"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	RateLimit          int           `mapstructure:"rate_limit"`
	ReportRateLimit    int           `mapstructure:"report_rate_limit"`
	MaxBodyBytes       int64         `mapstructure:"max_body_bytes"`
	DefaultPreviewRows int           `mapstructure:"default_preview_rows"`
	MaxPreviewRows     int           `mapstructure:"max_preview_rows"`
	DefaultLimit       int           `mapstructure:"default_limit"`
	MaxLimit           int           `mapstructure:"max_limit"`
	CORS               CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// ModelConfig points at the serialized preprocessing and regression artifacts.
// With RequireArtifacts set, serve refuses to start when they fail to load.
type ModelConfig struct {
	PreprocessorPath string `mapstructure:"preprocessor_path"`
	RegressorPath    string `mapstructure:"regressor_path"`
	RequireArtifacts bool   `mapstructure:"require_artifacts"`
}

type DatasetConfig struct {
	PricingSource  string               `mapstructure:"pricing_source"`
	DelaySource    string               `mapstructure:"delay_source"`
	DelaySheet     string               `mapstructure:"delay_sheet"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RetryAttempts  int                  `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration        `mapstructure:"retry_delay"`
	CacheTTL       time.Duration        `mapstructure:"cache_ttl"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ReportConfig struct {
	Thresholds          []float64 `mapstructure:"thresholds"`
	HistogramBinMinutes float64   `mapstructure:"histogram_bin_minutes"`
	TrimQuantile        float64   `mapstructure:"trim_quantile"`
}

type DatabaseConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	Name              string        `mapstructure:"name"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	MaxConnections    int           `mapstructure:"max_connections"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime   time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime   time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout       time.Duration `mapstructure:"ping_timeout"`
	MigrationTimeout  time.Duration `mapstructure:"migration_timeout"`
	// AuditBuffer bounds the queue of prediction records waiting to be
	// written; records beyond it are dropped.
	AuditBuffer       int           `mapstructure:"audit_buffer"`
	AuditWriteTimeout time.Duration `mapstructure:"audit_write_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

type WebSocketConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}
