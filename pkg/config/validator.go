package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit must not be negative"))
	}
	if c.API.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("api.max_body_bytes must be positive"))
	}
	if c.API.DefaultPreviewRows <= 0 {
		errs = append(errs, errors.New("api.default_preview_rows must be positive"))
	}
	if c.API.MaxPreviewRows < c.API.DefaultPreviewRows {
		errs = append(errs, errors.New("api.max_preview_rows must be >= default_preview_rows"))
	}
	if c.API.DefaultLimit <= 0 || c.API.MaxLimit < c.API.DefaultLimit {
		errs = append(errs, errors.New("api.default_limit must be positive and <= max_limit"))
	}

	// Model validation
	if c.Model.PreprocessorPath == "" {
		errs = append(errs, errors.New("model.preprocessor_path is required"))
	}
	if c.Model.RegressorPath == "" {
		errs = append(errs, errors.New("model.regressor_path is required"))
	}

	// Dataset validation
	if c.Dataset.Timeout <= 0 {
		errs = append(errs, errors.New("dataset.timeout must be positive"))
	}
	if c.Dataset.RetryAttempts <= 0 {
		errs = append(errs, errors.New("dataset.retry_attempts must be positive"))
	}
	if c.Dataset.RetryDelay < 0 {
		errs = append(errs, errors.New("dataset.retry_delay must not be negative"))
	}
	if c.Dataset.CacheTTL < 0 {
		errs = append(errs, errors.New("dataset.cache_ttl must not be negative"))
	}

	// Report validation
	if c.Report.HistogramBinMinutes <= 0 {
		errs = append(errs, errors.New("report.histogram_bin_minutes must be positive"))
	}
	if c.Report.TrimQuantile < 0 || c.Report.TrimQuantile >= 0.5 {
		errs = append(errs, errors.New("report.trim_quantile must be in [0, 0.5)"))
	}
	for _, t := range c.Report.Thresholds {
		if t <= 0 {
			errs = append(errs, fmt.Errorf("report.thresholds must be positive, got %v", t))
			break
		}
	}

	// Database validation only matters when the audit store is on.
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required"))
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, errors.New("database.port must be between 1 and 65535"))
		}
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required"))
		}
		if c.Database.MaxConnections <= 0 {
			errs = append(errs, errors.New("database.max_connections must be positive"))
		}
		if c.Database.AuditBuffer <= 0 {
			errs = append(errs, errors.New("database.audit_buffer must be positive"))
		}
	}

	if c.Prometheus.Enabled && (c.Prometheus.Port <= 0 || c.Prometheus.Port > 65535) {
		errs = append(errs, errors.New("prometheus.port must be between 1 and 65535"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
