// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and env vars over those defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8501".
	Addr string `koanf:"addr"`

	// ModelPath points at the model descriptor on disk. Empty disables it.
	ModelPath string `koanf:"model_path"`

	// PredictorURL selects a remote scoring endpoint instead of ModelPath.
	PredictorURL string `koanf:"predictor_url"`

	// PredictorTimeoutMS bounds each remote predictor call.
	PredictorTimeoutMS int `koanf:"predictor_timeout_ms"`

	// FallbackOnError answers predictor failures with the simulated estimate.
	FallbackOnError bool `koanf:"fallback_on_error"`

	// MinAge and MaxAge bound the ages accepted from the form and API.
	MinAge int `koanf:"min_age"`
	MaxAge int `koanf:"max_age"`

	// MaxChildren caps the number of dependents accepted.
	MaxChildren int `koanf:"max_children"`

	// Currency is the symbol shown next to estimated costs.
	Currency string `koanf:"currency"`

	// BatchWorkers bounds concurrent estimations in one batch; 0 uses NumCPU.
	BatchWorkers int `koanf:"batch_workers"`

	// MaxBatchSize caps the records accepted by the batch endpoint.
	MaxBatchSize int `koanf:"max_batch_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":8501",
		ModelPath:          "modele.yaml",
		PredictorURL:       "",
		PredictorTimeoutMS: 2000,
		FallbackOnError:    false,
		MinAge:             18,
		MaxAge:             100,
		MaxChildren:        10,
		Currency:           "$",
		BatchWorkers:       0,
		MaxBatchSize:       100,
	}
}

// PredictorTimeout returns PredictorTimeoutMS as a duration.
func (c *Config) PredictorTimeout() time.Duration {
	return time.Duration(c.PredictorTimeoutMS) * time.Millisecond
}
