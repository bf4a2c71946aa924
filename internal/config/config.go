// Package config loads engine configuration from JSON with environment
// overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	Eval    EvalConfig    `json:"eval"`
	Storage StorageConfig `json:"storage"`
}

// EvalConfig holds condition evaluation tuning.
type EvalConfig struct {
	// Concurrency is the number of tiles evaluated in parallel.
	// Default: 4
	Concurrency int `json:"concurrency"`
	// BatchCells caps the number of cells evaluated per batch.
	// Default: 65536
	BatchCells int `json:"batch_cells"`
}

// GetConcurrency returns Concurrency with default fallback.
func (c EvalConfig) GetConcurrency() int {
	if c.Concurrency <= 0 {
		return 4
	}
	return c.Concurrency
}

// GetBatchCells returns BatchCells with default fallback.
func (c EvalConfig) GetBatchCells() int {
	if c.BatchCells <= 0 {
		return 65536
	}
	return c.BatchCells
}

// StorageConfig holds persistence configuration for serialized conditions.
type StorageConfig struct {
	// CompressConditions enables zstd compression of persisted conditions.
	CompressConditions bool `json:"compress_conditions"`
}

func Default() *Config {
	return &Config{
		Eval: EvalConfig{
			Concurrency: 4,
			BatchCells:  65536,
		},
		Storage: StorageConfig{
			CompressConditions: true,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CUBE_CONFIG")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if env := os.Getenv("CUBE_EVAL_CONCURRENCY"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Eval.Concurrency = n
		}
	}
	if env := os.Getenv("CUBE_EVAL_BATCH_CELLS"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Eval.BatchCells = n
		}
	}
	if env := os.Getenv("CUBE_STORAGE_COMPRESS_CONDITIONS"); env != "" {
		cfg.Storage.CompressConditions = env == "true" || env == "1"
	}

	return cfg, nil
}

func parseIntEnv(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
