// Package config loads sogpack settings from a JSON file.
//
// Every field is optional. Fields omitted from the file keep the library
// defaults, so partial configs are safe.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/sog"
	"github.com/hupe1980/sog/codec"
	"github.com/hupe1980/sog/resource"
	"github.com/hupe1980/sog/tablefile"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config mirrors the sogpack flags. Pointer fields distinguish "unset" from
// zero values.
type Config struct {
	// Export
	Iterations    *int    `json:"iterations,omitempty"`
	MaxSHBands    *int    `json:"max_sh_bands,omitempty"`
	Generator     *string `json:"generator,omitempty"`
	Seed          *int64  `json:"seed,omitempty"`
	Codec         *string `json:"codec,omitempty"` // "json" or "go-json"
	Workers       *int    `json:"workers,omitempty"`
	BatchSize     *int    `json:"batch_size,omitempty"`
	HalfPrecision *bool   `json:"half_precision,omitempty"`

	// Resources
	MemoryLimitBytes   *int64 `json:"memory_limit_bytes,omitempty"`
	IOLimitBytesPerSec *int64 `json:"io_limit_bytes_per_sec,omitempty"`

	// Logging
	LogLevel  *string `json:"log_level,omitempty"`  // debug, info, warn, error
	LogFormat *string `json:"log_format,omitempty"` // text or json

	// Snapshot output of -dump
	Compression *string `json:"compression,omitempty"`

	// Object storage
	S3Region      *string `json:"s3_region,omitempty"`
	S3Profile     *string `json:"s3_profile,omitempty"`
	S3PartSize    *int64  `json:"s3_part_size,omitempty"`
	MinioEndpoint *string `json:"minio_endpoint,omitempty"`
	MinioSecure   *bool   `json:"minio_secure,omitempty"`

	// Metrics endpoint, e.g. ":9090". Empty disables it.
	MetricsAddr *string `json:"metrics_addr,omitempty"`
	// Timeout bounds the whole export, e.g. "10m".
	Timeout *string `json:"timeout,omitempty"`
}

// Load reads a Config from a JSON file.
// The file must have a .json extension and be at most 1MB. Unknown keys
// are rejected.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := (codec.GoJSON{Strict: true}).Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if c.MaxSHBands != nil && (*c.MaxSHBands < 0 || *c.MaxSHBands > 3) {
		return fmt.Errorf("max_sh_bands must be between 0 and 3, got %d", *c.MaxSHBands)
	}
	if c.Iterations != nil && *c.Iterations < 1 {
		return fmt.Errorf("iterations must be positive, got %d", *c.Iterations)
	}
	if c.Codec != nil {
		if _, ok := codec.ByName(*c.Codec); !ok {
			return fmt.Errorf("unknown codec %q (want one of %v)", *c.Codec, codec.Names())
		}
	}
	if c.LogLevel != nil {
		if _, err := c.Level(); err != nil {
			return err
		}
	}
	if c.LogFormat != nil && *c.LogFormat != "text" && *c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", *c.LogFormat)
	}
	if c.Compression != nil {
		if _, err := tablefile.ParseCompression(*c.Compression); err != nil {
			return err
		}
	}
	if c.Timeout != nil && *c.Timeout != "" {
		if _, err := time.ParseDuration(*c.Timeout); err != nil {
			return fmt.Errorf("invalid timeout '%s': %w", *c.Timeout, err)
		}
	}
	if c.MemoryLimitBytes != nil && *c.MemoryLimitBytes < 0 {
		return fmt.Errorf("memory_limit_bytes must not be negative, got %d", *c.MemoryLimitBytes)
	}
	if c.IOLimitBytesPerSec != nil && *c.IOLimitBytesPerSec < 0 {
		return fmt.Errorf("io_limit_bytes_per_sec must not be negative, got %d", *c.IOLimitBytesPerSec)
	}
	return nil
}

// Level parses LogLevel. Unset means info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == nil {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(*c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", *c.LogLevel, err)
	}
	return level, nil
}

// GetTimeout returns the export timeout, or 0 for none.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout == nil || *c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(*c.Timeout)
	return d
}

// GetCompression returns the snapshot compression, zstd if unset.
func (c *Config) GetCompression() tablefile.Compression {
	if c.Compression == nil {
		return tablefile.CompressionZstd
	}
	comp, _ := tablefile.ParseCompression(*c.Compression)
	return comp
}

// Resources returns the resource limits.
func (c *Config) Resources() resource.Config {
	var rc resource.Config
	if c.MemoryLimitBytes != nil {
		rc.MemoryLimitBytes = *c.MemoryLimitBytes
	}
	if c.IOLimitBytesPerSec != nil {
		rc.IOLimitBytesPerSec = *c.IOLimitBytesPerSec
	}
	return rc
}

// Options converts the export settings into exporter options.
func (c *Config) Options() []sog.Option {
	var opts []sog.Option
	if c.Iterations != nil {
		opts = append(opts, sog.WithIterations(*c.Iterations))
	}
	if c.MaxSHBands != nil {
		opts = append(opts, sog.WithMaxSHBands(*c.MaxSHBands))
	}
	if c.Generator != nil {
		opts = append(opts, sog.WithGenerator(*c.Generator))
	}
	if c.Seed != nil {
		opts = append(opts, sog.WithSeed(*c.Seed))
	}
	if c.Codec != nil {
		if cd, ok := codec.ByName(*c.Codec); ok {
			opts = append(opts, sog.WithCodec(cd))
		}
	}
	if c.Workers != nil {
		opts = append(opts, sog.WithWorkers(*c.Workers))
	}
	if c.BatchSize != nil {
		opts = append(opts, sog.WithBatchSize(*c.BatchSize))
	}
	if c.HalfPrecision != nil {
		opts = append(opts, sog.WithHalfPrecision(*c.HalfPrecision))
	}
	return opts
}

// Merge overlays the fields set in other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	merge(&c.Iterations, other.Iterations)
	merge(&c.MaxSHBands, other.MaxSHBands)
	merge(&c.Generator, other.Generator)
	merge(&c.Seed, other.Seed)
	merge(&c.Codec, other.Codec)
	merge(&c.Workers, other.Workers)
	merge(&c.BatchSize, other.BatchSize)
	merge(&c.HalfPrecision, other.HalfPrecision)
	merge(&c.MemoryLimitBytes, other.MemoryLimitBytes)
	merge(&c.IOLimitBytesPerSec, other.IOLimitBytesPerSec)
	merge(&c.LogLevel, other.LogLevel)
	merge(&c.LogFormat, other.LogFormat)
	merge(&c.Compression, other.Compression)
	merge(&c.S3Region, other.S3Region)
	merge(&c.S3Profile, other.S3Profile)
	merge(&c.S3PartSize, other.S3PartSize)
	merge(&c.MinioEndpoint, other.MinioEndpoint)
	merge(&c.MinioSecure, other.MinioSecure)
	merge(&c.MetricsAddr, other.MetricsAddr)
	merge(&c.Timeout, other.Timeout)
}

func merge[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
