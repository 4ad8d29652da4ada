package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sog/tablefile"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "sogpack.json", `{
		"iterations": 5,
		"max_sh_bands": 2,
		"seed": 42,
		"log_level": "DEBUG",
		"memory_limit_bytes": 1048576,
		"compression": "lz4",
		"timeout": "90s"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, *cfg.Iterations)
	assert.Equal(t, 2, *cfg.MaxSHBands)
	assert.Nil(t, cfg.Generator)
	assert.Nil(t, cfg.IOLimitBytesPerSec)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	assert.Equal(t, int64(1048576), cfg.Resources().MemoryLimitBytes)
	assert.Zero(t, cfg.Resources().IOLimitBytesPerSec)
	assert.Equal(t, tablefile.CompressionLZ4, cfg.GetCompression())
	assert.Equal(t, 90*time.Second, cfg.GetTimeout())
	assert.Len(t, cfg.Options(), 3)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"Extension", "cfg.yaml", `{}`, ".json extension"},
		{"Syntax", "cfg.json", `{"iterations":`, "parse"},
		{"Bands", "cfg.json", `{"max_sh_bands": 4}`, "max_sh_bands"},
		{"Iterations", "cfg.json", `{"iterations": 0}`, "iterations"},
		{"Codec", "cfg.json", `{"codec": "xml"}`, "unknown codec"},
		{"LogLevel", "cfg.json", `{"log_level": "loud"}`, "log_level"},
		{"LogFormat", "cfg.json", `{"log_format": "xml"}`, "log_format"},
		{"Compression", "cfg.json", `{"compression": "brotli"}`, "compression"},
		{"Timeout", "cfg.json", `{"timeout": "soon"}`, "timeout"},
		{"Memory", "cfg.json", `{"memory_limit_bytes": -1}`, "memory_limit_bytes"},
		{"UnknownField", "cfg.json", `{"iteration": 3}`, "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("Missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("TooLarge", func(t *testing.T) {
		big := make([]byte, maxFileSize+1)
		for i := range big {
			big[i] = ' '
		}
		_, err := Load(writeFile(t, "big.json", string(big)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
	assert.Equal(t, tablefile.CompressionZstd, cfg.GetCompression())
	assert.Zero(t, cfg.GetTimeout())
	assert.Empty(t, cfg.Options())
}

func TestMerge(t *testing.T) {
	base := &Config{Iterations: Ptr(10), Generator: Ptr("file")}
	base.Merge(&Config{Iterations: Ptr(3), Seed: Ptr(int64(9))})
	base.Merge(nil)

	assert.Equal(t, 3, *base.Iterations)
	assert.Equal(t, "file", *base.Generator)
	assert.Equal(t, int64(9), *base.Seed)
}
