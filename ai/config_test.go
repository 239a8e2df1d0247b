package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.AnalyzerHost)
	assert.NotEmpty(t, cfg.EmbeddingModel)
	assert.NotEmpty(t, cfg.AnalyzerModel)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://remote:9100"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithAnalyzerModel("gpt-4o-mini"),
	)
	assert.Equal(t, "http://remote:9100", cfg.EmbeddingHost)
	assert.Equal(t, "http://remote:9100", cfg.AnalyzerHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.AnalyzerModel)
}

func TestNewConfigSplitHosts(t *testing.T) {
	cfg := NewConfig(
		WithEmbeddingHost("http://embed:11434"),
		WithAnalyzerHost("http://chat:9100"),
	)
	assert.Equal(t, "http://embed:11434", cfg.EmbeddingHost)
	assert.Equal(t, "http://chat:9100", cfg.AnalyzerHost)
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"adds v1 suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"strips trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"keeps existing v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"empty untouched", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, AnalyzerHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.AnalyzerHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults valid", func(c *Config) {}, true},
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, false},
		{"missing analyzer host", func(c *Config) { c.AnalyzerHost = "" }, false},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, false},
		{"missing analyzer model", func(c *Config) { c.AnalyzerModel = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
