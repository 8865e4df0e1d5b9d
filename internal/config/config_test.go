package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  address: ":9090"
  mode: release
jwt:
  secret: file-secret
generation:
  fallback_policy: fail_fast
  provider_timeout: 10s
  request_timeout: 30s
  providers:
    - name: primary
      type: vertex_rest
      model: gemini-1.5-pro
      project: demo-project
      rate_limit: 2
    - name: backup
      type: openai_chat
      model: gpt-4o-mini
      api_key: sk-test
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfig_FromFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, FallbackFailFast, cfg.Generation.FallbackPolicy)
	assert.Equal(t, 10*time.Second, cfg.Generation.ProviderTimeout)
	assert.Equal(t, 30*time.Second, cfg.Generation.RequestTimeout)
	require.Len(t, cfg.Generation.Providers, 2)
	assert.Equal(t, "primary", cfg.Generation.Providers[0].Name)
	assert.Equal(t, 2.0, cfg.Generation.Providers[0].RateLimit)
	assert.Equal(t, "sk-test", cfg.Generation.Providers[1].APIKey)

	// untouched keys keep their defaults
	assert.Equal(t, "profiles", cfg.Database.Collection)
	assert.Equal(t, 10*time.Second, cfg.Database.WriteTimeout)
	assert.Equal(t, "raw-responses", cfg.Archive.Prefix)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("GENERATION_FALLBACK_POLICY", "continue")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, FallbackContinue, cfg.Generation.FallbackPolicy)
}

func TestLoadConfig_ModelListExpandsSingleProvider(t *testing.T) {
	t.Setenv("GENERATION_MODELS", "gemini-1.5-pro,gemini-1.5-flash")

	cfg, err := LoadConfig(writeConfig(t, `
jwt:
  secret: s
generation:
  providers:
    - type: genai_sdk
      api_key: key
`))
	require.NoError(t, err)

	require.Len(t, cfg.Generation.Providers, 2)
	assert.Equal(t, "genai_sdk:gemini-1.5-pro", cfg.Generation.Providers[0].Name)
	assert.Equal(t, "gemini-1.5-flash", cfg.Generation.Providers[1].Model)
	assert.Equal(t, "key", cfg.Generation.Providers[1].APIKey)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerConfig{Mode: "debug"},
			JWT:    JWTConfig{Secret: "s"},
			Generation: GenerationConfig{
				FallbackPolicy:  FallbackContinue,
				ProviderTimeout: time.Second,
				RequestTimeout:  time.Minute,
				Providers:       []ProviderConfig{{Type: "mock"}},
			},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, "jwt.secret"},
		{"unknown server mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"unknown policy", func(c *Config) { c.Generation.FallbackPolicy = "retry" }, "fallback_policy"},
		{"zero timeout", func(c *Config) { c.Generation.ProviderTimeout = 0 }, "positive"},
		{"attempt timeout too long", func(c *Config) { c.Generation.ProviderTimeout = 2 * time.Minute }, "shorter"},
		{"no providers", func(c *Config) { c.Generation.Providers = nil }, "provider"},
		{"archive without bucket", func(c *Config) { c.Archive.Enabled = true }, "bucket_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWithDefaults(t *testing.T) {
	p := ProviderConfig{Type: "mock", RateLimit: 1.5}.WithDefaults()

	assert.Equal(t, "mock", p.Name)
	assert.Equal(t, "us-central1", p.Region)
	assert.Equal(t, DefaultMaxOutputTokens, p.MaxOutputTokens)
	assert.Equal(t, 1, p.RateBurst)
	assert.Equal(t, 0, ProviderConfig{}.WithDefaults().RateBurst)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList(" [a, b c] "))
	assert.Nil(t, splitList(""))
}
