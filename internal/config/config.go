package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	S3         S3Config         `mapstructure:"s3"`
	Generation GenerationConfig `mapstructure:"generation"`
}

type ServerConfig struct {
	Address     string   `mapstructure:"address"`
	Mode        string   `mapstructure:"mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Mode      string `mapstructure:"mode"`
	Redaction bool   `mapstructure:"redaction"`
}

type DatabaseConfig struct {
	URI        string `mapstructure:"uri"`
	Name       string `mapstructure:"name"`
	Collection string `mapstructure:"collection"`
	// WriteTimeout bounds the final plan/diagnostic write, separately from generation.request_timeout.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// JWTConfig configures verification of the bearer credentials presented by callers.
// Issuance happens elsewhere; this service only checks signatures and claims.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// ArchiveConfig controls copying raw provider replies to object storage.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// FallbackPolicy decides what the router does with failures other than
// "model not found / not supported".
type FallbackPolicy string

const (
	FallbackContinue FallbackPolicy = "continue"
	FallbackFailFast FallbackPolicy = "fail_fast"
)

type GenerationConfig struct {
	FallbackPolicy  FallbackPolicy   `mapstructure:"fallback_policy"`
	ProviderTimeout time.Duration    `mapstructure:"provider_timeout"`
	RequestTimeout  time.Duration    `mapstructure:"request_timeout"`
	Models          []string         `mapstructure:"models"`
	Providers       []ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig describes one candidate in the fallback chain.
// Fields that do not apply to a provider type are ignored by it.
type ProviderConfig struct {
	Name            string  `mapstructure:"name"`
	Type            string  `mapstructure:"type"`
	Model           string  `mapstructure:"model"`
	Project         string  `mapstructure:"project"`
	Region          string  `mapstructure:"region"`
	CredentialsJSON string  `mapstructure:"credentials_json"`
	CredentialsFile string  `mapstructure:"credentials_file"`
	APIKey          string  `mapstructure:"api_key"`
	BaseURL         string  `mapstructure:"base_url"`
	Language        string  `mapstructure:"language"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
	TopP            float64 `mapstructure:"top_p"`
	TopK            float64 `mapstructure:"top_k"`

	// RateLimit caps calls per second to this candidate across all requests; 0 disables it.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// Provider defaults applied when a field is left at its zero value.
const (
	DefaultMaxOutputTokens = 8192
	DefaultTemperature     = 0.7
	DefaultTopP            = 0.95
	DefaultTopK            = 40
)

// WithDefaults returns a copy of p with unset generation parameters filled in.
func (p ProviderConfig) WithDefaults() ProviderConfig {
	if p.MaxOutputTokens <= 0 {
		p.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if p.Temperature <= 0 {
		p.Temperature = DefaultTemperature
	}
	if p.TopP <= 0 {
		p.TopP = DefaultTopP
	}
	if p.TopK <= 0 {
		p.TopK = DefaultTopK
	}
	if p.Region == "" {
		p.Region = "us-central1"
	}
	if p.Name == "" {
		p.Name = p.Type
	}
	if p.RateLimit > 0 && p.RateBurst <= 0 {
		p.RateBurst = 1
	}
	return p
}

// LoadConfig reads configuration from a .env file, a config file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, generation.fallback_policy -> GENERATION_FALLBACK_POLICY
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("log.mode", "development")
	v.SetDefault("log.redaction", true)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "runplan")
	v.SetDefault("database.collection", "profiles")
	v.SetDefault("database.write_timeout", "10s")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "")
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.prefix", "raw-responses")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("generation.fallback_policy", string(FallbackContinue))
	v.SetDefault("generation.provider_timeout", "45s")
	v.SetDefault("generation.request_timeout", "120s")
	v.SetDefault("generation.models", []string{})

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	if models := splitList(v.GetString("generation.models")); len(models) > 0 {
		config.Generation.Models = models
	}
	config.Generation.Providers = expandModels(config.Generation.Providers, config.Generation.Models)

	err = config.Validate()
	return config, err
}

// Validate checks the settings the service cannot start without.
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.New("server.mode must be one of debug, release, test")
	}
	switch c.Generation.FallbackPolicy {
	case FallbackContinue, FallbackFailFast:
	default:
		return errors.New("generation.fallback_policy must be \"continue\" or \"fail_fast\"")
	}
	if c.Generation.ProviderTimeout <= 0 || c.Generation.RequestTimeout <= 0 {
		return errors.New("generation timeouts must be positive")
	}
	if c.Generation.ProviderTimeout >= c.Generation.RequestTimeout {
		return errors.New("generation.provider_timeout must be shorter than generation.request_timeout")
	}
	if len(c.Generation.Providers) == 0 {
		return errors.New("at least one generation provider must be configured")
	}
	if c.Archive.Enabled && c.S3.BucketName == "" {
		return errors.New("s3.bucket_name is required when archive is enabled")
	}
	return nil
}

// expandModels turns a single provider template into one candidate per model
// when GENERATION_MODELS is set. With several providers configured the list is ignored.
func expandModels(providers []ProviderConfig, models []string) []ProviderConfig {
	if len(models) == 0 || len(providers) != 1 {
		return providers
	}
	template := providers[0]
	out := make([]ProviderConfig, 0, len(models))
	for _, m := range models {
		p := template
		p.Model = m
		p.Name = template.Type + ":" + m
		out = append(out, p)
	}
	return out
}

func splitList(raw string) []string {
	raw = strings.Trim(strings.TrimSpace(raw), "[]")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
