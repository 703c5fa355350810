package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.snapvec
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/snapvec.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of keys accepted on mutating
	// embedding endpoints. Empty disables write protection.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// EmbeddingEndpoint configures the embedding provider.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// SearchDefaultLimit is the default text search result limit.
	// Env: SEARCH_DEFAULT_LIMIT (default: 20)
	SearchDefaultLimit int `envconfig:"SEARCH_DEFAULT_LIMIT" default:"20"`

	// SearchDefaultThreshold is the default text search threshold.
	// Env: SEARCH_DEFAULT_THRESHOLD (default: 0.7)
	SearchDefaultThreshold float64 `envconfig:"SEARCH_DEFAULT_THRESHOLD" default:"0.7"`

	// FallbackKeywordScore is the nominal score for keyword fallback hits.
	// Env: FALLBACK_KEYWORD_SCORE (default: 0.5)
	FallbackKeywordScore float64 `envconfig:"FALLBACK_KEYWORD_SCORE" default:"0.5"`

	// FallbackTagScore is the nominal score for tag fallback hits.
	// Env: FALLBACK_TAG_SCORE (default: 0.6)
	FallbackTagScore float64 `envconfig:"FALLBACK_TAG_SCORE" default:"0.6"`

	// BatchParallelism bounds concurrent provider calls during batch
	// generation.
	// Env: BATCH_PARALLELISM (default: 4)
	BatchParallelism int `envconfig:"BATCH_PARALLELISM" default:"4"`

	// StatsTTLSeconds is the aggregate stats cache lifetime in seconds.
	// Env: STATS_TTL_SECONDS (default: 300)
	StatsTTLSeconds float64 `envconfig:"STATS_TTL_SECONDS" default:"300"`
}

// EndpointEnv holds environment configuration for the embedding provider.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: EMBEDDING_ENDPOINT_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g., text-embedding-3-small).
	// Env: EMBEDDING_ENDPOINT_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: EMBEDDING_ENDPOINT_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Dimensions is the model's declared vector dimensionality.
	// Env: EMBEDDING_ENDPOINT_DIMENSIONS (default: 1536)
	Dimensions int `envconfig:"DIMENSIONS" default:"1536"`

	// Timeout is the request timeout in seconds.
	// Env: EMBEDDING_ENDPOINT_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: EMBEDDING_ENDPOINT_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: EMBEDDING_ENDPOINT_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: EMBEDDING_ENDPOINT_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// IsConfigured reports whether a real provider endpoint is configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.APIKey != "" && e.Model != ""
}

// ToEndpoint converts EndpointEnv to an Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	return NewEndpointWithOptions(
		WithBaseURL(e.BaseURL),
		WithModel(e.Model),
		WithAPIKey(e.APIKey),
		WithDimensions(e.Dimensions),
		WithTimeout(time.Duration(e.Timeout*float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(time.Duration(e.InitialDelay*float64(time.Second))),
		WithBackoffFactor(e.BackoffFactor),
	)
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = cfg.Apply(WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = cfg.Apply(WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = cfg.Apply(WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = cfg.Apply(WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = cfg.Apply(WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.APIKeys != "" {
		cfg = cfg.Apply(WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}
	if e.EmbeddingEndpoint.IsConfigured() {
		cfg = cfg.Apply(WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}

	cfg = cfg.Apply(WithSearchConfig(NewSearchConfigWithOptions(
		WithDefaultLimit(e.SearchDefaultLimit),
		WithDefaultThreshold(e.SearchDefaultThreshold),
		WithFallbackScores(e.FallbackKeywordScore, e.FallbackTagScore),
	)))
	cfg = cfg.Apply(WithBatchParallelism(e.BatchParallelism))
	cfg = cfg.Apply(WithStatsTTL(time.Duration(e.StatsTTLSeconds * float64(time.Second))))

	return cfg
}

func parseLogFormat(s string) LogFormat {
	if strings.EqualFold(s, string(LogFormatJSON)) {
		return LogFormatJSON
	}
	return LogFormatPretty
}
