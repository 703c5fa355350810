// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                = "0.0.0.0"
	DefaultPort                = 8080
	DefaultLogLevel            = "INFO"
	DefaultModel               = "synthetic-embedding-v1"
	DefaultDimensions          = 512
	DefaultSearchLimit         = 20
	DefaultSearchMaxLimit      = 100
	DefaultSearchThreshold     = 0.7
	DefaultSimilarLimit        = 10
	DefaultSimilarMaxLimit     = 50
	DefaultSimilarThreshold    = 0.8
	DefaultKeywordScore        = 0.5
	DefaultTagScore            = 0.6
	DefaultBatchParallelism    = 4
	DefaultStatsTTL            = 5 * time.Minute
	StatsRecentWindow          = 7 * 24 * time.Hour
	DefaultEndpointTimeout     = 60 * time.Second
	DefaultEndpointMaxRetries  = 5
	DefaultEndpointInitialWait = 2 * time.Second
	DefaultEndpointBackoff     = 2.0
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures the embedding provider endpoint.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	dimensions    int
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		dimensions:    DefaultDimensions,
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialWait,
		backoffFactor: DefaultEndpointBackoff,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Dimensions returns the model's declared vector dimensionality.
func (e Endpoint) Dimensions() int { return e.dimensions }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool {
	return e.apiKey != "" && e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithDimensions sets the declared vector dimensionality.
func WithDimensions(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.dimensions = n
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// SearchConfig holds default limits and thresholds for search operations.
type SearchConfig struct {
	defaultLimit     int
	maxLimit         int
	defaultThreshold float64
	similarLimit     int
	similarMaxLimit  int
	similarThreshold float64
	keywordScore     float64
	tagScore         float64
}

// NewSearchConfig creates a SearchConfig with defaults.
func NewSearchConfig() SearchConfig {
	return SearchConfig{
		defaultLimit:     DefaultSearchLimit,
		maxLimit:         DefaultSearchMaxLimit,
		defaultThreshold: DefaultSearchThreshold,
		similarLimit:     DefaultSimilarLimit,
		similarMaxLimit:  DefaultSimilarMaxLimit,
		similarThreshold: DefaultSimilarThreshold,
		keywordScore:     DefaultKeywordScore,
		tagScore:         DefaultTagScore,
	}
}

// DefaultLimit returns the default text search result limit.
func (s SearchConfig) DefaultLimit() int { return s.defaultLimit }

// MaxLimit returns the maximum text search result limit.
func (s SearchConfig) MaxLimit() int { return s.maxLimit }

// DefaultThreshold returns the default text search similarity threshold.
func (s SearchConfig) DefaultThreshold() float64 { return s.defaultThreshold }

// SimilarLimit returns the default similar-item result limit.
func (s SearchConfig) SimilarLimit() int { return s.similarLimit }

// SimilarMaxLimit returns the maximum similar-item result limit.
func (s SearchConfig) SimilarMaxLimit() int { return s.similarMaxLimit }

// SimilarThreshold returns the default similar-item similarity threshold.
func (s SearchConfig) SimilarThreshold() float64 { return s.similarThreshold }

// KeywordScore returns the nominal score assigned to keyword fallback hits.
func (s SearchConfig) KeywordScore() float64 { return s.keywordScore }

// TagScore returns the nominal score assigned to tag fallback hits.
func (s SearchConfig) TagScore() float64 { return s.tagScore }

// SearchConfigOption is a functional option for SearchConfig.
type SearchConfigOption func(*SearchConfig)

// WithDefaultLimit sets the default text search limit.
func WithDefaultLimit(n int) SearchConfigOption {
	return func(s *SearchConfig) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// WithDefaultThreshold sets the default text search threshold.
func WithDefaultThreshold(t float64) SearchConfigOption {
	return func(s *SearchConfig) { s.defaultThreshold = t }
}

// WithFallbackScores sets the nominal keyword and tag fallback scores.
func WithFallbackScores(keyword, tag float64) SearchConfigOption {
	return func(s *SearchConfig) {
		s.keywordScore = keyword
		s.tagScore = tag
	}
}

// NewSearchConfigWithOptions creates a SearchConfig with functional options.
func NewSearchConfigWithOptions(opts ...SearchConfigOption) SearchConfig {
	s := NewSearchConfig()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host              string
	port              int
	dataDir           string
	dbURL             string
	logLevel          string
	logFormat         LogFormat
	apiKeys           []string
	embeddingEndpoint *Endpoint
	search            SearchConfig
	batchParallelism  int
	statsTTL          time.Duration
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".snapvec"
	}
	return filepath.Join(home, ".snapvec")
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:             DefaultHost,
		port:             DefaultPort,
		dataDir:          dataDir,
		dbURL:            "sqlite:///" + filepath.Join(dataDir, "snapvec.db"),
		logLevel:         DefaultLogLevel,
		logFormat:        LogFormatPretty,
		apiKeys:          []string{},
		search:           NewSearchConfig(),
		batchParallelism: DefaultBatchParallelism,
		statsTTL:         DefaultStatsTTL,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// EmbeddingEndpoint returns the embedding endpoint config, nil when no real
// provider is configured (the synthetic provider is used instead).
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// Search returns the search defaults.
func (c AppConfig) Search() SearchConfig { return c.search }

// BatchParallelism returns the bounded parallelism for batch generation.
func (c AppConfig) BatchParallelism() int { return c.batchParallelism }

// StatsTTL returns the aggregate stats cache lifetime.
func (c AppConfig) StatsTTL() time.Duration { return c.statsTTL }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		if c.dbURL == "" || strings.Contains(c.dbURL, "snapvec.db") {
			c.dbURL = "sqlite:///" + filepath.Join(dir, "snapvec.db")
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithSearchConfig sets the search defaults.
func WithSearchConfig(s SearchConfig) AppConfigOption {
	return func(c *AppConfig) { c.search = s }
}

// WithBatchParallelism sets the bounded parallelism for batch generation.
func WithBatchParallelism(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.batchParallelism = n
		}
	}
}

// WithStatsTTL sets the aggregate stats cache lifetime.
func WithStatsTTL(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.statsTTL = d
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Sensitive values like API keys are masked or shown as counts.
func (c AppConfig) LogAttrs() []slog.Attr {
	model := "(synthetic)"
	if c.embeddingEndpoint != nil {
		model = c.embeddingEndpoint.Model()
	}
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("embedding_model", model),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Int("batch_parallelism", c.batchParallelism),
		slog.Duration("stats_ttl", c.statsTTL),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

// ParseAPIKeys parses a comma-separated string of API keys.
func ParseAPIKeys(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
