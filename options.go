package snapvec

import (
	"log/slog"
	"time"

	"github.com/snapvec/snapvec/infrastructure/provider"
	"github.com/snapvec/snapvec/internal/config"
)

// databaseType identifies the database.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	database         databaseType
	dbPath           string
	dbDSN            string
	dataDir          string
	provider         provider.Provider
	logger           *slog.Logger
	apiKeys          []string
	search           config.SearchConfig
	batchParallelism int
	statsTTL         time.Duration
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:          config.DefaultDataDir(),
		search:           config.NewSearchConfig(),
		batchParallelism: config.DefaultBatchParallelism,
		statsTTL:         config.DefaultStatsTTL,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres configures PostgreSQL as the database.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithOpenAI configures an OpenAI-compatible embedding provider from the
// given endpoint.
func WithOpenAI(endpoint config.Endpoint) Option {
	return func(c *clientConfig) {
		c.provider = provider.NewOpenAIProvider(endpoint)
	}
}

// WithSyntheticProvider configures the deterministic hash-based provider.
// This is also the default when no provider option is given.
func WithSyntheticProvider(model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.provider = provider.NewSyntheticProvider(model, dimensions)
	}
}

// WithProvider sets a custom embedding provider.
func WithProvider(p provider.Provider) Option {
	return func(c *clientConfig) {
		c.provider = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithAPIKeys sets API keys for write protection on the HTTP surface.
func WithAPIKeys(keys []string) Option {
	return func(c *clientConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithSearchConfig sets the search limits and thresholds.
func WithSearchConfig(s config.SearchConfig) Option {
	return func(c *clientConfig) {
		c.search = s
	}
}

// WithBatchParallelism sets how many embeddings are generated concurrently
// during batch runs. Defaults to 4. Values <= 0 are ignored.
func WithBatchParallelism(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.batchParallelism = n
		}
	}
}

// WithStatsTTL sets how long aggregate stats stay cached.
func WithStatsTTL(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.statsTTL = d
		}
	}
}
