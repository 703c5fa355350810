// Package snapvec provides embedding-based similarity search for media
// gallery entities.
//
// Snapvec maintains one embedding vector per (entity, model) pair, ranks the
// corpus by cosine similarity for text and similar-item queries, and degrades
// to keyword or tag matching when semantic search cannot run.
//
// Basic usage:
//
//	client, err := snapvec.New(
//	    snapvec.WithSQLite(".snapvec/data.db"),
//	    snapvec.WithSyntheticProvider("synthetic-embedding-v1", 512),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	outcome, err := client.Search.Search(ctx, "sunset over the ocean", 20, nil, service.Scope{})
//	for _, res := range outcome.Results {
//	    fmt.Println(res.Ref(), res.Score(), res.Title())
//	}
package snapvec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/snapvec/snapvec/application/service"
	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/gallery"
	"github.com/snapvec/snapvec/infrastructure/persistence"
	"github.com/snapvec/snapvec/infrastructure/provider"
	"github.com/snapvec/snapvec/internal/config"
	"github.com/snapvec/snapvec/internal/database"
)

// Version is the library version reported by the API and MCP surfaces.
const Version = "0.1.0"

// ErrNoDatabase indicates no database option was given to New.
var ErrNoDatabase = errors.New("no database configured: use WithSQLite or WithPostgres")

// Client is the main entry point for the snapvec library.
//
// Access services via struct fields:
//
//	client.Search.Search(ctx, "query", 0, nil, service.Scope{})
//	client.Generator.GenerateForEntity(ctx, ref, false)
type Client struct {
	// Public service fields (direct access)
	Search    *service.SearchService
	Generator *service.GeneratorService
	Batch     *service.BatchService
	Status    *service.StatusService

	// Catalog is the read-only view of the media store.
	Catalog gallery.Catalog

	db      database.Database
	store   embedding.Store
	logger  *slog.Logger
	apiKeys []string
	closed  atomic.Bool
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.database == databaseUnset {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.provider == nil {
		cfg.provider = provider.NewSyntheticProvider(config.DefaultModel, config.DefaultDimensions)
		logger.Info("no embedding provider configured, using synthetic provider",
			slog.String("model", cfg.provider.Model()))
	}

	if err := os.MkdirAll(cfg.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, databaseURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(ctx, db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	store := persistence.NewEmbeddingStore(db)
	catalog := persistence.NewGalleryStore(db)

	generator := service.NewGeneratorService(store, catalog, cfg.provider)
	fallback := service.NewFallbackService(catalog, cfg.search)
	searchSvc := service.NewSearchService(store, catalog, generator, fallback, cfg.search)
	batch := service.NewBatchService(generator, cfg.batchParallelism)
	status := service.NewStatusService(store, catalog, cfg.provider, cfg.statsTTL)

	// Corpus changes must drop the cached aggregate stats.
	generator.OnChange(status.Invalidate)

	return &Client{
		Search:    searchSvc,
		Generator: generator,
		Batch:     batch,
		Status:    status,
		Catalog:   catalog,
		db:        db,
		store:     store,
		logger:    logger,
		apiKeys:   cfg.apiKeys,
	}, nil
}

func databaseURL(cfg *clientConfig) string {
	switch cfg.database {
	case databaseSQLite:
		path := cfg.dbPath
		if path == "" {
			path = filepath.Join(cfg.dataDir, "snapvec.db")
		}
		return "sqlite:///" + path
	case databasePostgres:
		return cfg.dbDSN
	}
	return ""
}

// Store returns the embedding store for direct access.
func (c *Client) Store() embedding.Store {
	return c.store
}

// Logger returns the client logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// APIKeys returns the configured write-protection keys.
func (c *Client) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// Close releases the database connection and provider resources.
// Safe to call multiple times.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if err := c.Generator.Provider().Close(); err != nil {
		errs = append(errs, fmt.Errorf("close provider: %w", err))
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
