package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/gallery"
	"github.com/snapvec/snapvec/domain/repository"
	"github.com/snapvec/snapvec/infrastructure/provider"
	"github.com/snapvec/snapvec/internal/database"
)

// fakeStore is an in-memory embedding.Store.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]embedding.Record
	nextID  int64
	saveErr error
	findErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]embedding.Record)}
}

func storeKey(ref embedding.EntityRef, model string) string {
	return ref.String() + "|" + model
}

func (s *fakeStore) Get(_ context.Context, ref embedding.EntityRef, model string) (embedding.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[storeKey(ref, model)]
	if !ok {
		return embedding.Record{}, fmt.Errorf("%w: embedding", database.ErrNotFound)
	}
	return record, nil
}

func (s *fakeStore) Save(_ context.Context, record embedding.Record) (embedding.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return embedding.Record{}, s.saveErr
	}

	key := storeKey(record.Ref(), record.Model())
	now := time.Now()
	id := record.ID()
	createdAt := now
	if existing, ok := s.records[key]; ok {
		id = existing.ID()
		createdAt = existing.CreatedAt()
	} else {
		s.nextID++
		id = s.nextID
	}

	stored := embedding.NewStoredRecord(id, record.Ref(), record.Vector(),
		record.Model(), record.Provider(), record.Metadata(), createdAt, now)
	s.records[key] = stored
	return stored, nil
}

func (s *fakeStore) Delete(_ context.Context, ref embedding.EntityRef, models ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, record := range s.records {
		if record.Ref() != ref {
			continue
		}
		if len(models) == 0 {
			delete(s.records, key)
			continue
		}
		for _, m := range models {
			if record.Model() == m {
				delete(s.records, key)
			}
		}
	}
	return nil
}

func (s *fakeStore) Find(_ context.Context, options ...embedding.Option) ([]embedding.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}

	q := repository.Build(options...)
	var result []embedding.Record
	for _, record := range s.records {
		if matchesRecord(record, q) {
			result = append(result, record)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })

	offset := q.OffsetValue()
	if offset > len(result) {
		offset = len(result)
	}
	result = result[offset:]
	if limit := q.LimitValue(); limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (s *fakeStore) Count(ctx context.Context, options ...embedding.Option) (int64, error) {
	records, err := s.Find(ctx, options...)
	return int64(len(records)), err
}

func (s *fakeStore) Exists(ctx context.Context, options ...embedding.Option) (bool, error) {
	count, err := s.Count(ctx, options...)
	return count > 0, err
}

func (s *fakeStore) HasEmbeddings(_ context.Context, refs []embedding.EntityRef, model string) (map[embedding.EntityRef]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[embedding.EntityRef]bool)
	for _, ref := range refs {
		if _, ok := s.records[storeKey(ref, model)]; ok {
			result[ref] = true
		}
	}
	return result, nil
}

func (s *fakeStore) DistinctModels(context.Context) ([]string, error) {
	return s.distinct(func(r embedding.Record) string { return r.Model() }), nil
}

func (s *fakeStore) DistinctProviders(context.Context) ([]string, error) {
	return s.distinct(func(r embedding.Record) string { return r.Provider() }), nil
}

func (s *fakeStore) distinct(fn func(embedding.Record) string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var values []string
	for _, record := range s.records {
		v := fn(record)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}

func (s *fakeStore) AverageDimensions(context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return 0, nil
	}
	var sum int
	for _, record := range s.records {
		sum += record.Dimensions()
	}
	return float64(sum) / float64(len(s.records)), nil
}

func (s *fakeStore) CountSince(_ context.Context, t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, record := range s.records {
		if !record.CreatedAt().Before(t) {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) LatestCreatedAt(context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest time.Time
	for _, record := range s.records {
		if record.CreatedAt().After(latest) {
			latest = record.CreatedAt()
		}
	}
	return latest, nil
}

func matchesRecord(record embedding.Record, q repository.Query) bool {
	for _, cond := range q.Conditions() {
		var got string
		switch cond.Field() {
		case "entity_kind":
			got = string(record.Ref().Kind())
		case "entity_id":
			got = fmt.Sprint(record.Ref().ID())
		case "model":
			got = record.Model()
		case "provider":
			got = record.Provider()
		default:
			continue
		}
		if cond.In() {
			continue
		}
		if got != fmt.Sprint(cond.Value()) {
			return false
		}
	}
	return true
}

// fakeCatalog is an in-memory gallery.Catalog.
type fakeCatalog struct {
	mu         sync.Mutex
	items      map[embedding.EntityRef]gallery.Item
	keywordErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{items: make(map[embedding.EntityRef]gallery.Item)}
}

func (c *fakeCatalog) add(item gallery.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.Ref()] = item
}

func (c *fakeCatalog) remove(ref embedding.EntityRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, ref)
}

func (c *fakeCatalog) Get(_ context.Context, ref embedding.EntityRef) (gallery.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[ref]
	if !ok {
		return gallery.Item{}, fmt.Errorf("%w: item %s", database.ErrNotFound, ref)
	}
	return item, nil
}

func (c *fakeCatalog) Find(_ context.Context, options ...gallery.Option) ([]gallery.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := repository.Build(options...)
	var result []gallery.Item
	for _, item := range c.items {
		if matchesItem(item, q) {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result, nil
}

func (c *fakeCatalog) Count(ctx context.Context, options ...gallery.Option) (int64, error) {
	items, err := c.Find(ctx, options...)
	return int64(len(items)), err
}

func (c *fakeCatalog) FindByKeyword(_ context.Context, keyword string, limit int, options ...gallery.Option) ([]gallery.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keywordErr != nil {
		return nil, c.keywordErr
	}

	q := repository.Build(options...)
	needle := strings.ToLower(keyword)
	var result []gallery.Item
	for _, item := range c.items {
		haystack := strings.ToLower(item.Title() + " " + item.Description())
		if strings.Contains(haystack, needle) && matchesItem(item, q) {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (c *fakeCatalog) FindBySharedTag(_ context.Context, exclude embedding.EntityRef, tags []string, limit int) ([]gallery.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wanted := make(map[string]bool, len(tags))
	for _, tag := range tags {
		wanted[tag] = true
	}

	var result []gallery.Item
	for _, item := range c.items {
		if item.Ref() == exclude {
			continue
		}
		for _, tag := range item.Tags() {
			if wanted[tag] {
				result = append(result, item)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func matchesItem(item gallery.Item, q repository.Query) bool {
	for _, cond := range q.Conditions() {
		var got string
		switch cond.Field() {
		case "kind":
			got = string(item.Kind())
		case "owner_id":
			got = fmt.Sprint(item.OwnerID())
		case "album_id":
			got = fmt.Sprint(item.AlbumID())
		default:
			continue
		}
		if got != fmt.Sprint(cond.Value()) {
			return false
		}
	}
	return true
}

// failingProvider always returns an error from Embed.
type failingProvider struct {
	model string
}

var errProviderDown = errors.New("provider unavailable")

func (p *failingProvider) Embed(context.Context, provider.EmbeddingRequest) (*provider.EmbeddingResponse, error) {
	return nil, provider.NewError("failing", "embed", errProviderDown)
}

func (p *failingProvider) Name() string                     { return "failing" }
func (p *failingProvider) Model() string                    { return p.model }
func (p *failingProvider) Dimensions() int                  { return 0 }
func (p *failingProvider) Ping(context.Context) error       { return errProviderDown }
func (p *failingProvider) Close() error                     { return nil }

// countingProvider wraps another provider and counts Embed calls.
type countingProvider struct {
	provider.Provider
	mu    sync.Mutex
	calls int
}

func (p *countingProvider) Embed(ctx context.Context, req provider.EmbeddingRequest) (*provider.EmbeddingResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.Provider.Embed(ctx, req)
}

func (p *countingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
