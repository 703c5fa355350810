package embedding

import "github.com/snapvec/snapvec/domain/repository"

// Option is an alias for the shared store query option type.
type Option = repository.Option

// WithRef filters by entity kind and ID.
func WithRef(ref EntityRef) Option {
	return func(q repository.Query) repository.Query {
		q = repository.WithCondition("entity_kind", string(ref.Kind()))(q)
		return repository.WithCondition("entity_id", ref.ID())(q)
	}
}

// WithKind filters by the "entity_kind" column.
func WithKind(kind Kind) Option {
	return repository.WithCondition("entity_kind", string(kind))
}

// WithEntityIDIn filters by the "entity_id" column using IN.
func WithEntityIDIn(ids []int64) Option {
	return repository.WithConditionIn("entity_id", ids)
}

// WithModel filters by the "model" column.
func WithModel(model string) Option {
	return repository.WithCondition("model", model)
}

// WithModelIn filters by the "model" column using IN.
func WithModelIn(models []string) Option {
	return repository.WithConditionIn("model", models)
}

// WithProvider filters by the "provider" column.
func WithProvider(provider string) Option {
	return repository.WithCondition("provider", provider)
}

// WithoutProvider excludes records from the given provider.
func WithoutProvider(provider string) Option {
	return repository.WithWhere("provider != ?", provider)
}
