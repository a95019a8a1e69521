package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound indicates the requested entity was not found.
var ErrNotFound = errors.New("entity not found")

// EntityMapper defines the interface for mapping between domain and database model types.
type EntityMapper[D any, E any] interface {
	ToDomain(entity E) D
	ToModel(domain D) E
}

// Repository provides generic persistence operations for database entities.
type Repository[D any, E any] struct {
	db     Database
	mapper EntityMapper[D, E]
	label  string
}

// NewRepository creates a new Repository.
func NewRepository[D any, E any](db Database, mapper EntityMapper[D, E], label string) Repository[D, E] {
	return Repository[D, E]{
		db:     db,
		mapper: mapper,
		label:  label,
	}
}

func (r Repository[D, E]) modelDB(ctx context.Context) *gorm.DB {
	return r.db.Session(ctx).Model(new(E))
}

// Create inserts a new entity and returns it with generated fields populated.
func (r Repository[D, E]) Create(ctx context.Context, domain D) (D, error) {
	model := r.mapper.ToModel(domain)
	if err := r.db.Session(ctx).Create(&model).Error; err != nil {
		var zero D
		return zero, fmt.Errorf("create %s: %w", r.label, err)
	}
	return r.mapper.ToDomain(model), nil
}

// Find retrieves entities matching the query.
func (r Repository[D, E]) Find(ctx context.Context, query Query) ([]D, error) {
	var entities []E
	result := query.Apply(r.modelDB(ctx)).Find(&entities)
	if result.Error != nil {
		return nil, fmt.Errorf("find %s: %w", r.label, result.Error)
	}

	domains := make([]D, len(entities))
	for i, entity := range entities {
		domains[i] = r.mapper.ToDomain(entity)
	}
	return domains, nil
}

// FindOne retrieves a single entity matching the query.
func (r Repository[D, E]) FindOne(ctx context.Context, query Query) (D, error) {
	var entity E
	result := query.Apply(r.db.Session(ctx)).First(&entity)
	if result.Error != nil {
		var zero D
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return zero, fmt.Errorf("%w: %s", ErrNotFound, r.label)
		}
		return zero, fmt.Errorf("find one %s: %w", r.label, result.Error)
	}
	return r.mapper.ToDomain(entity), nil
}

// Count returns the number of entities matching the query filters.
// Ordering and pagination are ignored.
func (r Repository[D, E]) Count(ctx context.Context, query Query) (int64, error) {
	var count int64
	conditions := Query{filters: query.Filters()}
	if result := conditions.Apply(r.modelDB(ctx)).Count(&count); result.Error != nil {
		return 0, fmt.Errorf("count %s: %w", r.label, result.Error)
	}
	return count, nil
}

// DeleteBy removes entities matching the query filters and returns the
// number of rows deleted.
func (r Repository[D, E]) DeleteBy(ctx context.Context, query Query) (int64, error) {
	result := query.Apply(r.db.Session(ctx)).Delete(new(E))
	if result.Error != nil {
		return 0, fmt.Errorf("delete %s: %w", r.label, result.Error)
	}
	return result.RowsAffected, nil
}
