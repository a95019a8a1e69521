package database

import (
	"fmt"

	"gorm.io/gorm"
)

// FilterOperator represents SQL comparison operators.
type FilterOperator int

// FilterOperator values.
const (
	OpEqual FilterOperator = iota
	OpGreaterThanOrEqual
	OpLessThan
	OpIn
)

// String returns the SQL representation of the operator.
func (o FilterOperator) String() string {
	switch o {
	case OpGreaterThanOrEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpIn:
		return "IN"
	default:
		return "="
	}
}

// Filter represents a single query filter condition.
type Filter struct {
	field    string
	operator FilterOperator
	value    any
}

// Field returns the filter field name.
func (f Filter) Field() string { return f.field }

// Operator returns the filter operator.
func (f Filter) Operator() FilterOperator { return f.operator }

// Value returns the filter value.
func (f Filter) Value() any { return f.value }

// SortDirection represents sort direction.
type SortDirection int

// SortDirection values.
const (
	SortAsc SortDirection = iota
	SortDesc
)

// String returns the SQL representation.
func (s SortDirection) String() string {
	if s == SortDesc {
		return "DESC"
	}
	return "ASC"
}

type orderBy struct {
	field     string
	direction SortDirection
}

// Query represents a database query with filters, ordering, and pagination.
// Queries are values; every builder method returns a modified copy.
type Query struct {
	filters []Filter
	orderBy []orderBy
	limit   int
	offset  int
}

// NewQuery creates a new empty Query.
func NewQuery() Query {
	return Query{}
}

// Where adds a filter condition.
func (q Query) Where(field string, operator FilterOperator, value any) Query {
	q.filters = append(append([]Filter(nil), q.filters...), Filter{field: field, operator: operator, value: value})
	return q
}

// Equal adds an equality filter.
func (q Query) Equal(field string, value any) Query {
	return q.Where(field, OpEqual, value)
}

// GreaterThanOrEqual adds a greater-than-or-equal filter.
func (q Query) GreaterThanOrEqual(field string, value any) Query {
	return q.Where(field, OpGreaterThanOrEqual, value)
}

// LessThan adds a less-than filter.
func (q Query) LessThan(field string, value any) Query {
	return q.Where(field, OpLessThan, value)
}

// In adds an IN filter.
func (q Query) In(field string, values any) Query {
	return q.Where(field, OpIn, values)
}

// Order adds an ordering specification.
func (q Query) Order(field string, direction SortDirection) Query {
	q.orderBy = append(append([]orderBy(nil), q.orderBy...), orderBy{field: field, direction: direction})
	return q
}

// OrderAsc adds ascending ordering.
func (q Query) OrderAsc(field string) Query {
	return q.Order(field, SortAsc)
}

// OrderDesc adds descending ordering.
func (q Query) OrderDesc(field string) Query {
	return q.Order(field, SortDesc)
}

// Limit sets the result limit.
func (q Query) Limit(limit int) Query {
	q.limit = limit
	return q
}

// Offset sets the result offset.
func (q Query) Offset(offset int) Query {
	q.offset = offset
	return q
}

// Filters returns all filter conditions.
func (q Query) Filters() []Filter {
	result := make([]Filter, len(q.filters))
	copy(result, q.filters)
	return result
}

// LimitValue returns the limit value (0 means no limit).
func (q Query) LimitValue() int { return q.limit }

// OffsetValue returns the offset value.
func (q Query) OffsetValue() int { return q.offset }

// Apply applies the query to a GORM database session.
func (q Query) Apply(db *gorm.DB) *gorm.DB {
	result := db

	for _, f := range q.filters {
		if f.operator == OpIn {
			result = result.Where(fmt.Sprintf("%s IN ?", f.field), f.value)
			continue
		}
		result = result.Where(fmt.Sprintf("%s %s ?", f.field, f.operator), f.value)
	}

	for _, o := range q.orderBy {
		result = result.Order(fmt.Sprintf("%s %s", o.field, o.direction))
	}

	if q.limit > 0 {
		result = result.Limit(q.limit)
	}

	if q.offset > 0 {
		result = result.Offset(q.offset)
	}

	return result
}
