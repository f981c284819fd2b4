package query

import (
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
)

const (
	// DefaultPageSize applies when the client supplies no limit.
	DefaultPageSize = 10
	// MaxPageSize caps client-supplied limits to keep result sets bounded.
	MaxPageSize = 500
	// DefaultSortColumn orders pages by creation time unless overridden.
	DefaultSortColumn = "created_at"
)

// PageRequest carries client paging parameters. The zero value is usable and
// normalizes to page 1, the default limit, and created_at DESC.
type PageRequest struct {
	Page      int
	Limit     int
	SortField string
	SortOrder string
	StartTime *time.Time
	EndTime   *time.Time
}

// Normalize clamps the request into valid bounds.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultPageSize
	}
	if r.Limit > MaxPageSize {
		r.Limit = MaxPageSize
	}
	if r.SortField == "" {
		r.SortField = DefaultSortColumn
	}
	if !strings.EqualFold(r.SortOrder, "ASC") {
		r.SortOrder = "DESC"
	} else {
		r.SortOrder = "ASC"
	}
	return r
}

// Offset returns the row offset for the normalized request.
func (r PageRequest) Offset() uint64 {
	return uint64(r.Page-1) * uint64(r.Limit)
}

// TimeClause builds the creation-time range restriction: both bounds give an
// inclusive BETWEEN, a single bound gives >= or <=, none gives no clause.
func (r PageRequest) TimeClause(column string) Predicate {
	switch {
	case r.StartTime != nil && r.EndTime != nil:
		return FromSqlizer(squirrel.And{
			squirrel.GtOrEq{column: *r.StartTime},
			squirrel.LtOrEq{column: *r.EndTime},
		})
	case r.StartTime != nil:
		return FromSqlizer(squirrel.GtOrEq{column: *r.StartTime})
	case r.EndTime != nil:
		return FromSqlizer(squirrel.LtOrEq{column: *r.EndTime})
	}
	return Unrestricted()
}

// ClampSort restricts the sort column to the allowed set. The field lands in
// SQL as a bare identifier, so anything outside the set falls back to the
// default column instead of reaching the statement.
func (r PageRequest) ClampSort(allowed []string) PageRequest {
	for _, column := range allowed {
		if strings.EqualFold(column, r.SortField) {
			r.SortField = column
			return r
		}
	}
	r.SortField = DefaultSortColumn
	return r
}

// ApplyPage attaches ordering, limit, and offset of the normalized request to
// a select builder. Callers must have clamped the sort column first; this
// function does not validate identifiers.
func (r PageRequest) ApplyPage(sel squirrel.SelectBuilder) squirrel.SelectBuilder {
	return sel.
		OrderBy(r.SortField + " " + r.SortOrder).
		Limit(uint64(r.Limit)).
		Offset(r.Offset())
}

// BuildPage composes the full paged query pair: a count builder and a slice
// builder, both restricted by scope AND filter AND the time range. The sort
// column is clamped to the table's column list.
func BuildPage(table string, columns []string, scope, filter Predicate, req PageRequest, timeColumn string) (squirrel.SelectBuilder, squirrel.SelectBuilder) {
	req = req.Normalize().ClampSort(columns)
	restriction := scope.And(filter).And(req.TimeClause(timeColumn))

	builder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	count := restriction.Apply(builder.Select("COUNT(*)").From(table))
	slice := req.ApplyPage(restriction.Apply(builder.Select(columns...).From(table)))
	return count, slice
}
