// Package query builds storage predicates: declarative filter compilation,
// data-scope restrictions, and deterministic pagination. Predicates are
// squirrel expression trees the repositories splice into WHERE clauses.
package query

import (
	squirrel "github.com/Masterminds/squirrel"
)

// Predicate is a composable boolean restriction over named columns. The zero
// value means "no restriction".
type Predicate struct {
	expr        squirrel.Sqlizer
	unsatisfied bool
}

// Unrestricted returns the predicate that matches every row.
func Unrestricted() Predicate {
	return Predicate{}
}

// DenyAll returns the explicitly unsatisfiable predicate. It is a valid
// result, not an error: queries carrying it simply match zero rows.
func DenyAll() Predicate {
	return Predicate{unsatisfied: true}
}

// FromSqlizer wraps a squirrel expression as a predicate.
func FromSqlizer(expr squirrel.Sqlizer) Predicate {
	if expr == nil {
		return Unrestricted()
	}
	return Predicate{expr: expr}
}

// IsUnrestricted reports whether the predicate places no restriction.
func (p Predicate) IsUnrestricted() bool {
	return p.expr == nil && !p.unsatisfied
}

// IsDenyAll reports whether the predicate can match no row.
func (p Predicate) IsDenyAll() bool {
	return p.unsatisfied
}

// And conjoins two predicates. Unrestricted operands are dropped; a deny-all
// operand makes the result deny-all.
func (p Predicate) And(other Predicate) Predicate {
	switch {
	case p.unsatisfied || other.unsatisfied:
		return DenyAll()
	case p.expr == nil:
		return other
	case other.expr == nil:
		return p
	}
	return Predicate{expr: squirrel.And{p.expr, other.expr}}
}

// Or disjoins two predicates. An unrestricted operand widens the result to
// unrestricted; a deny-all operand is dropped.
func (p Predicate) Or(other Predicate) Predicate {
	switch {
	case p.IsUnrestricted() || other.IsUnrestricted():
		return Unrestricted()
	case p.unsatisfied:
		return other
	case other.unsatisfied:
		return p
	}
	return Predicate{expr: squirrel.Or{p.expr, other.expr}}
}

// Apply attaches the predicate to a select builder. Unrestricted predicates
// leave the builder untouched; deny-all compiles to a constant-false clause
// so the storage layer returns zero rows.
func (p Predicate) Apply(sel squirrel.SelectBuilder) squirrel.SelectBuilder {
	if p.unsatisfied {
		return sel.Where(squirrel.Expr("1=0"))
	}
	if p.expr == nil {
		return sel
	}
	return sel.Where(p.expr)
}

// ToSql renders the predicate for direct inspection. Unrestricted predicates
// render to an empty clause.
func (p Predicate) ToSql() (string, []any, error) {
	if p.unsatisfied {
		return "1=0", nil, nil
	}
	if p.expr == nil {
		return "", nil, nil
	}
	return p.expr.ToSql()
}
