package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
)

// Match selects how a filter field is compared against its column.
type Match int

const (
	// MatchEqual compiles to an exact-match clause.
	MatchEqual Match = iota
	// MatchContains compiles to a wildcard-wrapped LIKE clause.
	MatchContains
	// MatchInSet compiles to a set-membership clause. Comma-delimited
	// strings are split into a list first.
	MatchInSet
)

// ErrBadFilterValue reports a filter value that cannot be compiled under its
// declared match rule.
var ErrBadFilterValue = errors.New("filter value cannot be compiled")

// Rules maps filter field names to their match rule and target column. Only
// fields present here are ever compiled: an unlisted field can never leak
// into a predicate, whatever its value.
type Rules map[string]Rule

// Rule declares how one filter field compiles.
type Rule struct {
	// Column is the storage column the clause targets. Defaults to the
	// field name when empty.
	Column string
	Match  Match
}

// Compile turns a filter value map into a conjunction of per-field clauses.
// Empty strings and nils mean "field not supplied" and are skipped; numeric
// zero and boolean false are valid supplied values. Fields are visited in
// sorted name order, so compiling the same input twice yields structurally
// equal predicates.
func Compile(values map[string]any, rules Rules) (Predicate, error) {
	if len(values) == 0 || len(rules) == 0 {
		return Unrestricted(), nil
	}

	names := make([]string, 0, len(values))
	for name := range values {
		if _, ok := rules[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	conj := squirrel.And{}
	for _, name := range names {
		value := values[name]
		if skipValue(value) {
			continue
		}

		rule := rules[name]
		column := rule.Column
		if column == "" {
			column = name
		}

		switch rule.Match {
		case MatchEqual:
			conj = append(conj, squirrel.Eq{column: value})
		case MatchContains:
			text, ok := value.(string)
			if !ok {
				return Unrestricted(), fmt.Errorf("%w: field %q wants a string, got %T", ErrBadFilterValue, name, value)
			}
			conj = append(conj, squirrel.Like{column: "%" + text + "%"})
		case MatchInSet:
			members, err := setMembers(value)
			if err != nil {
				return Unrestricted(), fmt.Errorf("field %q: %w", name, err)
			}
			conj = append(conj, squirrel.Eq{column: members})
		default:
			return Unrestricted(), fmt.Errorf("%w: field %q has unknown match rule %d", ErrBadFilterValue, name, rule.Match)
		}
	}

	if len(conj) == 0 {
		return Unrestricted(), nil
	}
	return Predicate{expr: conj}, nil
}

// skipValue reports whether the field counts as "not supplied".
func skipValue(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	return false
}

// setMembers normalizes a membership filter value into a string list.
func setMembers(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		parts := strings.Split(v, ",")
		members := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				members = append(members, trimmed)
			}
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("%w: empty member list", ErrBadFilterValue)
		}
		return members, nil
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty member list", ErrBadFilterValue)
		}
		return v, nil
	case []any:
		members := make([]string, 0, len(v))
		for _, member := range v {
			text, ok := member.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string member %T", ErrBadFilterValue, member)
			}
			members = append(members, text)
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("%w: empty member list", ErrBadFilterValue)
		}
		return members, nil
	default:
		return nil, fmt.Errorf("%w: want a list or comma-delimited string, got %T", ErrBadFilterValue, value)
	}
}
