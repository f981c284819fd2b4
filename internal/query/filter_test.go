package query

import (
	"errors"
	"reflect"
	"testing"
)

func TestCompileSkipsUnruledFields(t *testing.T) {
	rules := Rules{
		"username": {Match: MatchContains},
	}
	values := map[string]any{
		"username": "ann",
		"tags":     []string{"x", "y"},
		"injected": "1; DROP TABLE sys_users; --",
	}

	pred, err := Compile(values, rules)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	sql, args, err := pred.ToSql()
	if err != nil {
		t.Fatalf("ToSql returned error: %v", err)
	}
	if sql != "(username LIKE ?)" {
		t.Fatalf("unexpected sql: %s", sql)
	}
	if len(args) != 1 || args[0] != "%ann%" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestCompileSkipsEmptyButKeepsZeroValues(t *testing.T) {
	rules := Rules{
		"email":     {Match: MatchContains},
		"is_active": {Match: MatchEqual},
		"attempts":  {Match: MatchEqual},
	}
	values := map[string]any{
		"email":     "",
		"is_active": false,
		"attempts":  0,
	}

	pred, err := Compile(values, rules)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	sql, args, err := pred.ToSql()
	if err != nil {
		t.Fatalf("ToSql returned error: %v", err)
	}
	if sql != "(attempts = ? AND is_active = ?)" {
		t.Fatalf("unexpected sql: %s", sql)
	}
	if len(args) != 2 {
		t.Fatalf("expected two args, got %v", args)
	}
}

func TestCompileSetMembership(t *testing.T) {
	rules := Rules{"status": {Match: MatchInSet}}

	cases := []struct {
		name  string
		value any
		want  []string
	}{
		{name: "comma string", value: "active, locked,disabled", want: []string{"active", "locked", "disabled"}},
		{name: "string slice", value: []string{"active"}, want: []string{"active"}},
		{name: "any slice", value: []any{"a", "b"}, want: []string{"a", "b"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pred, err := Compile(map[string]any{"status": tc.value}, rules)
			if err != nil {
				t.Fatalf("Compile returned error: %v", err)
			}

			sql, args, err := pred.ToSql()
			if err != nil {
				t.Fatalf("ToSql returned error: %v", err)
			}
			wantSQL := "(status IN (" + placeholders(len(tc.want)) + "))"
			if sql != wantSQL {
				t.Fatalf("unexpected sql: %s", sql)
			}
			got := make([]string, len(args))
			for i, arg := range args {
				got[i] = arg.(string)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("unexpected members: %v", got)
			}
		})
	}
}

func TestCompileRejectsBadSetValue(t *testing.T) {
	rules := Rules{"status": {Match: MatchInSet}}

	for _, value := range []any{42, []any{1, 2}, map[string]any{}} {
		if _, err := Compile(map[string]any{"status": value}, rules); !errors.Is(err, ErrBadFilterValue) {
			t.Fatalf("value %v: expected ErrBadFilterValue, got %v", value, err)
		}
	}
}

func TestCompileIsIdempotent(t *testing.T) {
	rules := Rules{
		"username":  {Match: MatchContains},
		"email":     {Match: MatchContains},
		"is_active": {Match: MatchEqual},
		"status":    {Match: MatchInSet},
	}
	values := map[string]any{
		"username":  "ann",
		"email":     "@corp",
		"is_active": true,
		"status":    "a,b",
	}

	first, err := Compile(values, rules)
	if err != nil {
		t.Fatalf("first Compile returned error: %v", err)
	}
	second, err := Compile(values, rules)
	if err != nil {
		t.Fatalf("second Compile returned error: %v", err)
	}

	firstSQL, firstArgs, _ := first.ToSql()
	secondSQL, secondArgs, _ := second.ToSql()
	if firstSQL != secondSQL {
		t.Fatalf("sql differs between compilations: %q vs %q", firstSQL, secondSQL)
	}
	if !reflect.DeepEqual(firstArgs, secondArgs) {
		t.Fatalf("args differ between compilations: %v vs %v", firstArgs, secondArgs)
	}
}

func TestCompileColumnOverride(t *testing.T) {
	rules := Rules{"isActive": {Column: "is_active", Match: MatchEqual}}

	pred, err := Compile(map[string]any{"isActive": true}, rules)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	sql, _, _ := pred.ToSql()
	if sql != "(is_active = ?)" {
		t.Fatalf("unexpected sql: %s", sql)
	}
}

func placeholders(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += "?"
	}
	return out
}
