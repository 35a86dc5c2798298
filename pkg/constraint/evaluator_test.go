package constraint

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formflow/pkg/model"
)

func fieldMap(fields ...model.Field) map[string]model.Field {
	out := make(map[string]model.Field, len(fields))
	for _, field := range fields {
		out[field.Name] = field
	}
	return out
}

func TestEvaluateUsesSubmittedValues(t *testing.T) {
	t.Parallel()

	fields := fieldMap(model.Field{Name: "employed", DefaultValue: "yes"})
	c := model.Constraint{Type: model.ConstraintVisibleWhen, Name: "employed", Value: "^yes$"}

	if Evaluate(c, fields, map[string][]model.Value{"employed": model.Texts("no")}) {
		t.Fatalf("expected constraint to fail for submitted 'no'")
	}
	if !Evaluate(c, fields, map[string][]model.Value{"employed": model.Texts("yes")}) {
		t.Fatalf("expected constraint to hold for submitted 'yes'")
	}
}

func TestEvaluateFallsBackToDefault(t *testing.T) {
	t.Parallel()

	c := model.Constraint{Name: "employed", Value: "yes"}

	if !Evaluate(c, fieldMap(model.Field{Name: "employed", DefaultValue: "yes"}), nil) {
		t.Fatalf("expected default value to satisfy constraint")
	}
	if Evaluate(c, fieldMap(model.Field{Name: "employed", DefaultValue: "no"}), nil) {
		t.Fatalf("expected default value 'no' to fail")
	}
	if Evaluate(c, fieldMap(model.Field{Name: "employed"}), nil) {
		t.Fatalf("expected missing default to fail")
	}
	if Evaluate(c, nil, nil) {
		t.Fatalf("expected unknown field without values to fail")
	}
}

func TestEvaluateEmptyDefaultIsNoDefault(t *testing.T) {
	t.Parallel()

	c := model.Constraint{Name: "employed", Value: ".*"}
	if Evaluate(c, fieldMap(model.Field{Name: "employed", DefaultValue: ""}), nil) {
		t.Fatalf("expected empty default to leave the field without values")
	}
	if !Evaluate(c, fieldMap(model.Field{Name: "employed"}), map[string][]model.Value{"employed": model.Texts("")}) {
		t.Fatalf("expected a submitted empty value to match .*")
	}
}

func TestEvaluateRequiresFullMatch(t *testing.T) {
	t.Parallel()

	c := model.Constraint{Name: "code", Value: "ab"}
	values := map[string][]model.Value{"code": model.Texts("xaby")}
	if Evaluate(c, nil, values) {
		t.Fatalf("expected partial match to fail")
	}
}

func TestEvaluateMultiValueRequiresAll(t *testing.T) {
	t.Parallel()

	c := model.Constraint{Name: "tags", Value: "[a-z]+"}
	if !Evaluate(c, nil, map[string][]model.Value{"tags": model.Texts("a", "bc")}) {
		t.Fatalf("expected all-matching values to pass")
	}
	if Evaluate(c, nil, map[string][]model.Value{"tags": model.Texts("a", "B")}) {
		t.Fatalf("expected one failing value to fail the leaf")
	}
}

func TestEvaluateAndOrAsymmetry(t *testing.T) {
	t.Parallel()

	values := map[string][]model.Value{
		"a": model.Texts("1"),
		"b": model.Texts("0"),
		"c": model.Texts("1"),
	}
	holds := func(name string) model.Constraint { return model.Constraint{Name: name, Value: "1"} }

	cases := []struct {
		name string
		c    model.Constraint
		want bool
	}{
		{
			name: "leaf holds, and holds",
			c:    model.Constraint{Name: "a", Value: "1", And: []model.Constraint{holds("c")}},
			want: true,
		},
		{
			name: "leaf holds, and fails, or is not consulted",
			c: model.Constraint{
				Name: "a", Value: "1",
				And: []model.Constraint{holds("b")},
				Or:  []model.Constraint{holds("c")},
			},
			want: false,
		},
		{
			name: "leaf fails, or holds",
			c:    model.Constraint{Name: "b", Value: "1", Or: []model.Constraint{holds("b"), holds("c")}},
			want: true,
		},
		{
			name: "leaf fails, and is ignored",
			c:    model.Constraint{Name: "b", Value: "1", And: []model.Constraint{holds("a")}},
			want: false,
		},
		{
			name: "leaf fails, or fails",
			c:    model.Constraint{Name: "b", Value: "1", Or: []model.Constraint{holds("b")}},
			want: false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Evaluate(tc.c, nil, values); got != tc.want {
				t.Fatalf("Evaluate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateInvalidPatternNeverMatches(t *testing.T) {
	t.Parallel()

	c := model.Constraint{Name: "a", Value: "(", Or: []model.Constraint{{Name: "a", Value: "x"}}}
	if !Evaluate(c, nil, map[string][]model.Value{"a": model.Texts("x")}) {
		t.Fatalf("expected invalid leaf to fall through to or chain")
	}
}

func TestCheckAllAndAnyVacuousTruth(t *testing.T) {
	t.Parallel()

	if !CheckAll(model.ConstraintVisibleWhen, nil, nil, nil) {
		t.Fatalf("CheckAll over nil list should be true")
	}
	if !CheckAny(model.ConstraintVisibleWhen, []model.Constraint{}, nil, nil) {
		t.Fatalf("CheckAny over empty list should be true")
	}

	other := []model.Constraint{{Type: model.ConstraintState, Name: "x", Value: "never"}}
	if !CheckAll(model.ConstraintVisibleWhen, other, nil, nil) {
		t.Fatalf("CheckAll with no constraints of the kind should be true")
	}
	if CheckAny(model.ConstraintVisibleWhen, other, nil, nil) {
		t.Fatalf("CheckAny over a non-empty list needs an actual match")
	}
}

func TestCheckAllUntypedConstraintsApplyToEveryKind(t *testing.T) {
	t.Parallel()

	constraints := []model.Constraint{{Name: "x", Value: "1"}}
	values := map[string][]model.Value{"x": model.Texts("2")}
	if CheckAll(model.ConstraintVisibleWhen, constraints, nil, values) {
		t.Fatalf("untyped failing constraint should fail CheckAll")
	}
}

func TestHas(t *testing.T) {
	t.Parallel()

	constraints := []model.Constraint{{Type: model.ConstraintState, Name: "state"}}
	if !Has(model.ConstraintState, constraints) {
		t.Fatalf("expected IS_STATE constraint")
	}
	if Has(model.ConstraintConfirmationNumber, constraints) {
		t.Fatalf("did not expect confirmation constraint")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	fields := fieldMap(model.Field{Name: "a"})
	ok := []model.Constraint{{Name: "a", Value: "^yes$", Or: []model.Constraint{{Name: "a", Value: "no"}}}}
	if err := Validate(ok, fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []model.Constraint{{Name: "a", Value: "ok", And: []model.Constraint{{Name: "missing", Value: "("}}}}
	err := Validate(bad, fields)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !errors.Is(err, model.ErrMisconfigured) {
		t.Fatalf("expected misconfiguration error, got %v", err)
	}
}
