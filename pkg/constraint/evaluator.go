package constraint

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Evaluate reports whether c holds for the supplied fields and values.
//
// The target field's effective values are its submitted values, or its
// default value when nothing was submitted. An empty default value counts as
// no default, so a field with neither has no effective values and the leaf
// does not hold, even for a pattern such as ".*". Every effective value must fully
// match the pattern. A pattern that does not compile never matches; use
// Validate to reject such definitions when they are loaded.
func Evaluate(c model.Constraint, fields map[string]model.Field, values map[string][]model.Value) bool {
	satisfied := leafSatisfied(c, fields, values)
	if satisfied {
		return CheckAll("", c.And, fields, values)
	}
	if len(c.Or) > 0 {
		return CheckAny("", c.Or, fields, values)
	}
	return false
}

// CheckAll reports whether every constraint of the given kind holds. An empty
// kind, or a constraint without a type, matches every kind. With no matching
// constraints the result is true.
func CheckAll(kind string, constraints []model.Constraint, fields map[string]model.Field, values map[string][]model.Value) bool {
	for _, c := range constraints {
		if !kindMatches(kind, c) {
			continue
		}
		if !Evaluate(c, fields, values) {
			return false
		}
	}
	return true
}

// CheckAny reports whether at least one constraint of the given kind holds.
// An empty list is vacuously true; a non-empty list needs an actual match.
func CheckAny(kind string, constraints []model.Constraint, fields map[string]model.Field, values map[string][]model.Value) bool {
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if !kindMatches(kind, c) {
			continue
		}
		if Evaluate(c, fields, values) {
			return true
		}
	}
	return false
}

// Has reports whether any top-level constraint has the given kind.
func Has(kind string, constraints []model.Constraint) bool {
	for _, c := range constraints {
		if c.Type != "" && c.Type == kind {
			return true
		}
	}
	return false
}

// Validate checks that every pattern in the constraint trees compiles and that
// every target names a known field. Problems are reported as configuration
// errors.
func Validate(constraints []model.Constraint, fields map[string]model.Field) error {
	var errs []error
	for _, c := range constraints {
		validateTree(c, fields, &errs)
	}
	return errors.Join(errs...)
}

func validateTree(c model.Constraint, fields map[string]model.Field, errs *[]error) {
	if _, err := compile(c.Value); err != nil {
		*errs = append(*errs, model.Misconfigured("constraint on %q: invalid pattern %q: %v", c.Name, c.Value, err))
	}
	if _, ok := fields[c.Name]; !ok {
		*errs = append(*errs, model.Misconfigured("constraint references unknown field %q", c.Name))
	}
	for _, sub := range c.And {
		validateTree(sub, fields, errs)
	}
	for _, sub := range c.Or {
		validateTree(sub, fields, errs)
	}
}

func leafSatisfied(c model.Constraint, fields map[string]model.Field, values map[string][]model.Value) bool {
	pattern, err := compile(c.Value)
	if err != nil {
		return false
	}

	submitted := model.Strings(values[c.Name])
	if len(submitted) == 0 {
		field, ok := fields[c.Name]
		if !ok || field.DefaultValue == "" {
			return false
		}
		return pattern.MatchString(field.DefaultValue)
	}

	for _, value := range submitted {
		if !pattern.MatchString(value) {
			return false
		}
	}
	return true
}

func kindMatches(kind string, c model.Constraint) bool {
	return kind == "" || c.Type == "" || c.Type == kind
}

// compile anchors the pattern so MatchString behaves as a full match.
func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("constraint: compile %q: %w", pattern, err)
	}
	return re, nil
}
