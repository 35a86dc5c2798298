package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

// HiddenField is a hidden input appended to the main form.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken constructs a hidden field carrying the provided token. Callers
// supply the input name their backend expects ("_csrf", "csrf_token").
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// RequestFields returns hidden fields identifying the request and task a
// form belongs to. Empty identifiers are skipped.
func RequestFields(form model.Form) []HiddenField {
	var out []HiddenField
	if form.RequestID != "" {
		out = append(out, Hidden("requestId", form.RequestID))
	}
	if form.TaskID != "" {
		out = append(out, Hidden("taskId", form.TaskID))
	}
	return out
}

// MergeHiddenFields returns a copy of base with the provided fields applied.
// Empty names are ignored; later fields win on name collisions.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			out[name] = field.Value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields orders hidden fields by name for deterministic output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]HiddenField, 0, len(names))
	for _, name := range names {
		result = append(result, HiddenField{Name: name, Value: fields[name]})
	}
	return result
}

// HiddenFieldsFactory returns a Factory adding the hidden inputs computed by
// fields for each render, for example RequestFields of the rendered form.
func HiddenFieldsFactory(fields func(scope Scope) []HiddenField) Factory {
	return func(scope Scope, registry *Registry) {
		if fields == nil {
			return
		}
		sorted := SortedHiddenFields(MergeHiddenFields(nil, fields(scope)...))
		if len(sorted) == 0 {
			return
		}
		registry.Add("form", &hiddenFieldsDecorator{fields: sorted})
	}
}
