package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

// MessageMapping splits a validation payload into per-field messages, keyed
// by field name, and form-level messages.
type MessageMapping struct {
	Fields map[string][]model.Message
	Form   []model.Message
}

// MapMessages normalises a validation payload keyed by field paths (plain
// names, dotted paths or JSON pointers such as "/body/employeeName") into
// messages for the screen's fields. Paths that resolve to no field become
// form-level messages so nothing is lost. Every message gets messageType.
func MapMessages(screen *model.Screen, messageType string, payload map[string][]string) MessageMapping {
	mapping := MessageMapping{Fields: make(map[string][]model.Message)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{})
	if screen != nil {
		for _, field := range screen.Fields() {
			if name := strings.TrimSpace(field.Name); name != "" {
				known[name] = struct{}{}
			}
		}
	}

	for _, rawPath := range sortedKeys(payload) {
		texts := normalizeMessages(payload[rawPath])
		if len(texts) == 0 {
			continue
		}
		name, ok := resolveFieldPath(rawPath, known)
		for _, text := range texts {
			message := model.Message{Type: messageType, Text: text}
			if !ok {
				mapping.Form = appendUnique(mapping.Form, message)
				continue
			}
			mapping.Fields[name] = appendUnique(mapping.Fields[name], message)
		}
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	return mapping
}

func normalizeMessages(messages []string) []string {
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func appendUnique(list []model.Message, message model.Message) []model.Message {
	for _, existing := range list {
		if existing == message {
			return list
		}
	}
	return append(list, message)
}

// resolveFieldPath finds the field a path points at. The whole path wins when
// it names a field; otherwise the right-most segment naming a field is used,
// skipping wrapper segments and array indexes.
func resolveFieldPath(raw string, known map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", false
	}
	if _, ok := known[trimmed]; ok {
		return trimmed, true
	}

	segments := parsePathSegments(trimmed)
	if joined := strings.Join(segments, "."); joined != "" {
		if _, ok := known[joined]; ok {
			return joined, true
		}
	}
	for idx := len(segments) - 1; idx >= 0; idx-- {
		segment := segments[idx]
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		if _, ok := known[segment]; ok {
			return segment, true
		}
	}
	return "", false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimLeft(clean, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
