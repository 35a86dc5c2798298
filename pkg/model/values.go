package model

import "strings"

// Value is one runtime value bound to a field for a single render pass.
type Value interface {
	// Value returns the raw string form used for constraint matching and
	// option selection.
	Value() string
}

// Text is a plain scalar value.
type Text string

// Value implements Value.
func (t Text) Value() string { return string(t) }

// User is an identity reference.
type User struct {
	ID          string `json:"id" yaml:"id"`
	VisibleID   string `json:"visibleId,omitempty" yaml:"visibleId,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Value implements Value. The internal id is the canonical value.
func (u User) Value() string { return u.ID }

// Property resolves a named sub-property, falling back to the display name.
func (u User) Property(name string) string {
	switch name {
	case "visibleId":
		return u.VisibleID
	case "id":
		return u.ID
	case "email":
		return u.Email
	default:
		return u.DisplayName
	}
}

// File is a stored content reference.
type File struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	ContentType string `json:"contentType,omitempty"`
	Link        string `json:"link,omitempty"`
}

// Value implements Value.
func (f File) Value() string { return f.Name }

// Texts converts plain strings into Values.
func Texts(values ...string) []Value {
	if len(values) == 0 {
		return nil
	}
	out := make([]Value, len(values))
	for idx, value := range values {
		out[idx] = Text(value)
	}
	return out
}

// Strings flattens values into their raw strings.
func Strings(values []Value) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == nil {
			continue
		}
		out = append(out, value.Value())
	}
	return out
}

// Message is a validation message attached to a field.
type Message struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

// JoinMessages joins message texts with commas, skipping blanks.
func JoinMessages(messages []Message) string {
	parts := make([]string, 0, len(messages))
	for _, message := range messages {
		if text := strings.TrimSpace(message.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ",")
}
