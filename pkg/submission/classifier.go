package submission

import (
	"github.com/goliatone/go-formflow/pkg/model"
)

// Category is the classification assigned to a field name.
type Category int

const (
	// Unknown names are neither fields nor buttons of the screen.
	Unknown Category = iota
	Acceptable
	Restricted
	UserField
	Button
)

func (c Category) String() string {
	switch c {
	case Acceptable:
		return "acceptable"
	case Restricted:
		return "restricted"
	case UserField:
		return "user"
	case Button:
		return "button"
	default:
		return "unknown"
	}
}

// Classification maps field names of one screen onto categories. It is
// immutable once built and safe for concurrent use.
type Classification struct {
	categories         map[string]Category
	fields             map[string]model.Field
	buttons            map[string]model.Button
	attachmentsAllowed bool
	maxAttachmentSize  int64
}

// Option customises a Classification while it is built.
type Option func(*builder)

type builder struct {
	acceptable         []string
	restricted         []string
	userFields         []string
	buttons            []model.Button
	attachmentsAllowed *bool
	maxAttachmentSize  int64
}

// WithButtons adds buttons beyond those declared on the screen.
func WithButtons(buttons ...model.Button) Option {
	return func(b *builder) {
		b.buttons = append(b.buttons, buttons...)
	}
}

// WithAttachments overrides whether unclassified entries become attachments.
func WithAttachments(allowed bool) Option {
	return func(b *builder) {
		b.attachmentsAllowed = &allowed
	}
}

// WithMaxAttachmentSize overrides the per-entry content size limit in bytes.
func WithMaxAttachmentSize(size int64) Option {
	return func(b *builder) {
		if size > 0 {
			b.maxAttachmentSize = size
		}
	}
}

// WithAcceptable marks additional names as ordinary editable data.
func WithAcceptable(names ...string) Option {
	return func(b *builder) {
		b.acceptable = append(b.acceptable, names...)
	}
}

// WithRestricted marks additional names as server-only data.
func WithRestricted(names ...string) Option {
	return func(b *builder) {
		b.restricted = append(b.restricted, names...)
	}
}

// WithUserFields marks additional names as identity references.
func WithUserFields(names ...string) Option {
	return func(b *builder) {
		b.userFields = append(b.userFields, names...)
	}
}

// NewClassification classifies every field and button of screen. Restricted
// fields are Restricted, person fields and fields carrying an IS_VALID_USER
// constraint are UserField, everything else is Acceptable. A name landing in
// two categories is a configuration error.
func NewClassification(screen *model.Screen, options ...Option) (*Classification, error) {
	if screen == nil {
		return nil, model.Misconfigured("classification requires a screen")
	}
	b := &builder{maxAttachmentSize: screen.MaxAttachmentSize}
	allowed := screen.AttachmentsAllowed
	b.attachmentsAllowed = &allowed
	b.buttons = append(b.buttons, screen.Buttons...)
	return build(screen.Fields(), b, options)
}

// NewFieldClassification classifies a single field, for updates that post one
// field at a time. Attachments are disallowed unless an option enables them.
func NewFieldClassification(field model.Field, options ...Option) (*Classification, error) {
	return build([]model.Field{field}, &builder{}, options)
}

func build(fields []model.Field, b *builder, options []Option) (*Classification, error) {
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}

	c := &Classification{
		categories:        make(map[string]Category),
		fields:            make(map[string]model.Field),
		buttons:           make(map[string]model.Button),
		maxAttachmentSize: b.maxAttachmentSize,
	}
	if b.attachmentsAllowed != nil {
		c.attachmentsAllowed = *b.attachmentsAllowed
	}
	if c.maxAttachmentSize <= 0 {
		c.maxAttachmentSize = model.DefaultMaxAttachmentSize
	}

	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		if existing, ok := c.fields[field.Name]; ok && existing.Type != field.Type {
			return nil, model.Misconfigured("field %q declared twice with types %q and %q", field.Name, existing.Type, field.Type)
		}
		c.fields[field.Name] = field
		if err := c.assign(field.Name, categoryFor(field)); err != nil {
			return nil, err
		}
	}

	for _, group := range []struct {
		names    []string
		category Category
	}{
		{b.acceptable, Acceptable},
		{b.restricted, Restricted},
		{b.userFields, UserField},
	} {
		for _, name := range group.names {
			if err := c.assign(name, group.category); err != nil {
				return nil, err
			}
		}
	}

	for _, button := range b.buttons {
		if button.Name == "" {
			return nil, model.Misconfigured("button with value %q has no name", button.Value)
		}
		if err := c.assign(button.Name, Button); err != nil {
			return nil, err
		}
		if _, ok := c.buttons[button.Value]; ok {
			continue
		}
		c.buttons[button.Value] = button
	}

	return c, nil
}

func categoryFor(field model.Field) Category {
	switch {
	case field.Restricted:
		return Restricted
	case field.Type == model.FieldTypePerson:
		return UserField
	}
	for _, c := range field.Constraints {
		if c.Type == model.ConstraintValidUser {
			return UserField
		}
	}
	return Acceptable
}

func (c *Classification) assign(name string, category Category) error {
	if name == "" {
		return nil
	}
	if existing, ok := c.categories[name]; ok {
		if existing == category {
			return nil
		}
		return model.Misconfigured("name %q classified as both %s and %s", name, existing, category)
	}
	c.categories[name] = category
	return nil
}

// Category returns the category of name.
func (c *Classification) Category(name string) Category {
	return c.categories[name]
}

// Button returns the button bound to a submitted value.
func (c *Classification) Button(value string) (model.Button, bool) {
	button, ok := c.buttons[value]
	return button, ok
}

func (c *Classification) IsButton(name string) bool     { return c.categories[name] == Button }
func (c *Classification) IsAcceptable(name string) bool { return c.categories[name] == Acceptable }
func (c *Classification) IsRestricted(name string) bool { return c.categories[name] == Restricted }
func (c *Classification) IsUserField(name string) bool  { return c.categories[name] == UserField }

// AttachmentsAllowed reports whether unclassified entries become attachments.
func (c *Classification) AttachmentsAllowed() bool { return c.attachmentsAllowed }

// MaxAttachmentSize is the largest content accepted for a single entry.
func (c *Classification) MaxAttachmentSize() int64 { return c.maxAttachmentSize }

// Field returns the definition of a classified field.
func (c *Classification) Field(name string) (model.Field, bool) {
	field, ok := c.fields[name]
	return field, ok
}
