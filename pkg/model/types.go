package model

import "strings"

// FieldType identifies the control a field is rendered as.
type FieldType string

const (
	FieldTypeText           FieldType = "text"
	FieldTypeEmail          FieldType = "email"
	FieldTypeNumber         FieldType = "number"
	FieldTypeDate           FieldType = "date"
	FieldTypePerson         FieldType = "person"
	FieldTypeTextarea       FieldType = "textarea"
	FieldTypeCheckbox       FieldType = "checkbox"
	FieldTypeRadio          FieldType = "radio"
	FieldTypeSelectOne      FieldType = "select-one"
	FieldTypeSelectMultiple FieldType = "select-multiple"
	FieldTypeFile           FieldType = "file"
)

// Constraint kinds understood by the renderer and the enrichment decorators.
const (
	ConstraintVisibleWhen        = "IS_ONLY_VISIBLE_WHEN"
	ConstraintState              = "IS_STATE"
	ConstraintConfirmationNumber = "IS_CONFIRMATION_NUMBER"
	ConstraintValidUser          = "IS_VALID_USER"
)

// Screen types that change how the document body is decorated.
const (
	ScreenTypeStandard       = "standard"
	ScreenTypeWizard         = "wizard"
	ScreenTypeWizardTemplate = "wizard-template"
	ScreenTypeStaged         = "staged"
)

// DefaultMaxAttachmentSize bounds attachment uploads when a screen does not
// configure its own limit (10 MiB).
const DefaultMaxAttachmentSize int64 = 10 << 20

// Option is a value/label pair used by select-like controls.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Constraint is a regex test over a single target field, optionally chained
// with further constraints. And is consulted only when this leaf holds; Or is
// consulted only when it does not.
type Constraint struct {
	Type  string       `json:"type,omitempty" yaml:"type,omitempty"`
	Name  string       `json:"name" yaml:"name" validate:"required"`
	Value string       `json:"value" yaml:"value"`
	And   []Constraint `json:"and,omitempty" yaml:"and,omitempty" validate:"dive"`
	Or    []Constraint `json:"or,omitempty" yaml:"or,omitempty" validate:"dive"`
}

// Field is a named input definition.
type Field struct {
	ID            string       `json:"id,omitempty" yaml:"id,omitempty"`
	Name          string       `json:"name" yaml:"name" validate:"required"`
	Type          FieldType    `json:"type" yaml:"type" validate:"required"`
	Label         string       `json:"label,omitempty" yaml:"label,omitempty"`
	MaxLength     int          `json:"maxLength,omitempty" yaml:"maxLength,omitempty" validate:"gte=0"`
	DisplayLength int          `json:"displayLength,omitempty" yaml:"displayLength,omitempty" validate:"gte=0"`
	Accept        string       `json:"accept,omitempty" yaml:"accept,omitempty"`
	DefaultValue  string       `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Options       []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	Constraints   []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty" validate:"dive"`
	Restricted    bool         `json:"restricted,omitempty" yaml:"restricted,omitempty"`
	Readonly      bool         `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Link          string       `json:"link,omitempty" yaml:"link,omitempty"`
}

// AcceptsImages reports whether the field accepts at least one image type.
func (f Field) AcceptsImages() bool {
	return strings.Contains(f.Accept, "image/")
}

// Section groups fields inside a screen. TagID names the container element
// in the template that hosts the section.
type Section struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	TagID  string  `json:"tagId,omitempty" yaml:"tagId,omitempty"`
	Fields []Field `json:"fields" yaml:"fields" validate:"dive"`
}

// Button binds a submitted button value to a workflow action.
type Button struct {
	Name   string     `json:"name" yaml:"name" validate:"required"`
	Value  string     `json:"value" yaml:"value" validate:"required"`
	Label  string     `json:"label,omitempty" yaml:"label,omitempty"`
	Action ActionType `json:"action" yaml:"action" validate:"required"`
}

// Screen is one page of a form: ordered sections plus buttons and attachment
// policy.
type Screen struct {
	ID                 string    `json:"id" yaml:"id" validate:"required"`
	Title              string    `json:"title,omitempty" yaml:"title,omitempty"`
	Type               string    `json:"type,omitempty" yaml:"type,omitempty"`
	Readonly           bool      `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Sections           []Section `json:"sections" yaml:"sections" validate:"dive"`
	Buttons            []Button  `json:"buttons,omitempty" yaml:"buttons,omitempty" validate:"dive"`
	AttachmentsAllowed bool      `json:"attachmentsAllowed,omitempty" yaml:"attachmentsAllowed,omitempty"`
	MaxAttachmentSize  int64     `json:"maxAttachmentSize,omitempty" yaml:"maxAttachmentSize,omitempty" validate:"gte=0"`
}

// Fields returns every field across all sections in document order.
func (s Screen) Fields() []Field {
	var out []Field
	for _, section := range s.Sections {
		out = append(out, section.Fields...)
	}
	return out
}

// FieldMap indexes the screen's fields by name. Fields without a name are
// skipped.
func (s Screen) FieldMap() map[string]Field {
	out := make(map[string]Field)
	for _, section := range s.Sections {
		for _, field := range section.Fields {
			if field.Name == "" {
				continue
			}
			out[field.Name] = field
		}
	}
	return out
}

// Form is the render-time view of a screen for one request: the screen
// definition plus the URIs its logical forms post to and the attachments
// already stored for the request.
type Form struct {
	ProcessKey      string       `json:"processKey"`
	RequestID       string       `json:"requestId,omitempty"`
	TaskID          string       `json:"taskId,omitempty"`
	ActionURI       string       `json:"action,omitempty"`
	AttachmentURI   string       `json:"attachment,omitempty"`
	CancellationURI string       `json:"cancellation,omitempty"`
	Screen          *Screen      `json:"screen,omitempty"`
	Attachments     []Attachment `json:"attachments,omitempty"`
}

// Clone copies the screen deeply enough for per-request decorators to rewrite
// sections, fields and their options without touching the shared definition.
func (s *Screen) Clone() *Screen {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Buttons = append([]Button(nil), s.Buttons...)
	clone.Sections = make([]Section, len(s.Sections))
	for idx, section := range s.Sections {
		section.Fields = append([]Field(nil), section.Fields...)
		for fieldIdx := range section.Fields {
			field := &section.Fields[fieldIdx]
			field.Options = append([]Option(nil), field.Options...)
		}
		clone.Sections[idx] = section
	}
	return &clone
}
