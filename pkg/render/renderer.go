package render

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formflow/pkg/constraint"
	"github.com/goliatone/go-formflow/pkg/dom"
	"github.com/goliatone/go-formflow/pkg/model"
)

// Scope is the per-render input shared by every decorator.
type Scope struct {
	Form     model.Form
	Screen   *model.Screen
	Fields   map[string]model.Field
	Data     map[string][]model.Value
	Messages map[string][]model.Message
	Readonly bool
}

// Factory registers additional decorators for one render. Factories run after
// the built-in decorators are registered, so their decorators apply last.
type Factory func(scope Scope, registry *Registry)

// Option customises a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for render diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithHiddenClass overrides the class added to invisible fields.
func WithHiddenClass(class string) Option {
	return func(r *Renderer) {
		if class != "" {
			r.hiddenClass = class
		}
	}
}

// WithHiddenFields appends hidden inputs (for example a CSRF token) to the
// main form of every render.
func WithHiddenFields(fields ...HiddenField) Option {
	return func(r *Renderer) {
		r.hidden = append(r.hidden, fields...)
	}
}

// WithDecoratorFactory registers a factory contributing custom decorators.
func WithDecoratorFactory(factory Factory) Option {
	return func(r *Renderer) {
		if factory != nil {
			r.factories = append(r.factories, factory)
		}
	}
}

// Renderer decorates template trees with live form data. A Renderer holds no
// per-render state and is safe for concurrent use; each Render call builds its
// own registry.
type Renderer struct {
	logger      zerolog.Logger
	hiddenClass string
	hidden      []HiddenField
	factories   []Factory
}

// NewRenderer constructs a Renderer.
func NewRenderer(options ...Option) *Renderer {
	r := &Renderer{
		logger:      zerolog.Nop(),
		hiddenClass: DefaultHiddenClass,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Render walks root once in pre-order and applies every matching decorator,
// in registration order, to each element. The tree is mutated in place and
// returned. The screen is rendered read-only when readonly is set or the
// screen itself is read-only.
func (r *Renderer) Render(root *dom.Node, form model.Form, data map[string][]model.Value, messages map[string][]model.Message, readonly bool) (*dom.Node, error) {
	if root == nil {
		return nil, errors.New("render: document is required")
	}

	scope := Scope{
		Form:     form,
		Screen:   form.Screen,
		Data:     data,
		Messages: messages,
		Readonly: readonly,
	}
	if form.Screen != nil {
		scope.Fields = form.Screen.FieldMap()
		scope.Readonly = readonly || form.Screen.Readonly
	}

	registry := r.registry(scope)

	applied := 0
	dom.Walk(root, func(node *dom.Node) bool {
		if !node.IsElement() {
			return true
		}
		decorators := registry.For(node.Tag)
		if len(decorators) == 0 {
			return true
		}

		id := node.AttrValue("id")
		class := node.AttrValue("class")
		name := node.AttrValue("name")
		variable := node.AttrValue(AttrVariable)

		for _, decorator := range decorators {
			if decorator.Matches(node, id, class, name, variable) {
				decorator.Apply(node, id, class, name, variable)
				applied++
			}
		}
		return true
	})

	r.logger.Debug().
		Str("process", form.ProcessKey).
		Int("decorators", registry.Len()).
		Int("applied", applied).
		Bool("readonly", scope.Readonly).
		Msg("document rendered")

	return root, nil
}

// registry builds the decorators for one render. Order matters: decorators of
// the same tag apply in the order they are added here.
func (r *Renderer) registry(scope Scope) *Registry {
	registry := NewRegistry()

	registry.Add("form", formActionDecorator{form: scope.Form})
	if len(r.hidden) > 0 {
		registry.Add("form", &hiddenFieldsDecorator{fields: SortedHiddenFields(MergeHiddenFields(nil, r.hidden...))})
	}
	registry.Add("body", bodyDecorator{form: scope.Form, logger: r.logger})
	registry.Add("div", attachmentsDecorator{attachments: scope.Form.Attachments})

	variable := variableDecorator{data: scope.Data}
	for _, tag := range variableTags {
		registry.Add(tag, variable)
	}

	if scope.Readonly {
		registry.Add("button", disableButtonDecorator{})
		registry.Add("input", disableButtonDecorator{inputsOnly: true})
	}

	if scope.Screen != nil {
		for _, section := range scope.Screen.Sections {
			if section.TagID == "" {
				continue
			}
			registry.Add("div", sectionDecorator{
				section: section,
				visible: sectionVisible(section, scope),
				class:   r.hiddenClass,
			})
		}

		for _, field := range scope.Screen.Fields() {
			r.addField(registry, field, scope)
		}
	}

	for _, factory := range r.factories {
		factory(scope, registry)
	}
	return registry
}

func (r *Renderer) addField(registry *Registry, field model.Field, scope Scope) {
	state := &fieldState{
		field:    field,
		control:  model.ControlFor(field.Type),
		values:   scope.Data[field.Name],
		messages: scope.Messages[field.Name],
		visible:  fieldVisible(field, scope),
		disabled: scope.Readonly || field.Readonly,
	}
	tag := state.control.Tag

	registry.Add(tag, visibilityDecorator{fieldState: state, class: r.hiddenClass})
	registry.Add(tag, messageDecorator{fieldState: state})
	if tag == "select" {
		registry.Add(tag, optionsDecorator{fieldState: state})
	}
	registry.Add(tag, disableDecorator{fieldState: state})
	registry.Add(tag, valueDecorator{fieldState: state})

	if field.Type == model.FieldTypeFile {
		registry.Add("form", fileFormDecorator{field: field, readonly: state.disabled})
		if field.AcceptsImages() {
			registry.Add("img", imageDecorator{field: field, values: state.values})
		}
	}
}

func fieldVisible(field model.Field, scope Scope) bool {
	return constraint.CheckAll(model.ConstraintVisibleWhen, field.Constraints, scope.Fields, scope.Data)
}

// sectionVisible reports whether at least one field of the section is
// visible. Sections without fields are always visible.
func sectionVisible(section model.Section, scope Scope) bool {
	if len(section.Fields) == 0 {
		return true
	}
	for _, field := range section.Fields {
		if fieldVisible(field, scope) {
			return true
		}
	}
	return false
}
