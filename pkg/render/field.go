package render

import (
	"strconv"

	"github.com/goliatone/go-formflow/pkg/dom"
	"github.com/goliatone/go-formflow/pkg/model"
)

// fieldState is shared by the decorators bound to one field. index counts the
// matching nodes seen so far, so the Nth node bound to a multi-valued field
// receives the Nth value.
type fieldState struct {
	field    model.Field
	control  model.Control
	values   []model.Value
	messages []model.Message
	visible  bool
	disabled bool
	index    int
}

func (s *fieldState) Matches(_ *dom.Node, id, _, name, _ string) bool {
	if id != "" && s.field.ID != "" && id == s.field.ID {
		return true
	}
	return name != "" && s.field.Name != "" && name == s.field.Name
}

func (s *fieldState) current() model.Value {
	if s.index < len(s.values) {
		return s.values[s.index]
	}
	return nil
}

func (s *fieldState) contains(raw string) bool {
	for _, value := range s.values {
		if value != nil && value.Value() == raw {
			return true
		}
	}
	return false
}

type visibilityDecorator struct {
	*fieldState
	class string
}

func (d visibilityDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	if !d.visible {
		node.AddClass(d.class)
	}
}

type messageDecorator struct {
	*fieldState
}

func (d messageDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	if joined := model.JoinMessages(d.messages); joined != "" {
		node.SetAttr(AttrMessages, joined)
	}
}

// optionsDecorator rebuilds option children for select controls from the
// field's configured options. Without configured options, the template's own
// options are kept and only their selected state is updated.
type optionsDecorator struct {
	*fieldState
}

func (d optionsDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	selected := d.selectedFunc()

	if len(d.field.Options) == 0 {
		for _, option := range dom.Find(node, "option") {
			value, ok := option.Attr("value")
			if !ok {
				value = option.TextContent()
			}
			if selected(value) {
				option.SetAttr("selected", "selected")
			} else {
				option.RemoveAttr("selected")
			}
		}
		return
	}

	node.RemoveChildren()
	for _, option := range d.field.Options {
		attrs := map[string]string{"value": option.Value}
		if selected(option.Value) {
			attrs["selected"] = "selected"
		}
		node.AppendChild(dom.Element("option", attrs, dom.Text(option.Label)))
	}
}

func (d optionsDecorator) selectedFunc() func(string) bool {
	if d.control.Multiple() {
		return d.contains
	}
	current := d.current()
	return func(value string) bool {
		return current != nil && current.Value() == value
	}
}

type disableDecorator struct {
	*fieldState
}

func (d disableDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	if d.disabled {
		node.SetAttr("disabled", "disabled")
	}
}

// valueDecorator forces the control attributes for the field type and injects
// the current value. A field without values shows its default value in the
// first bound text control. It must be registered after every other decorator
// of the same field because it advances the shared index.
type valueDecorator struct {
	*fieldState
}

func (d valueDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	defer func() { d.index++ }()

	node.SetAttrs(d.control.Attrs)
	if d.field.Accept != "" {
		node.SetAttr("accept", d.field.Accept)
	}

	value := d.current()
	if value == nil && len(d.values) == 0 && d.index == 0 && d.field.DefaultValue != "" {
		value = model.Text(d.field.DefaultValue)
	}
	switch d.field.Type {
	case model.FieldTypeTextarea:
		text := ""
		if value != nil {
			text = value.Value()
		}
		node.SetText(text)
	case model.FieldTypeCheckbox, model.FieldTypeRadio:
		d.applyChecked(node, d.current())
	case model.FieldTypeSelectOne, model.FieldTypeSelectMultiple, model.FieldTypeFile:
	default:
		if d.field.MaxLength > 0 {
			node.SetAttr("maxlength", strconv.Itoa(d.field.MaxLength))
		}
		if d.field.DisplayLength > 0 {
			node.SetAttr("size", strconv.Itoa(d.field.DisplayLength))
		}
		if value != nil {
			node.SetAttr("value", displayValue(value))
		}
	}
}

// applyChecked marks a checkbox or radio as checked when its own value is
// among the field's values. A control without a value attribute takes the
// current value instead.
func (d valueDecorator) applyChecked(node *dom.Node, current model.Value) {
	own, ok := node.Attr("value")
	if !ok {
		if current == nil {
			return
		}
		node.SetAttr("value", current.Value())
		node.SetAttr("checked", "checked")
		return
	}
	if len(d.values) == 0 {
		return
	}
	if d.contains(own) {
		node.SetAttr("checked", "checked")
	} else {
		node.RemoveAttr("checked")
	}
}

func displayValue(value model.Value) string {
	if user, ok := value.(model.User); ok {
		return user.DisplayName
	}
	return value.Value()
}
