package render

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formflow/pkg/dom"
	"github.com/goliatone/go-formflow/pkg/model"
)

// variableTags lists the elements that can display a data value through
// AttrVariable.
var variableTags = []string{"span", "input", "p", "dd", "td", "li", "label", "div"}

// variableDecorator writes the values of the field named by AttrVariable into
// the element's text. A dotted suffix selects a user property, as in
// "approver.visibleId". Disabled text inputs receive the first value as their
// value attribute instead; other inputs are left alone.
type variableDecorator struct {
	data map[string][]model.Value
}

func (d variableDecorator) Matches(_ *dom.Node, _, _, _, variable string) bool {
	return variable != ""
}

func (d variableDecorator) Apply(node *dom.Node, _, _, _, variable string) {
	name, property, _ := strings.Cut(variable, ".")
	values := d.data[name]

	if node.Tag == "input" {
		_, disabled := node.Attr("disabled")
		if disabled && node.AttrValue("type") == "text" && len(values) > 0 && values[0] != nil {
			node.SetAttr("value", values[0].Value())
		}
		return
	}

	texts := make([]string, 0, len(values))
	for _, value := range values {
		switch v := value.(type) {
		case nil:
		case model.User:
			texts = append(texts, v.Property(property))
		default:
			texts = append(texts, v.Value())
		}
	}
	node.SetText(strings.Join(texts, ", "))
}

// attachmentsDecorator replaces the content of an attachments container with
// a list of links to the request's attachments, optionally filtered by the
// comma separated content types in AttrContentType.
type attachmentsDecorator struct {
	attachments []model.Attachment
}

func (d attachmentsDecorator) Matches(node *dom.Node, _, _, _, _ string) bool {
	return strings.EqualFold(node.AttrValue(AttrContainer), FormAttachments)
}

func (d attachmentsDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	if len(d.attachments) == 0 {
		return
	}

	allowed := make(map[string]struct{})
	for _, contentType := range strings.Split(node.AttrValue(AttrContentType), ",") {
		if contentType = strings.TrimSpace(contentType); contentType != "" {
			allowed[contentType] = struct{}{}
		}
	}

	list := dom.Element("ul", map[string]string{"class": "attachments"})
	for _, attachment := range d.attachments {
		if len(allowed) > 0 {
			if _, ok := allowed[attachment.ContentType]; !ok {
				continue
			}
		}
		link := dom.Element("a", map[string]string{"href": attachment.Link}, dom.Text(attachment.Name))
		list.AppendChild(dom.Element("li", nil, link))
	}

	node.RemoveChildren()
	node.AppendChild(list)
}

// sectionDecorator marks the container hosting a section and hides it when
// none of its fields are visible.
type sectionDecorator struct {
	section model.Section
	visible bool
	class   string
}

func (d sectionDecorator) Matches(_ *dom.Node, id, _, _, _ string) bool {
	return id != "" && id == d.section.TagID
}

func (d sectionDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	if d.section.Name != "" {
		node.SetAttr(AttrSection, d.section.Name)
	}
	if !d.visible {
		node.AddClass(d.class)
	}
}

// disableButtonDecorator disables buttons on read-only renders. With
// inputsOnly set it only targets submit, button and reset inputs.
type disableButtonDecorator struct {
	inputsOnly bool
}

func (d disableButtonDecorator) Matches(node *dom.Node, _, _, _, _ string) bool {
	if !d.inputsOnly {
		return true
	}
	switch strings.ToLower(node.AttrValue("type")) {
	case "submit", "button", "reset":
		return true
	default:
		return false
	}
}

func (d disableButtonDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	node.SetAttr("disabled", "disabled")
}

// imageDecorator previews an uploaded image in the img element bound to the
// file field through AttrVariable.
type imageDecorator struct {
	field  model.Field
	values []model.Value
}

func (d imageDecorator) Matches(_ *dom.Node, _, _, _, variable string) bool {
	return variable != "" && variable == d.field.Name
}

func (d imageDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	for _, value := range d.values {
		if file, ok := value.(model.File); ok {
			node.SetAttr("src", file.Link)
			return
		}
	}
}

// contextScriptID identifies the script element carrying the form context so
// a re-render replaces it rather than appending a second copy.
const contextScriptID = "formflow-context"

// bodyDecorator exposes the form as JSON to client scripts on multi-step
// screens.
type bodyDecorator struct {
	form   model.Form
	logger zerolog.Logger
}

func (d bodyDecorator) Matches(*dom.Node, string, string, string, string) bool {
	if d.form.Screen == nil {
		return false
	}
	switch d.form.Screen.Type {
	case model.ScreenTypeWizard, model.ScreenTypeWizardTemplate, model.ScreenTypeStaged:
		return true
	default:
		return false
	}
}

func (d bodyDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	payload, err := json.Marshal(d.form)
	if err != nil {
		d.logger.Error().Err(err).Str("process", d.form.ProcessKey).Msg("encode form context")
		return
	}

	script := "\n\t\tformflow = {};\n\t\tformflow.context = {};\n\t\tformflow.context.resource = " + string(payload) + ";\n"
	for _, existing := range dom.FindByAttr(node, "id", contextScriptID) {
		if existing.Tag == "script" {
			existing.SetText(script)
			return
		}
	}
	node.AppendChild(dom.Element("script", map[string]string{
		"id":   contextScriptID,
		"type": "text/javascript",
	}, dom.Text(script)))
}
