package render

import (
	"github.com/goliatone/go-formflow/pkg/dom"
	"github.com/goliatone/go-formflow/pkg/model"
)

const (
	methodPost    = "POST"
	enctypeUpload = "multipart/form-data"
)

// formActionDecorator points the logical forms of a page at the request's
// endpoints. Forms without AttrForm are treated as the main form; forms
// tagged with any other value (file upload forms) are left alone.
type formActionDecorator struct {
	form model.Form
}

func (d formActionDecorator) Matches(node *dom.Node, _, _, _, _ string) bool {
	return !excluded(node)
}

func (d formActionDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	switch node.AttrValue(AttrForm) {
	case "", FormMain:
		node.SetAttr("action", d.form.ActionURI)
		node.SetAttr("method", methodPost)
		node.SetAttr("enctype", enctypeUpload)
	case FormAttachments:
		node.SetAttr("action", d.form.AttachmentURI)
		node.SetAttr("method", methodPost)
		node.SetAttr("enctype", enctypeUpload)
	case FormCancellation:
		node.SetAttr("action", d.form.CancellationURI)
		node.SetAttr("method", methodPost)
	}
}

// fileFormDecorator wires a form tagged with a file field's name to the
// field's upload endpoint. Read-only renders leave the form untouched.
type fileFormDecorator struct {
	field    model.Field
	readonly bool
}

func (d fileFormDecorator) Matches(node *dom.Node, _, _, _, _ string) bool {
	if excluded(node) || d.field.Name == "" {
		return false
	}
	return node.AttrValue(AttrForm) == d.field.Name
}

func (d fileFormDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	if d.readonly {
		return
	}
	node.SetAttr("action", d.field.Link)
	node.SetAttr("method", methodPost)
	node.SetAttr("enctype", enctypeUpload)
}

// hiddenFieldsDecorator appends hidden inputs to the main form. Inputs whose
// name already exists in the form get their value replaced instead, so a
// re-render of an already rendered tree does not duplicate them.
type hiddenFieldsDecorator struct {
	fields []HiddenField
}

func (d *hiddenFieldsDecorator) Matches(node *dom.Node, _, _, _, _ string) bool {
	if excluded(node) {
		return false
	}
	kind := node.AttrValue(AttrForm)
	return kind == "" || kind == FormMain
}

func (d *hiddenFieldsDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	existing := make(map[string]*dom.Node)
	for _, input := range dom.Find(node, "input") {
		if input.AttrValue("type") == "hidden" {
			existing[input.AttrValue("name")] = input
		}
	}
	for _, field := range d.fields {
		if input, ok := existing[field.Name]; ok {
			input.SetAttr("value", field.Value)
			continue
		}
		node.AppendChild(dom.Element("input", map[string]string{
			"type":  "hidden",
			"name":  field.Name,
			"value": field.Value,
		}))
	}
}
