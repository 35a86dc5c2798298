package model

// Control describes the markup element a field type binds to and the
// attributes the renderer forces onto it.
type Control struct {
	Tag   string
	Attrs map[string]string
}

// Multiple reports whether the control accepts several selected options.
func (c Control) Multiple() bool {
	_, ok := c.Attrs["multiple"]
	return ok
}

var controls = map[FieldType]Control{
	FieldTypeText:           {Tag: "input", Attrs: map[string]string{"type": "text"}},
	FieldTypeEmail:          {Tag: "input", Attrs: map[string]string{"type": "email"}},
	FieldTypeNumber:         {Tag: "input", Attrs: map[string]string{"type": "number"}},
	FieldTypeDate:           {Tag: "input", Attrs: map[string]string{"type": "date"}},
	FieldTypePerson:         {Tag: "input", Attrs: map[string]string{"type": "text"}},
	FieldTypeCheckbox:       {Tag: "input", Attrs: map[string]string{"type": "checkbox"}},
	FieldTypeRadio:          {Tag: "input", Attrs: map[string]string{"type": "radio"}},
	FieldTypeFile:           {Tag: "input", Attrs: map[string]string{"type": "file"}},
	FieldTypeTextarea:       {Tag: "textarea"},
	FieldTypeSelectOne:      {Tag: "select"},
	FieldTypeSelectMultiple: {Tag: "select", Attrs: map[string]string{"multiple": "multiple"}},
}

// ControlFor returns the control for t. Unknown types render as text inputs.
func ControlFor(t FieldType) Control {
	if control, ok := controls[t]; ok {
		return control
	}
	return controls[FieldTypeText]
}
