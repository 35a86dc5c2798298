package render

import "github.com/goliatone/go-formflow/pkg/dom"

// Attributes the renderer reads from templates or writes onto them.
const (
	AttrVariable    = "data-process-variable"
	AttrContainer   = "data-process-container"
	AttrContentType = "data-process-content-type"
	AttrForm        = "data-process-form"
	AttrExclude     = "data-process-exclude"
	AttrMessages    = "data-process-messages"
	AttrSection     = "data-process-section"
)

// Logical form discriminators carried by AttrForm.
const (
	FormMain         = "main"
	FormAttachments  = "attachments"
	FormCancellation = "cancellation"
)

// DefaultHiddenClass is added to elements whose field is not visible.
const DefaultHiddenClass = "hidden"

// Decorator matches and mutates document nodes during a render. The id,
// class, name and variable arguments are the node's corresponding attributes
// (variable is AttrVariable), read once per node before any decorator runs.
type Decorator interface {
	Matches(node *dom.Node, id, class, name, variable string) bool
	Apply(node *dom.Node, id, class, name, variable string)
}

func excluded(node *dom.Node) bool {
	return node.AttrValue(AttrExclude) == "true"
}
