package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/dom"
	"github.com/goliatone/go-formflow/pkg/render"
)

type namedDecorator string

func (namedDecorator) Matches(*dom.Node, string, string, string, string) bool { return true }

func (d namedDecorator) Apply(node *dom.Node, _, _, _, _ string) {
	node.SetAttr("data-last", string(d))
}

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	t.Parallel()

	registry := render.NewRegistry()
	registry.Add("INPUT", namedDecorator("first"))
	registry.Add(" input ", namedDecorator("second"))
	registry.Add("form", namedDecorator("form"))
	registry.Add("", namedDecorator("ignored"))
	registry.Add("div", nil)

	var got []string
	for _, decorator := range registry.For("input") {
		got = append(got, string(decorator.(namedDecorator)))
	}
	if diff := cmp.Diff([]string{"first", "second"}, got); diff != "" {
		t.Fatalf("decorators mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"form", "input"}, registry.Tags()); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if registry.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", registry.Len())
	}
	if len(registry.For("span")) != 0 {
		t.Fatalf("expected no span decorators")
	}
}
