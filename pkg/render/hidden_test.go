package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/dom"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
)

func TestMergeAndSortHiddenFields(t *testing.T) {
	t.Parallel()

	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	merged := render.MergeHiddenFields(base,
		render.CSRFToken("_csrf", "token123"),
		render.Hidden("version", 4),
		render.Hidden("  ", "skip"),
	)
	merged = render.MergeHiddenFields(merged, render.RequestFields(model.Form{RequestID: "req-1"})...)

	wantMerged := map[string]string{
		"existing":  "keep",
		"_csrf":     "token123",
		"version":   "4",
		"requestId": "req-1",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	sorted := render.SortedHiddenFields(merged)
	wantSorted := []render.HiddenField{
		{Name: "_csrf", Value: "token123"},
		{Name: "existing", Value: "keep"},
		{Name: "requestId", Value: "req-1"},
		{Name: "version", Value: "4"},
	}
	if diff := cmp.Diff(wantSorted, sorted); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

func TestHiddenFieldsFactoryUsesRenderScope(t *testing.T) {
	t.Parallel()

	renderer := render.NewRenderer(render.WithDecoratorFactory(render.HiddenFieldsFactory(func(scope render.Scope) []render.HiddenField {
		return render.RequestFields(scope.Form)
	})))

	form := dom.Element("form", nil)
	root := dom.Document(dom.Element("body", nil, form))
	_, err := renderer.Render(root, model.Form{RequestID: "req-9", TaskID: "task-2"}, nil, nil, false)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	got := map[string]string{}
	for _, input := range dom.Find(form, "input") {
		got[input.AttrValue("name")] = input.AttrValue("value")
	}
	want := map[string]string{"requestId": "req-9", "taskId": "task-2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("hidden inputs mismatch (-want +got):\n%s", diff)
	}

	form.RemoveChildren()
	if _, err := renderer.Render(root, model.Form{}, nil, nil, false); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if inputs := dom.Find(form, "input"); len(inputs) != 0 {
		t.Fatalf("expected no hidden inputs without request ids, got %d", len(inputs))
	}
}
