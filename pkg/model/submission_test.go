package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSubmissionValueMap(t *testing.T) {
	t.Parallel()

	sub := Submission{
		FormData: []FormValue{
			{Name: "TestField", Values: []string{"1", "2", "3"}},
			{Name: "photo", Values: []string{"me.png"}, Detail: &ValueDetail{Location: "/p/1", ContentType: "image/png"}},
		},
	}

	got := sub.ValueMap()
	want := map[string][]Value{
		"TestField": {Text("1"), Text("2"), Text("3")},
		"photo":     {File{Name: "me.png", Location: "/p/1", ContentType: "image/png"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("value map mismatch (-want +got):\n%s", diff)
	}

	if values := sub.FormValueMap()["TestField"].Values; len(values) != 3 || values[2] != "3" {
		t.Fatalf("unexpected form value map entry: %v", values)
	}
}

func TestMisconfiguredUnwraps(t *testing.T) {
	t.Parallel()

	err := Misconfigured("button %q has no value %q", "actionButton", "Nope")
	if !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Reason == "" {
		t.Fatalf("expected ConfigError with reason, got %#v", err)
	}
}

func TestActionTypeUnmarshalText(t *testing.T) {
	t.Parallel()

	var action ActionType
	if err := action.UnmarshalText([]byte(" COMPLETE ")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if action != ActionComplete || !action.Valid() || action.Description() != "Completed" {
		t.Fatalf("unexpected action %q", action)
	}
}

func TestJoinMessages(t *testing.T) {
	t.Parallel()

	got := JoinMessages([]Message{{Text: "Required"}, {Text: "  "}, {Text: "Too short"}})
	if got != "Required,Too short" {
		t.Fatalf("unexpected join: %q", got)
	}
}
