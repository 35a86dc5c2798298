// Package testsupport holds fixture and golden-file helpers shared by the
// package tests.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/dom"
	"github.com/goliatone/go-formflow/pkg/dom/htmlcodec"
	"github.com/goliatone/go-formflow/pkg/model"
)

// MustLoadScreen reads a YAML or JSON screen fixture.
func MustLoadScreen(t *testing.T, path string) *model.Screen {
	t.Helper()

	screen, err := LoadScreen(path)
	if err != nil {
		t.Fatalf("load screen: %v", err)
	}
	return screen
}

// LoadScreen reads a screen fixture, returning an error for callers managing
// setup outside of *testing.T.
func LoadScreen(path string) (*model.Screen, error) {
	if path == "" {
		return nil, errors.New("testsupport: screen path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read screen: %w", err)
	}
	var screen model.Screen
	if err := yaml.Unmarshal(data, &screen); err != nil {
		return nil, fmt.Errorf("testsupport: unmarshal screen: %w", err)
	}
	return &screen, nil
}

// MustParseHTMLFile parses an HTML template fixture.
func MustParseHTMLFile(t *testing.T, path string) *dom.Node {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open template: %v", err)
	}
	defer file.Close()

	doc, err := htmlcodec.Parse(file)
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}
	return doc
}

// MustRenderHTML serialises a tree.
func MustRenderHTML(t *testing.T, node *dom.Node) string {
	t.Helper()

	out, err := htmlcodec.RenderString(node)
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	return out
}

// MustMatchGolden compares got with the golden file at path, ignoring
// surrounding whitespace. With UPDATE_GOLDENS set the golden is rewritten
// instead.
func MustMatchGolden(t *testing.T, path, got string) {
	t.Helper()

	if WriteMaybeGolden(t, path, []byte(got+"\n")) {
		return
	}
	want := strings.TrimSpace(MustReadGoldenString(t, path))
	if diff := cmp.Diff(want, strings.TrimSpace(got)); diff != "" {
		t.Fatalf("golden %s mismatch (-want +got):\n%s", path, diff)
	}
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
