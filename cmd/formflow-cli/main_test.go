package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formflow/pkg/model"
)

const cliDefinitions = `processes:
  leave:
    screens:
      - id: request
        attachmentsAllowed: true
        sections:
          - fields:
              - {name: days, type: number}
              - {name: reason, type: textarea}
        buttons:
          - {name: actionButton, value: send, action: complete}
`

func writeWorkspace(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	defs := filepath.Join(dir, "definitions")
	if err := os.MkdirAll(defs, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		filepath.Join(defs, "leave.yaml"): cliDefinitions,
		filepath.Join(dir, "form.html"):   `<html><body><form><input name="days"><textarea name="reason"></textarea></form></body></html>`,
		filepath.Join(dir, "data.yaml"):   "days: 3\nreason:\n  - rest\n",
		filepath.Join(dir, "note.txt"):    "hello",
		filepath.Join(dir, "config.yaml"): "definitions: " + defs + "\ncontent:\n  backend: bolt\n  boltPath: " + filepath.Join(dir, "content.db") + "\nlogging:\n  level: error\n",
	}
	for path, body := range files {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	t.Parallel()

	dir := writeWorkspace(t)
	out, err := execute(t, "render",
		"--config", filepath.Join(dir, "config.yaml"),
		"--process", "leave", "--screen", "request",
		"--template", filepath.Join(dir, "form.html"),
		"--data", filepath.Join(dir, "data.yaml"),
		"--request", "r-1",
	)
	if err != nil {
		t.Fatalf("render: %v\n%s", err, out)
	}
	for _, want := range []string{`value="3"`, `>rest</textarea>`, `name="requestId"`, `method="POST"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %s:\n%s", want, out)
		}
	}
}

func TestSubmitCommand(t *testing.T) {
	t.Parallel()

	dir := writeWorkspace(t)
	out, err := execute(t, "submit",
		"--config", filepath.Join(dir, "config.yaml"),
		"--process", "leave", "--screen", "request",
		"--user", "u-1",
		"--set", "days=2", "--set", "actionButton=send",
		"--file", "note="+filepath.Join(dir, "note.txt"),
	)
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}

	var sub model.Submission
	if err := json.Unmarshal([]byte(out), &sub); err != nil {
		t.Fatalf("output is not a submission: %v\n%s", err, out)
	}
	if sub.Action == nil || *sub.Action != model.ActionComplete || sub.SubmitterID != "u-1" {
		t.Fatalf("unexpected submission: %+v", sub)
	}
	if len(sub.FormData) != 1 || sub.FormData[0].Value() != "2" {
		t.Fatalf("form data = %+v", sub.FormData)
	}
	if len(sub.Attachments) != 1 || sub.Attachments[0].Name != "note" || !strings.HasPrefix(sub.Attachments[0].Location, "/leave/") {
		t.Fatalf("attachments = %+v", sub.Attachments)
	}
}

func TestSubmitRejectsUnknownButton(t *testing.T) {
	t.Parallel()

	dir := writeWorkspace(t)
	_, err := execute(t, "submit",
		"--config", filepath.Join(dir, "config.yaml"),
		"--process", "leave", "--screen", "request",
		"--set", "actionButton=launch",
	)
	if err == nil || !strings.Contains(err.Error(), "misconfigured") {
		t.Fatalf("expected misconfigured error, got %v", err)
	}
}

func TestValidateCommandListsProcesses(t *testing.T) {
	t.Parallel()

	dir := writeWorkspace(t)
	out, err := execute(t, "validate", "-d", filepath.Join(dir, "definitions"), "--log-level", "error")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.HasPrefix(out, "leave\t1 screens\tleave.yaml") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bolt without path", mutate: func(c *Config) { c.Content.Backend = "bolt" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Content.Backend = "s3" }, wantErr: true},
		{name: "s3 with bucket", mutate: func(c *Config) { c.Content.Backend = "s3"; c.Content.Bucket = "forms" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Content.Backend = "ftp" }, wantErr: true},
		{name: "bad endpoint", mutate: func(c *Config) { c.Content.Endpoint = "not a url" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "no definitions", mutate: func(c *Config) { c.Definitions = "" }, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(&cfg)
			if err := cfg.validate(); (err != nil) != tt.wantErr {
				t.Fatalf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.yaml")
	if err := os.WriteFile(path, []byte("a: x\nb: [1, 2]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := loadData(path)
	if err != nil {
		t.Fatalf("loadData() error = %v", err)
	}
	if got := model.Strings(data["b"]); len(got) != 2 || got[1] != "2" || model.Strings(data["a"])[0] != "x" {
		t.Fatalf("data = %v", data)
	}
}
