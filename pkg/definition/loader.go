// Package definition loads process and screen definitions from JSON or YAML
// files and validates them before they reach the renderer or the classifier.
package definition

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/constraint"
	"github.com/goliatone/go-formflow/pkg/model"
)

// Process is a named, ordered set of screens.
type Process struct {
	Key     string
	Title   string
	Source  string
	Screens []*model.Screen
}

// Screen returns the screen with the given id.
func (p Process) Screen(id string) (*model.Screen, bool) {
	for _, screen := range p.Screens {
		if screen.ID == id {
			return screen, true
		}
	}
	return nil, false
}

// Store holds validated process definitions. It is read-only after loading
// and safe for concurrent use.
type Store struct {
	processes map[string]Process
}

type documentFile struct {
	Processes map[string]processFile `json:"processes" yaml:"processes"`
}

type processFile struct {
	Title   string         `json:"title" yaml:"title"`
	Screens []model.Screen `json:"screens" yaml:"screens"`
}

// LoadFS walks fsys and parses every JSON/YAML file as a definition document.
// Any invalid definition aborts loading. A nil fsys yields an empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{processes: make(map[string]Process)}
	if fsys == nil {
		return store, nil
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}

		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for rawKey, raw := range doc.Processes {
			key := strings.TrimSpace(rawKey)
			if key == "" {
				return model.Misconfigured("file %s defines an empty process key", path)
			}
			if existing, exists := store.processes[key]; exists {
				return model.Misconfigured("duplicate process %q (files %s and %s)", key, existing.Source, path)
			}
			process, err := normaliseProcess(validate, key, path, raw)
			if err != nil {
				return err
			}
			store.processes[key] = process
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Process returns the process with the given key.
func (s *Store) Process(key string) (Process, bool) {
	if s == nil {
		return Process{}, false
	}
	process, ok := s.processes[key]
	return process, ok
}

// Screen returns a screen of a process.
func (s *Store) Screen(processKey, screenID string) (*model.Screen, bool) {
	process, ok := s.Process(processKey)
	if !ok {
		return nil, false
	}
	return process.Screen(screenID)
}

// Keys lists the process keys in sorted order.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.processes))
	for key := range s.processes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Empty reports whether the store holds any processes.
func (s *Store) Empty() bool {
	return s == nil || len(s.processes) == 0
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("definition: file %s is empty", source)
	}

	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("definition: parse %s: %w", source, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("definition: parse %s: %w", source, err)
	}
	return doc, nil
}

func normaliseProcess(validate *validator.Validate, key, source string, raw processFile) (Process, error) {
	if len(raw.Screens) == 0 {
		return Process{}, model.Misconfigured("process %q (file %s) has no screens", key, source)
	}

	process := Process{Key: key, Title: raw.Title, Source: source}
	seen := make(map[string]struct{}, len(raw.Screens))
	for idx := range raw.Screens {
		screen := raw.Screens[idx]
		if _, dup := seen[screen.ID]; dup {
			return Process{}, model.Misconfigured("process %q (file %s) defines screen %q twice", key, source, screen.ID)
		}
		seen[screen.ID] = struct{}{}

		if err := validateScreen(validate, &screen); err != nil {
			return Process{}, fmt.Errorf("definition: process %q screen %q (file %s): %w", key, screen.ID, source, err)
		}
		process.Screens = append(process.Screens, &screen)
	}
	return process, nil
}

// validateScreen checks struct tags first, then cross-field rules: field
// names unique per screen, known button actions and resolvable constraints.
func validateScreen(validate *validator.Validate, screen *model.Screen) error {
	if err := validate.Struct(screen); err != nil {
		return model.Misconfigured("%v", err)
	}

	names := make(map[string]struct{})
	for _, field := range screen.Fields() {
		if _, dup := names[field.Name]; dup {
			return model.Misconfigured("field %q is defined twice", field.Name)
		}
		names[field.Name] = struct{}{}
	}

	for _, button := range screen.Buttons {
		if !button.Action.Valid() {
			return model.Misconfigured("button %q has unknown action %q", button.Name, button.Action)
		}
		if _, clash := names[button.Name]; clash {
			return model.Misconfigured("button %q shares its name with a field", button.Name)
		}
	}

	fields := screen.FieldMap()
	for _, field := range screen.Fields() {
		if err := constraint.Validate(field.Constraints, fields); err != nil {
			return err
		}
	}
	return nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
