package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formflow/pkg/constraint"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/submission"
)

// Opener opens an upload chosen at a file prompt.
type Opener func(path string) (io.ReadCloser, error)

// Collector walks a screen's fields and asks for a value for each one that
// is visible given the answers so far.
type Collector struct {
	driver Driver
	open   Opener
}

// CollectorOption customises a Collector.
type CollectorOption func(*Collector)

// WithOpener replaces os.Open for file fields.
func WithOpener(open Opener) CollectorOption {
	return func(c *Collector) {
		if open != nil {
			c.open = open
		}
	}
}

// NewCollector creates a Collector prompting through driver.
func NewCollector(driver Driver, options ...CollectorOption) *Collector {
	c := &Collector{
		driver: driver,
		open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Collect prompts for every editable field of screen, then for a button when
// the screen defines any. Read-only fields and hidden fields are skipped. The
// returned closer releases opened uploads and must be called once the entries
// are ingested.
func (c *Collector) Collect(ctx context.Context, screen *model.Screen) ([]submission.Entry, func() error, error) {
	if screen == nil {
		return nil, nil, model.Misconfigured("no screen to collect")
	}

	var (
		entries []submission.Entry
		closers []io.Closer
	)
	closeAll := func() error {
		var errs []error
		for _, closer := range closers {
			errs = append(errs, closer.Close())
		}
		return errors.Join(errs...)
	}

	fields := screen.FieldMap()
	answers := make(map[string][]model.Value)

	if screen.Title != "" {
		if err := c.driver.Info(ctx, screen.Title); err != nil {
			return nil, nil, err
		}
	}

	for _, field := range screen.Fields() {
		if field.Readonly || screen.Readonly {
			continue
		}
		if !constraint.CheckAll(model.ConstraintVisibleWhen, field.Constraints, fields, answers) {
			continue
		}

		values, upload, err := c.ask(ctx, field)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("prompt: field %q: %w", field.Name, err)
		}
		if upload != nil {
			closers = append(closers, upload.closer)
			entries = append(entries, upload.entry)
			continue
		}
		for _, value := range values {
			entries = append(entries, submission.Entry{Name: field.Name, Value: value})
		}
		if len(values) > 0 {
			answers[field.Name] = model.Texts(values...)
		}
	}

	if len(screen.Buttons) > 0 {
		labels := make([]string, len(screen.Buttons))
		for idx, button := range screen.Buttons {
			labels[idx] = buttonLabel(button)
		}
		choice, err := c.driver.Select(ctx, SelectConfig{Message: "Action", Options: labels})
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("prompt: action: %w", err)
		}
		if choice >= 0 && choice < len(screen.Buttons) {
			button := screen.Buttons[choice]
			entries = append(entries, submission.Entry{Name: button.Name, Value: button.Value})
		}
	}

	return entries, closeAll, nil
}

type upload struct {
	entry  submission.Entry
	closer io.Closer
}

func (c *Collector) ask(ctx context.Context, field model.Field) ([]string, *upload, error) {
	message := fieldLabel(field)

	switch field.Type {
	case model.FieldTypeSelectOne, model.FieldTypeRadio:
		if len(field.Options) == 0 {
			break
		}
		idx, err := c.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      optionLabels(field.Options),
			DefaultIndex: optionIndex(field.Options, field.DefaultValue),
		})
		if err != nil || idx < 0 {
			return nil, nil, err
		}
		return []string{field.Options[idx].Value}, nil, nil
	case model.FieldTypeSelectMultiple, model.FieldTypeCheckbox:
		if len(field.Options) == 0 {
			if field.Type != model.FieldTypeCheckbox {
				break
			}
			yes, err := c.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: field.DefaultValue == "yes"})
			if err != nil || !yes {
				return nil, nil, err
			}
			return []string{"yes"}, nil, nil
		}
		var defaults []int
		if idx := optionIndex(field.Options, field.DefaultValue); idx >= 0 {
			defaults = []int{idx}
		}
		picked, err := c.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  optionLabels(field.Options),
			Defaults: defaults,
		})
		if err != nil {
			return nil, nil, err
		}
		values := make([]string, 0, len(picked))
		for _, idx := range picked {
			values = append(values, field.Options[idx].Value)
		}
		return values, nil, nil
	case model.FieldTypeTextarea:
		text, err := c.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: field.DefaultValue})
		if err != nil || text == "" {
			return nil, nil, err
		}
		return []string{text}, nil, nil
	case model.FieldTypeFile:
		path, err := c.driver.Input(ctx, InputConfig{Message: message, Help: "path to a file, empty to skip"})
		if err != nil || strings.TrimSpace(path) == "" {
			return nil, nil, err
		}
		return c.openUpload(field, strings.TrimSpace(path))
	}

	text, err := c.driver.Input(ctx, InputConfig{
		Message:   message,
		Default:   field.DefaultValue,
		Validator: maxLength(field.MaxLength),
	})
	if err != nil || text == "" {
		return nil, nil, err
	}
	return []string{text}, nil, nil
}

func (c *Collector) openUpload(field model.Field, path string) ([]string, *upload, error) {
	reader, err := c.open(path)
	if err != nil {
		return nil, nil, err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if field.Accept != "" && contentType != "" && !accepts(field.Accept, contentType) {
		_ = reader.Close()
		return nil, nil, fmt.Errorf("content type %s is not accepted (%s)", contentType, field.Accept)
	}
	return nil, &upload{
		entry: submission.Entry{
			Name:        field.Name,
			Value:       filepath.Base(path),
			ContentType: contentType,
			Content:     reader,
		},
		closer: reader,
	}, nil
}

func accepts(accept, contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	for _, allowed := range strings.Split(accept, ",") {
		allowed = strings.TrimSpace(allowed)
		if allowed == mediaType {
			return true
		}
		if prefix, ok := strings.CutSuffix(allowed, "/*"); ok && strings.HasPrefix(mediaType, prefix+"/") {
			return true
		}
	}
	return false
}

func maxLength(limit int) func(string) error {
	if limit <= 0 {
		return nil
	}
	return func(value string) error {
		if len([]rune(value)) > limit {
			return fmt.Errorf("at most %d characters", limit)
		}
		return nil
	}
}

func fieldLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func buttonLabel(button model.Button) string {
	if button.Label != "" {
		return button.Label
	}
	return button.Value
}

func optionLabels(options []model.Option) []string {
	out := make([]string, len(options))
	for idx, option := range options {
		label := option.Label
		if label == "" {
			label = option.Value
		}
		if label == "" {
			label = "(none)"
		}
		out[idx] = label
	}
	return out
}

func optionIndex(options []model.Option, value string) int {
	for idx, option := range options {
		if option.Value == value {
			return idx
		}
	}
	return -1
}
