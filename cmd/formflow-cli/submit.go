package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/pkg/identity"
	"github.com/goliatone/go-formflow/pkg/prompt"
	"github.com/goliatone/go-formflow/pkg/submission"
)

type submitOptions struct {
	process     string
	screen      string
	request     string
	task        string
	user        string
	values      []string
	files       []string
	interactive bool
}

func newSubmitCommand(global *globalOptions) *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Ingest values and files for a screen and print the submission as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := global.load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return runSubmit(cmd, a, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.process, "process", "p", "", "process key")
	flags.StringVarP(&opts.screen, "screen", "s", "", "screen id")
	flags.StringVar(&opts.request, "request", "", "request id")
	flags.StringVar(&opts.task, "task", "", "task id")
	flags.StringVarP(&opts.user, "user", "u", "", "submitting user id")
	flags.StringArrayVar(&opts.values, "set", nil, "name=value entry, repeatable")
	flags.StringArrayVar(&opts.files, "file", nil, "name=path upload, repeatable")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "prompt for every field")
	_ = cmd.MarkFlagRequired("process")
	_ = cmd.MarkFlagRequired("screen")
	return cmd
}

func runSubmit(cmd *cobra.Command, a *app, opts *submitOptions) error {
	ctx := cmd.Context()
	if opts.user != "" {
		ctx = identity.WithPrincipal(ctx, opts.user)
	}

	var (
		entries []submission.Entry
		closers []func() error
	)
	defer func() {
		for _, closeFn := range closers {
			_ = closeFn()
		}
	}()

	if opts.interactive {
		screen, ok := a.definitions.Screen(opts.process, opts.screen)
		if !ok {
			return fmt.Errorf("screen %q of process %q is not defined", opts.screen, opts.process)
		}
		collected, closeFn, err := prompt.NewCollector(prompt.NewSurveyDriver()).Collect(ctx, screen)
		if err != nil {
			return err
		}
		closers = append(closers, closeFn)
		entries = append(entries, collected...)
	}

	for _, raw := range opts.values {
		name, value, err := splitPair(raw)
		if err != nil {
			return err
		}
		entries = append(entries, submission.Entry{Name: name, Value: value})
	}
	for _, raw := range opts.files {
		name, path, err := splitPair(raw)
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open upload: %w", err)
		}
		closers = append(closers, file.Close)
		entries = append(entries, submission.Entry{
			Name:        name,
			Value:       filepath.Base(path),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
			Content:     file,
		})
	}

	sub, err := a.flow.Submit(ctx, formflow.SubmitRequest{
		ProcessKey: opts.process,
		ScreenID:   opts.screen,
		RequestID:  opts.request,
		TaskID:     opts.task,
		Entries:    entries,
	})
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(sub)
}

func splitPair(raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", raw)
	}
	return name, value, nil
}
