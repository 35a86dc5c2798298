package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/pkg/dom/htmlcodec"
	"github.com/goliatone/go-formflow/pkg/model"
)

type renderOptions struct {
	process  string
	screen   string
	template string
	data     string
	output   string
	request  string
	action   string
	readonly bool
}

func newRenderCommand(global *globalOptions) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Decorate an HTML template with a screen definition and data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := global.load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return runRender(cmd, a, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.process, "process", "p", "", "process key")
	flags.StringVarP(&opts.screen, "screen", "s", "", "screen id")
	flags.StringVarP(&opts.template, "template", "t", "", "HTML template file")
	flags.StringVar(&opts.data, "data", "", "YAML file mapping field names to values")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	flags.StringVar(&opts.request, "request", "", "request id written into the form")
	flags.StringVar(&opts.action, "action", "", "URI the main form posts to")
	flags.BoolVar(&opts.readonly, "readonly", false, "render every control disabled")
	_ = cmd.MarkFlagRequired("process")
	_ = cmd.MarkFlagRequired("screen")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func runRender(cmd *cobra.Command, a *app, opts *renderOptions) error {
	file, err := os.Open(opts.template)
	if err != nil {
		return fmt.Errorf("open template: %w", err)
	}
	doc, err := htmlcodec.Parse(file)
	_ = file.Close()
	if err != nil {
		return err
	}

	data, err := loadData(opts.data)
	if err != nil {
		return err
	}

	out, err := a.flow.RenderScreen(cmd.Context(), formflow.RenderRequest{
		ProcessKey: opts.process,
		ScreenID:   opts.screen,
		RequestID:  opts.request,
		ActionURI:  opts.action,
		Document:   doc,
		Data:       data,
		Readonly:   opts.readonly,
	})
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	return htmlcodec.Render(w, out)
}

// loadData reads a YAML mapping of field names to a scalar or a list of
// scalars.
func loadData(path string) (map[string][]model.Value, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse data %s: %w", path, err)
	}

	out := make(map[string][]model.Value, len(doc))
	for name, node := range doc {
		var values []string
		switch node.Kind {
		case yaml.SequenceNode:
			if err := node.Decode(&values); err != nil {
				return nil, fmt.Errorf("parse data %s: field %q: %w", path, name, err)
			}
		default:
			var value string
			if err := node.Decode(&value); err != nil {
				return nil, fmt.Errorf("parse data %s: field %q: %w", path, name, err)
			}
			values = []string{value}
		}
		out[name] = model.Texts(values...)
	}
	return out, nil
}
