package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/internal/telemetry"
	"github.com/goliatone/go-formflow/pkg/content"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/identity"
)

type globalOptions struct {
	configPath  string
	definitions string
	logLevel    string
}

func newRootCommand(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "formflow",
		Short:         "Render form screens and ingest submissions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path")
	root.PersistentFlags().StringVarP(&opts.definitions, "definitions", "d", "", "definitions directory (overrides config)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")

	root.AddCommand(newRenderCommand(opts))
	root.AddCommand(newSubmitCommand(opts))
	root.AddCommand(newValidateCommand(opts))
	return root
}

// app is the wiring shared by the subcommands.
type app struct {
	cfg         Config
	logger      *telemetry.Logger
	definitions *definition.Store
	store       content.Store
	flow        *formflow.Orchestrator
	closeStore  func() error
}

func (a *app) Close() error {
	var err error
	if a.closeStore != nil {
		err = a.closeStore()
	}
	if closeErr := a.logger.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (o *globalOptions) load(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.definitions != "" {
		cfg.Definitions = o.definitions
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	defs, err := definition.LoadFS(os.DirFS(cfg.Definitions))
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("load definitions from %s: %w", cfg.Definitions, err)
	}

	metrics, err := telemetry.NewMetrics(cfg.Metrics)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	store, closeStore, err := openStore(cmd.Context(), cfg.Content)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	flow := formflow.New(
		formflow.WithDefinitions(defs),
		formflow.WithContentStore(store),
		formflow.WithIdentity(identity.NewStatic(cfg.Users...)),
		formflow.WithLogger(logger.Zerolog()),
		formflow.WithMetrics(metrics),
	)

	cliLog := logger.Component("cli")
	cliLog.Debug().
		Str("definitions", cfg.Definitions).
		Str("backend", cfg.Content.Backend).
		Strs("processes", defs.Keys()).
		Msg("formflow ready")

	return &app{
		cfg:         cfg,
		logger:      logger,
		definitions: defs,
		store:       store,
		flow:        flow,
		closeStore:  closeStore,
	}, nil
}

func newValidateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate every definition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, key := range a.definitions.Keys() {
				process, _ := a.definitions.Process(key)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d screens\t%s\n", key, len(process.Screens), process.Source)
			}
			return nil
		},
	}
}
