// Package formflow wires definitions, enrichment, rendering and submission
// ingestion behind one entry point.
package formflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formflow/pkg/content"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/dom"
	"github.com/goliatone/go-formflow/pkg/enrich"
	"github.com/goliatone/go-formflow/pkg/identity"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/submission"
)

// Metrics receives render and ingestion measurements.
type Metrics interface {
	submission.Recorder
	ScreenRendered(processKey, screenID string)
}

// Option customises the orchestrator.
type Option func(*Orchestrator)

// WithDefinitions sets the store screens are looked up in.
func WithDefinitions(store *definition.Store) Option {
	return func(o *Orchestrator) {
		o.definitions = store
	}
}

// WithContentStore sets where uploads are persisted. Defaults to an in-memory
// store.
func WithContentStore(store content.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithIdentity sets the identity provider used for submitters and user fields.
func WithIdentity(provider identity.Provider) Option {
	return func(o *Orchestrator) {
		o.identity = provider
	}
}

// WithLogger sets the logger passed to the default renderer and ingester.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = metrics
	}
}

// WithRenderer replaces the default renderer.
func WithRenderer(renderer *render.Renderer) Option {
	return func(o *Orchestrator) {
		o.renderer = renderer
	}
}

// WithIngester replaces the default ingester. The content store, identity and
// metrics options do not apply to a supplied ingester.
func WithIngester(ingester *submission.Ingester) Option {
	return func(o *Orchestrator) {
		o.ingester = ingester
	}
}

// WithTokenGenerator sets the source of confirmation numbers for renders
// that do not supply one.
func WithTokenGenerator(next func() string) Option {
	return func(o *Orchestrator) {
		if next != nil {
			o.newToken = next
		}
	}
}

// WithDecorators registers extra enrichment decorators, run after the
// built-in state and confirmation number decorators.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// Orchestrator renders screens and ingests submissions for the processes in
// its definition store. It is safe for concurrent use.
type Orchestrator struct {
	definitions *definition.Store
	store       content.Store
	identity    identity.Provider
	logger      zerolog.Logger
	metrics     Metrics
	renderer    *render.Renderer
	ingester    *submission.Ingester
	newToken    func() string
	decorators  []model.Decorator
}

// New constructs an Orchestrator. Missing collaborators get the built-in
// implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:   zerolog.Nop(),
		newToken: defaultToken,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}

	if o.store == nil {
		o.store = content.NewMemoryStore()
	}
	if o.identity == nil {
		o.identity = identity.Anonymous{}
	}
	if o.renderer == nil {
		o.renderer = render.NewRenderer(
			render.WithLogger(o.logger.With().Str("component", "render").Logger()),
			render.WithDecoratorFactory(render.HiddenFieldsFactory(func(scope render.Scope) []render.HiddenField {
				return render.RequestFields(scope.Form)
			})),
		)
	}
	if o.ingester == nil {
		ingestOpts := []submission.IngesterOption{
			submission.WithLogger(o.logger.With().Str("component", "submission").Logger()),
			submission.WithIdentity(o.identity),
		}
		if o.metrics != nil {
			ingestOpts = append(ingestOpts, submission.WithRecorder(o.metrics))
		}
		o.ingester = submission.NewIngester(o.store, ingestOpts...)
	}
	return o
}

// RenderRequest describes one screen render.
type RenderRequest struct {
	ProcessKey string
	ScreenID   string
	RequestID  string
	TaskID     string

	// Document is the parsed template; it is decorated in place.
	Document *dom.Node

	Data     map[string][]model.Value
	Messages map[string][]model.Message
	Readonly bool

	// Errors is a validation payload keyed by field path. Paths resolving
	// to a field are merged into Messages as "error" messages.
	Errors map[string][]string

	ActionURI       string
	AttachmentURI   string
	CancellationURI string
	Attachments     []model.Attachment

	// ConfirmationNumber replaces the generated token when set.
	ConfirmationNumber string
}

// RenderScreen enriches the requested screen and decorates the template with
// it. An unknown process or screen is reported as model.ErrMisconfigured.
func (o *Orchestrator) RenderScreen(ctx context.Context, req RenderRequest) (*dom.Node, error) {
	if ctx == nil {
		return nil, errors.New("formflow: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	screen, err := o.screen(req.ProcessKey, req.ScreenID)
	if err != nil {
		return nil, err
	}

	form := model.Form{
		ProcessKey:      req.ProcessKey,
		RequestID:       req.RequestID,
		TaskID:          req.TaskID,
		ActionURI:       req.ActionURI,
		AttachmentURI:   req.AttachmentURI,
		CancellationURI: req.CancellationURI,
		Screen:          screen,
		Attachments:     req.Attachments,
	}

	token := req.ConfirmationNumber
	if token == "" {
		token = o.newToken()
	}
	decorators := append([]model.Decorator{enrich.States(), enrich.ConfirmationNumber(token)}, o.decorators...)
	if err := enrich.Apply(&form, decorators...); err != nil {
		return nil, fmt.Errorf("formflow: %w", err)
	}

	data := enrich.ResolveUsers(ctx, o.identity, form.Screen, req.Data)
	messages := o.mergeErrors(form.Screen, req.Messages, req.Errors)
	doc, err := o.renderer.Render(req.Document, form, data, messages, req.Readonly)
	if err != nil {
		return nil, fmt.Errorf("formflow: %w", err)
	}

	if o.metrics != nil {
		o.metrics.ScreenRendered(req.ProcessKey, req.ScreenID)
	}
	return doc, nil
}

func (o *Orchestrator) mergeErrors(screen *model.Screen, messages map[string][]model.Message, payload map[string][]string) map[string][]model.Message {
	if len(payload) == 0 {
		return messages
	}
	mapping := render.MapMessages(screen, "error", payload)
	merged := make(map[string][]model.Message, len(messages)+len(mapping.Fields))
	for name, list := range messages {
		merged[name] = append([]model.Message(nil), list...)
	}
	for name, list := range mapping.Fields {
		merged[name] = append(merged[name], list...)
	}
	for _, message := range mapping.Form {
		o.logger.Warn().Str("message", message.Text).Msg("form-level validation message has no field")
	}
	return merged
}

// SubmitRequest describes one posted screen.
type SubmitRequest struct {
	ProcessKey string
	ScreenID   string
	RequestID  string
	TaskID     string
	Entries    []submission.Entry

	// Classification adds to the categories derived from the screen.
	Classification []submission.Option
}

// Submit classifies and ingests the entries posted for a screen.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*model.Submission, error) {
	if ctx == nil {
		return nil, errors.New("formflow: context is required")
	}
	screen, err := o.screen(req.ProcessKey, req.ScreenID)
	if err != nil {
		return nil, err
	}

	cls, err := submission.NewClassification(screen, req.Classification...)
	if err != nil {
		return nil, fmt.Errorf("formflow: classify %s/%s: %w", req.ProcessKey, req.ScreenID, err)
	}

	return o.ingester.Ingest(ctx, req.Entries, cls, submission.RequestContext{
		ProcessKey: req.ProcessKey,
		RequestID:  req.RequestID,
		TaskID:     req.TaskID,
	})
}

// ContentStore exposes the store uploads are written to.
func (o *Orchestrator) ContentStore() content.Store {
	return o.store
}

func (o *Orchestrator) screen(processKey, screenID string) (*model.Screen, error) {
	if o.definitions == nil {
		return nil, model.Misconfigured("no definitions configured")
	}
	screen, ok := o.definitions.Screen(processKey, screenID)
	if !ok {
		return nil, model.Misconfigured("screen %q of process %q is not defined", screenID, processKey)
	}
	return screen, nil
}

func defaultToken() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
