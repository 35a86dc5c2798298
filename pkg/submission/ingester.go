package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formflow/pkg/content"
	"github.com/goliatone/go-formflow/pkg/identity"
	"github.com/goliatone/go-formflow/pkg/model"
)

const (
	defaultContentType    = "application/octet-stream"
	attachmentContentType = "text/plain"
)

// RequestContext identifies the process, request and task a submission
// belongs to.
type RequestContext struct {
	ProcessKey string
	RequestID  string
	TaskID     string
}

// Recorder receives ingestion measurements.
type Recorder interface {
	SubmissionIngested(processKey, action string)
	FieldDropped(processKey string)
	ContentStored(processKey string, bytes int64)
}

type nopRecorder struct{}

func (nopRecorder) SubmissionIngested(string, string) {}
func (nopRecorder) FieldDropped(string)               {}
func (nopRecorder) ContentStored(string, int64)       {}

// IngesterOption customises an Ingester.
type IngesterOption func(*Ingester)

// WithLogger sets the logger for dropped fields and misconfigured buttons.
func WithLogger(logger zerolog.Logger) IngesterOption {
	return func(i *Ingester) {
		i.logger = logger
	}
}

// WithSanitizer replaces the strict HTML sanitizer applied to names and
// values.
func WithSanitizer(s Sanitizer) IngesterOption {
	return func(i *Ingester) {
		if s != nil {
			i.sanitizer = s
		}
	}
}

// WithIdentity sets the provider used for the submitter id and user fields.
func WithIdentity(provider identity.Provider) IngesterOption {
	return func(i *Ingester) {
		if provider != nil {
			i.identity = provider
		}
	}
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) IngesterOption {
	return func(i *Ingester) {
		if now != nil {
			i.now = now
		}
	}
}

// WithIDGenerator overrides the generator for submission ids and content
// locations.
func WithIDGenerator(next func() string) IngesterOption {
	return func(i *Ingester) {
		if next != nil {
			i.newID = next
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) IngesterOption {
	return func(i *Ingester) {
		if r != nil {
			i.recorder = r
		}
	}
}

// WithStorageConcurrency bounds how many uploads are written at once. The
// resulting submission is ordered by input regardless of completion order.
func WithStorageConcurrency(n int) IngesterOption {
	return func(i *Ingester) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// Ingester turns raw entries into submissions. It is safe for concurrent use.
type Ingester struct {
	store       content.Store
	logger      zerolog.Logger
	sanitizer   Sanitizer
	identity    identity.Provider
	recorder    Recorder
	now         func() time.Time
	newID       func() string
	concurrency int
}

// NewIngester creates an Ingester persisting uploads to store.
func NewIngester(store content.Store, options ...IngesterOption) *Ingester {
	i := &Ingester{
		store:       store,
		logger:      zerolog.Nop(),
		sanitizer:   StrictSanitizer(),
		identity:    identity.Anonymous{},
		recorder:    nopRecorder{},
		now:         time.Now,
		newID:       uuid.NewString,
		concurrency: 1,
	}
	for _, opt := range options {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

type entryKind int

const (
	formEntry entryKind = iota
	restrictedEntry
	attachmentEntry
)

type plannedEntry struct {
	kind        entryKind
	name        string
	value       string
	userRef     bool
	contentType string
	hasContent  bool
	data        []byte
	stored      *content.Content
}

// Ingest classifies entries in arrival order and assembles a submission.
// Configuration errors wrap model.ErrMisconfigured and are reported before any
// content is written. Storage errors are *model.StorageError; content already
// stored for the submission is deleted before the error is returned.
func (i *Ingester) Ingest(ctx context.Context, entries []Entry, cls *Classification, rc RequestContext) (*model.Submission, error) {
	if cls == nil {
		return nil, model.Misconfigured("submission for process %q has no classification", rc.ProcessKey)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := i.logger.With().Str("process", rc.ProcessKey).Logger()

	plan, action, err := i.plan(entries, cls, rc, logger)
	if err != nil {
		return nil, err
	}
	if err := i.storeContent(ctx, plan, rc, logger); err != nil {
		return nil, err
	}

	submitter := i.identity.CurrentUserID(ctx)
	sub := &model.Submission{
		ID:          i.newID(),
		ProcessKey:  rc.ProcessKey,
		RequestID:   rc.RequestID,
		TaskID:      rc.TaskID,
		SubmittedAt: i.now().UTC(),
		SubmitterID: submitter,
		Action:      action,
	}

	formIndex := make(map[string]int)
	restrictedIndex := make(map[string]int)
	for _, entry := range plan {
		var detail *model.ValueDetail
		if entry.stored != nil {
			detail = &model.ValueDetail{Location: entry.stored.Location, ContentType: entry.stored.ContentType}
		}

		switch entry.kind {
		case formEntry:
			value := entry.value
			if entry.userRef {
				value = i.resolveUser(ctx, value, logger)
			}
			sub.FormData = appendValue(sub.FormData, formIndex, model.FormValue{
				Name:          entry.name,
				Values:        []string{value},
				Detail:        detail,
				UserReference: entry.userRef,
			})
		case restrictedEntry:
			sub.RestrictedData = appendValue(sub.RestrictedData, restrictedIndex, model.FormValue{
				Name:   entry.name,
				Values: []string{entry.value},
				Detail: detail,
			})
		case attachmentEntry:
			attachment := model.Attachment{
				Name:        entry.name,
				Description: entry.value,
				ContentType: attachmentContentType,
				UserID:      submitter,
				ProcessKey:  rc.ProcessKey,
			}
			if detail != nil {
				attachment.ContentType = detail.ContentType
				attachment.Location = detail.Location
			}
			sub.Attachments = append(sub.Attachments, attachment)
		}
	}

	actionName := ""
	if action != nil {
		actionName = string(*action)
	}
	i.recorder.SubmissionIngested(rc.ProcessKey, actionName)
	logger.Debug().
		Str("submission", sub.ID).
		Str("action", actionName).
		Int("fields", len(sub.FormData)).
		Int("restricted", len(sub.RestrictedData)).
		Int("attachments", len(sub.Attachments)).
		Msg("submission ingested")

	return sub, nil
}

// plan classifies every entry and reads upload payloads without writing
// anything, so configuration errors abort before storage is touched.
func (i *Ingester) plan(entries []Entry, cls *Classification, rc RequestContext, logger zerolog.Logger) ([]plannedEntry, *model.ActionType, error) {
	var (
		plan   []plannedEntry
		action *model.ActionType
	)

	for _, raw := range entries {
		name := i.sanitizer.Sanitize(raw.Name)
		value := i.sanitizer.Sanitize(raw.Value)

		entry := plannedEntry{name: name, value: value}
		switch cls.Category(name) {
		case Button:
			button, ok := cls.Button(value)
			if !ok {
				logger.Error().Str("button", name).Str("value", value).Msg("button value has no configured action")
				return nil, nil, model.Misconfigured("button %q has no action for value %q", name, value)
			}
			if action == nil {
				resolved := button.Action
				action = &resolved
			} else if *action != button.Action {
				logger.Warn().Str("button", name).Str("ignored", string(button.Action)).Msg("multiple buttons submitted; keeping the first")
			}
			continue
		case Acceptable:
			entry.kind = formEntry
		case UserField:
			entry.kind = formEntry
			entry.userRef = true
		case Restricted:
			entry.kind = restrictedEntry
		default:
			if !cls.AttachmentsAllowed() {
				logger.Warn().Str("field", name).Msg("submission included a field that is not acceptable and attachments are not allowed")
				i.recorder.FieldDropped(rc.ProcessKey)
				continue
			}
			entry.kind = attachmentEntry
		}

		if raw.HasContent() {
			data, err := readLimited(raw.Content, cls.MaxAttachmentSize())
			if err != nil {
				return nil, nil, &model.StorageError{Field: name, Err: err}
			}
			entry.hasContent = true
			entry.data = data
			entry.contentType = raw.ContentType
			if entry.contentType == "" {
				entry.contentType = defaultContentType
			}
		}
		plan = append(plan, entry)
	}
	return plan, action, nil
}

// storeContent writes every upload in plan, at most i.concurrency at a time.
// On failure every upload already written is deleted again.
func (i *Ingester) storeContent(ctx context.Context, plan []plannedEntry, rc RequestContext, logger zerolog.Logger) error {
	pending := 0
	for idx := range plan {
		if plan[idx].hasContent {
			pending++
		}
	}
	if pending == 0 {
		return nil
	}
	if i.store == nil {
		return &model.StorageError{Err: errors.New("no content store configured")}
	}

	var (
		mu        sync.Mutex
		committed []string
	)
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(i.concurrency)

	for idx := range plan {
		if !plan[idx].hasContent {
			continue
		}
		entry := &plan[idx]
		location := content.Location(rc.ProcessKey, i.newID())
		group.Go(func() error {
			stored, err := i.store.Save(gctx, content.Content{
				Location:    location,
				Filename:    entry.value,
				ContentType: entry.contentType,
				Data:        entry.data,
			})
			if err != nil {
				return &model.StorageError{Field: entry.name, Err: err}
			}
			mu.Lock()
			committed = append(committed, stored.Location)
			mu.Unlock()
			entry.stored = &stored
			i.recorder.ContentStored(rc.ProcessKey, stored.Length)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		i.rollback(context.WithoutCancel(ctx), committed, logger)
		return err
	}
	return nil
}

func (i *Ingester) rollback(ctx context.Context, locations []string, logger zerolog.Logger) {
	for _, location := range locations {
		if err := i.store.Delete(ctx, location); err != nil {
			logger.Error().Err(err).Str("location", location).Msg("remove content of failed submission")
		}
	}
}

// resolveUser normalises a user reference to the user's id when the identity
// provider knows it.
func (i *Ingester) resolveUser(ctx context.Context, value string, logger zerolog.Logger) string {
	if user, ok := i.identity.Lookup(ctx, value); ok {
		return user.ID
	}
	logger.Debug().Str("user", value).Msg("user reference not resolved")
	return value
}

// appendValue aggregates text values per name in first-arrival order. Values
// backed by stored content keep their own entry.
func appendValue(list []model.FormValue, index map[string]int, value model.FormValue) []model.FormValue {
	if value.Detail == nil {
		if idx, ok := index[value.Name]; ok {
			list[idx].Values = append(list[idx].Values, value.Values...)
			return list
		}
		index[value.Name] = len(list)
	}
	return append(list, value)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit < math.MaxInt64 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, &model.MaxSizeExceededError{MaxSize: limit}
	}
	return data, nil
}
