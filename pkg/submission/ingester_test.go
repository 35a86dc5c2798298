package submission_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/content"
	"github.com/goliatone/go-formflow/pkg/identity"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/submission"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	var n int64
	return func() string {
		return fmt.Sprintf("id-%d", atomic.AddInt64(&n, 1))
	}
}

func hrScreen() *model.Screen {
	return &model.Screen{
		ID: "request",
		Sections: []model.Section{{
			Fields: []model.Field{
				{Name: "employeeName", Type: model.FieldTypeText},
				{Name: "internalStatus", Type: model.FieldTypeText, Restricted: true},
				{Name: "supervisor", Type: model.FieldTypePerson},
				{Name: "resume", Type: model.FieldTypeFile},
				{Name: "TestField", Type: model.FieldTypeText},
			},
		}},
		Buttons: []model.Button{
			{Name: "actionButton", Value: "Submit", Action: model.ActionComplete},
			{Name: "actionButton", Value: "Save", Action: model.ActionSave},
		},
	}
}

func newIngester(store content.Store, options ...submission.IngesterOption) *submission.Ingester {
	defaults := []submission.IngesterOption{
		submission.WithClock(func() time.Time { return fixedNow }),
		submission.WithIDGenerator(sequentialIDs()),
	}
	return submission.NewIngester(store, append(defaults, options...)...)
}

func mustClassify(t *testing.T, screen *model.Screen, options ...submission.Option) *submission.Classification {
	t.Helper()
	cls, err := submission.NewClassification(screen, options...)
	if err != nil {
		t.Fatalf("NewClassification() error = %v", err)
	}
	return cls
}

func TestIngestClassifiesEntries(t *testing.T) {
	t.Parallel()

	cls := mustClassify(t, hrScreen())
	entries := []submission.Entry{
		{Name: "actionButton", Value: "Submit"},
		{Name: "employeeName", Value: "Joe"},
		{Name: "internalStatus", Value: "x"},
		{Name: "randomUnknown", Value: "y"},
	}

	ctx := identity.WithPrincipal(context.Background(), "u1")
	got, err := newIngester(content.NewMemoryStore()).Ingest(ctx, entries, cls, submission.RequestContext{
		ProcessKey: "hr",
		RequestID:  "req-1",
		TaskID:     "task-1",
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	complete := model.ActionComplete
	want := &model.Submission{
		ID:             "id-1",
		ProcessKey:     "hr",
		RequestID:      "req-1",
		TaskID:         "task-1",
		SubmittedAt:    fixedNow,
		SubmitterID:    "u1",
		FormData:       []model.FormValue{{Name: "employeeName", Values: []string{"Joe"}}},
		RestrictedData: []model.FormValue{{Name: "internalStatus", Values: []string{"x"}}},
		Action:         &complete,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestUnknownButtonValueIsMisconfigured(t *testing.T) {
	t.Parallel()

	store := content.NewMemoryStore()
	cls := mustClassify(t, hrScreen())
	entries := []submission.Entry{
		{Name: "resume", Value: "cv.pdf", ContentType: "application/pdf", Content: strings.NewReader("pdf")},
		{Name: "actionButton", Value: "Launch"},
	}

	got, err := newIngester(store).Ingest(context.Background(), entries, cls, submission.RequestContext{ProcessKey: "hr"})
	if !errors.Is(err, model.ErrMisconfigured) {
		t.Fatalf("Ingest() error = %v, want misconfiguration", err)
	}
	if got != nil {
		t.Fatalf("expected no partial submission, got %+v", got)
	}
	if store.Len() != 0 {
		t.Fatalf("expected no stored content, have %d items", store.Len())
	}
}

func TestIngestFirstButtonWins(t *testing.T) {
	t.Parallel()

	cls := mustClassify(t, hrScreen())
	entries := []submission.Entry{
		{Name: "actionButton", Value: "Save"},
		{Name: "actionButton", Value: "Submit"},
	}

	got, err := newIngester(nil).Ingest(context.Background(), entries, cls, submission.RequestContext{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if got.Action == nil || *got.Action != model.ActionSave {
		t.Fatalf("Action = %v, want save", got.Action)
	}
}

func TestIngestAggregatesValuesInArrivalOrder(t *testing.T) {
	t.Parallel()

	cls := mustClassify(t, hrScreen())
	entries := []submission.Entry{
		{Name: "TestField", Value: "1"},
		{Name: "employeeName", Value: "Joe"},
		{Name: "TestField", Value: "2"},
		{Name: "TestField", Value: "3"},
	}

	got, err := newIngester(nil).Ingest(context.Background(), entries, cls, submission.RequestContext{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	want := []model.FormValue{
		{Name: "TestField", Values: []string{"1", "2", "3"}},
		{Name: "employeeName", Values: []string{"Joe"}},
	}
	if diff := cmp.Diff(want, got.FormData); diff != "" {
		t.Fatalf("form data mismatch (-want +got):\n%s", diff)
	}
	if got.Action != nil {
		t.Fatalf("expected no action, got %v", *got.Action)
	}
}

func TestIngestStoresUploadsAndAttachments(t *testing.T) {
	t.Parallel()

	store := content.NewMemoryStore()
	cls := mustClassify(t, hrScreen(), submission.WithAttachments(true))
	entries := []submission.Entry{
		{Name: "resume", Value: "cv.pdf", ContentType: "application/pdf", Content: strings.NewReader("%PDF")},
		{Name: "comment", Value: "see attached"},
		{Name: "scan", Value: "scan.png", ContentType: "image/png", Content: strings.NewReader("png")},
	}

	ctx := identity.WithPrincipal(context.Background(), "u1")
	got, err := newIngester(store).Ingest(ctx, entries, cls, submission.RequestContext{ProcessKey: "hr"})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	wantData := []model.FormValue{{
		Name:   "resume",
		Values: []string{"cv.pdf"},
		Detail: &model.ValueDetail{Location: "/hr/id-1", ContentType: "application/pdf"},
	}}
	if diff := cmp.Diff(wantData, got.FormData); diff != "" {
		t.Fatalf("form data mismatch (-want +got):\n%s", diff)
	}

	wantAttachments := []model.Attachment{
		{Name: "comment", Description: "see attached", ContentType: "text/plain", UserID: "u1", ProcessKey: "hr"},
		{Name: "scan", Description: "scan.png", ContentType: "image/png", Location: "/hr/id-2", UserID: "u1", ProcessKey: "hr"},
	}
	if diff := cmp.Diff(wantAttachments, got.Attachments); diff != "" {
		t.Fatalf("attachments mismatch (-want +got):\n%s", diff)
	}

	stored, err := store.Fetch(context.Background(), "/hr/id-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(stored.Data) != "%PDF" || stored.Filename != "cv.pdf" {
		t.Fatalf("unexpected stored content: %+v", stored)
	}
}

func TestIngestDefaultsNamespaceWithoutProcessKey(t *testing.T) {
	t.Parallel()

	cls := mustClassify(t, hrScreen())
	entries := []submission.Entry{{Name: "resume", Value: "cv.pdf", Content: strings.NewReader("x")}}

	got, err := newIngester(content.NewMemoryStore()).Ingest(context.Background(), entries, cls, submission.RequestContext{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	detail := got.FormData[0].Detail
	if detail == nil || detail.Location != "/submissions/id-1" || detail.ContentType != "application/octet-stream" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestIngestOversizeUploadFails(t *testing.T) {
	t.Parallel()

	store := content.NewMemoryStore()
	cls := mustClassify(t, hrScreen(), submission.WithAttachments(true), submission.WithMaxAttachmentSize(4))
	entries := []submission.Entry{
		{Name: "resume", Value: "small.txt", Content: strings.NewReader("1234")},
		{Name: "big", Value: "big.bin", Content: strings.NewReader("12345")},
	}

	_, err := newIngester(store).Ingest(context.Background(), entries, cls, submission.RequestContext{ProcessKey: "hr"})
	var sizeErr *model.MaxSizeExceededError
	if !errors.As(err, &sizeErr) || sizeErr.MaxSize != 4 {
		t.Fatalf("Ingest() error = %v, want MaxSizeExceededError", err)
	}
	var storageErr *model.StorageError
	if !errors.As(err, &storageErr) || storageErr.Field != "big" {
		t.Fatalf("expected storage error for field big, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected nothing stored, have %d items", store.Len())
	}
}

type failingStore struct {
	*content.MemoryStore
	failOn string
}

func (s *failingStore) Save(ctx context.Context, c content.Content) (content.Content, error) {
	if c.Filename == s.failOn {
		return content.Content{}, errors.New("disk full")
	}
	return s.MemoryStore.Save(ctx, c)
}

func TestIngestStorageFailureRollsBack(t *testing.T) {
	t.Parallel()

	store := &failingStore{MemoryStore: content.NewMemoryStore(), failOn: "b.txt"}
	cls := mustClassify(t, hrScreen(), submission.WithAttachments(true))
	entries := []submission.Entry{
		{Name: "resume", Value: "a.txt", Content: strings.NewReader("a")},
		{Name: "other", Value: "b.txt", Content: strings.NewReader("b")},
	}

	got, err := newIngester(store).Ingest(context.Background(), entries, cls, submission.RequestContext{ProcessKey: "hr"})
	var storageErr *model.StorageError
	if !errors.As(err, &storageErr) || storageErr.Field != "other" {
		t.Fatalf("Ingest() error = %v, want storage error for other", err)
	}
	if got != nil {
		t.Fatalf("expected no submission, got %+v", got)
	}
	if store.Len() != 0 {
		t.Fatalf("expected stored content to be removed, have %d items", store.Len())
	}
}

type slowStore struct {
	*content.MemoryStore
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (s *slowStore) Save(ctx context.Context, c content.Content) (content.Content, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.maxSeen {
		s.maxSeen = s.active
	}
	s.mu.Unlock()

	// Earlier entries finish later so completion order differs from input.
	delay := time.Duration(10-int(c.Data[0]-'0')) * time.Millisecond
	time.Sleep(delay)

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	return s.MemoryStore.Save(ctx, c)
}

func TestIngestConcurrentStoragePreservesOrder(t *testing.T) {
	t.Parallel()

	store := &slowStore{MemoryStore: content.NewMemoryStore()}
	cls := mustClassify(t, hrScreen(), submission.WithAttachments(true))

	var entries []submission.Entry
	for idx := 0; idx < 6; idx++ {
		entries = append(entries, submission.Entry{
			Name:    fmt.Sprintf("file%d", idx),
			Value:   fmt.Sprintf("f%d.txt", idx),
			Content: strings.NewReader(fmt.Sprint(idx)),
		})
	}

	got, err := newIngester(store, submission.WithStorageConcurrency(3)).
		Ingest(context.Background(), entries, cls, submission.RequestContext{ProcessKey: "hr"})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	var names []string
	for _, attachment := range got.Attachments {
		names = append(names, attachment.Name)
		if attachment.Location == "" {
			t.Fatalf("attachment %s has no location", attachment.Name)
		}
	}
	want := []string{"file0", "file1", "file2", "file3", "file4", "file5"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("attachment order mismatch (-want +got):\n%s", diff)
	}
	if store.maxSeen > 3 {
		t.Fatalf("storage concurrency exceeded limit: %d", store.maxSeen)
	}
	if store.Len() != 6 {
		t.Fatalf("expected 6 stored items, have %d", store.Len())
	}
}

func TestIngestSanitizesAndResolvesUsers(t *testing.T) {
	t.Parallel()

	provider := identity.NewStatic(model.User{ID: "u42", VisibleID: "boss", DisplayName: "The Boss"})
	cls := mustClassify(t, hrScreen())
	entries := []submission.Entry{
		{Name: "employeeName", Value: "<b>Joe</b><script>alert(1)</script>"},
		{Name: "supervisor", Value: "boss"},
	}

	got, err := newIngester(nil, submission.WithIdentity(provider)).
		Ingest(context.Background(), entries, cls, submission.RequestContext{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	want := []model.FormValue{
		{Name: "employeeName", Values: []string{"Joe"}},
		{Name: "supervisor", Values: []string{"u42"}, UserReference: true},
	}
	if diff := cmp.Diff(want, got.FormData); diff != "" {
		t.Fatalf("form data mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestKeepsPlainTextIntact(t *testing.T) {
	t.Parallel()

	screen := hrScreen()
	screen.Buttons = append(screen.Buttons, model.Button{Name: "actionButton", Value: "Save & Close", Action: model.ActionSave})
	cls := mustClassify(t, screen)
	entries := []submission.Entry{
		{Name: "actionButton", Value: "Save & Close"},
		{Name: "employeeName", Value: "Smith & Sons"},
		{Name: "TestField", Value: "O'Brien <i>\"quoted\"</i>"},
	}

	got, err := newIngester(nil).Ingest(context.Background(), entries, cls, submission.RequestContext{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if got.Action == nil || *got.Action != model.ActionSave {
		t.Fatalf("Action = %v, want save", got.Action)
	}
	want := []model.FormValue{
		{Name: "employeeName", Values: []string{"Smith & Sons"}},
		{Name: "TestField", Values: []string{"O'Brien \"quoted\""}},
	}
	if diff := cmp.Diff(want, got.FormData); diff != "" {
		t.Fatalf("form data mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestUnboundedAttachmentLimitStoresContent(t *testing.T) {
	t.Parallel()

	store := content.NewMemoryStore()
	cls := mustClassify(t, hrScreen(), submission.WithMaxAttachmentSize(math.MaxInt64))
	entries := []submission.Entry{{Name: "resume", Value: "cv.pdf", Content: strings.NewReader("PDFDATA")}}

	if _, err := newIngester(store).Ingest(context.Background(), entries, cls, submission.RequestContext{ProcessKey: "hr"}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	stored, err := store.Fetch(context.Background(), "/hr/id-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(stored.Data) != "PDFDATA" {
		t.Fatalf("stored data = %q, want PDFDATA", stored.Data)
	}
}

type countingRecorder struct {
	mu       sync.Mutex
	ingested []string
	dropped  int
	bytes    int64
}

func (r *countingRecorder) SubmissionIngested(_, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingested = append(r.ingested, action)
}

func (r *countingRecorder) FieldDropped(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped++
}

func (r *countingRecorder) ContentStored(_ string, n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bytes += n
}

func TestIngestRecordsMetrics(t *testing.T) {
	t.Parallel()

	recorder := &countingRecorder{}
	cls := mustClassify(t, hrScreen())
	entries := []submission.Entry{
		{Name: "actionButton", Value: "Submit"},
		{Name: "unknown", Value: "x"},
		{Name: "resume", Value: "cv.txt", Content: strings.NewReader("12345")},
	}

	_, err := newIngester(content.NewMemoryStore(), submission.WithRecorder(recorder)).
		Ingest(context.Background(), entries, cls, submission.RequestContext{ProcessKey: "hr"})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if diff := cmp.Diff([]string{"complete"}, recorder.ingested); diff != "" {
		t.Fatalf("ingested mismatch (-want +got):\n%s", diff)
	}
	if recorder.dropped != 1 || recorder.bytes != 5 {
		t.Fatalf("dropped = %d, bytes = %d", recorder.dropped, recorder.bytes)
	}
}

func TestIngestRequiresClassification(t *testing.T) {
	t.Parallel()

	_, err := newIngester(nil).Ingest(context.Background(), nil, nil, submission.RequestContext{ProcessKey: "hr"})
	if !errors.Is(err, model.ErrMisconfigured) {
		t.Fatalf("Ingest() error = %v, want misconfiguration", err)
	}
}

func TestEntriesFromValues(t *testing.T) {
	t.Parallel()

	values := url.Values{"b": {"2", "3"}, "a": {"1"}}
	want := []submission.Entry{
		{Name: "a", Value: "1"},
		{Name: "b", Value: "2"},
		{Name: "b", Value: "3"},
	}
	if diff := cmp.Diff(want, submission.EntriesFromValues(values)); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestEntriesFromMultipart(t *testing.T) {
	t.Parallel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("employeeName", "Joe"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := writer.CreateFormFile("resume", "cv.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("resume body")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	entries, closeFiles, err := submission.EntriesFromMultipart(form)
	if err != nil {
		t.Fatalf("EntriesFromMultipart() error = %v", err)
	}
	t.Cleanup(func() { _ = closeFiles() })

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "employeeName" || entries[0].HasContent() {
		t.Fatalf("unexpected text entry: %+v", entries[0])
	}
	file := entries[1]
	if file.Name != "resume" || file.Value != "cv.txt" || !file.HasContent() {
		t.Fatalf("unexpected file entry: %+v", file)
	}
	if file.ContentType != "application/octet-stream" {
		t.Fatalf("ContentType = %q", file.ContentType)
	}

	cls := mustClassify(t, hrScreen())
	got, err := newIngester(content.NewMemoryStore()).Ingest(context.Background(), entries, cls, submission.RequestContext{ProcessKey: "hr"})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(got.FormData) != 2 || got.FormData[1].Detail == nil {
		t.Fatalf("expected stored resume value, got %+v", got.FormData)
	}
}
