package submission

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"sort"
)

// Entry is one raw (name, value) pair from a form post. Entries carrying
// Content are binary uploads; Value then holds the original filename.
type Entry struct {
	Name        string
	Value       string
	ContentType string
	Content     io.Reader
}

// HasContent reports whether the entry carries a binary payload.
func (e Entry) HasContent() bool {
	return e.Content != nil
}

// EntriesFromValues flattens url.Values into entries. Names are ordered
// alphabetically because url.Values does not keep arrival order; values of
// one name keep theirs.
func EntriesFromValues(values url.Values) []Entry {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Entry
	for _, name := range names {
		for _, value := range values[name] {
			out = append(out, Entry{Name: name, Value: value})
		}
	}
	return out
}

// EntriesFromMultipart converts a parsed multipart form: text values first
// (as EntriesFromValues), then files ordered by field name. The returned
// closer releases the opened file parts and must be called once ingestion has
// finished.
func EntriesFromMultipart(form *multipart.Form) ([]Entry, func() error, error) {
	noop := func() error { return nil }
	if form == nil {
		return nil, noop, nil
	}

	entries := EntriesFromValues(url.Values(form.Value))

	names := make([]string, 0, len(form.File))
	for name := range form.File {
		names = append(names, name)
	}
	sort.Strings(names)

	var opened []multipart.File
	closeAll := func() error {
		var first error
		for _, file := range opened {
			if err := file.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	for _, name := range names {
		for _, header := range form.File[name] {
			file, err := header.Open()
			if err != nil {
				_ = closeAll()
				return nil, noop, fmt.Errorf("submission: open upload %q: %w", header.Filename, err)
			}
			opened = append(opened, file)
			entries = append(entries, Entry{
				Name:        name,
				Value:       header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Content:     file,
			})
		}
	}
	return entries, closeAll, nil
}
