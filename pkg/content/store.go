// Package content stores the binary payloads uploaded with submissions:
// attachments and file field values. Implementations are addressed by
// location, a slash separated path such as "/hr-onboarding/<uuid>".
package content

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no content exists at a location.
var ErrNotFound = errors.New("content: not found")

// DefaultNamespace is used for locations when a submission has no process key.
const DefaultNamespace = "submissions"

// Content is a stored payload and its metadata.
type Content struct {
	ID           string    `json:"id"`
	Location     string    `json:"location"`
	Filename     string    `json:"filename,omitempty"`
	ContentType  string    `json:"contentType,omitempty"`
	Length       int64     `json:"length"`
	LastModified time.Time `json:"lastModified"`
	Data         []byte    `json:"-"`
}

// Store persists content. Implementations must be safe for concurrent use.
type Store interface {
	// Save writes c, assigning an ID when empty, and returns the stored
	// metadata. Saving to an existing location replaces it.
	Save(ctx context.Context, c Content) (Content, error)
	// Fetch returns the content stored at location or ErrNotFound.
	Fetch(ctx context.Context, location string) (Content, error)
	// Delete removes the content at location. Missing content is not an error.
	Delete(ctx context.Context, location string) error
	// FindByLocationPattern returns every content whose location fully
	// matches the regular expression, ordered by location.
	FindByLocationPattern(ctx context.Context, pattern string) ([]Content, error)
}

// NewLocation returns a fresh location under the namespace, or under
// DefaultNamespace when namespace is empty.
func NewLocation(namespace string) string {
	return Location(namespace, uuid.NewString())
}

// Location joins namespace and id into "/<namespace>/<id>".
func Location(namespace, id string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return path.Join("/", namespace, id)
}

// prepare fills the derived metadata of c before it is stored.
func prepare(c Content, now time.Time) (Content, error) {
	if c.Location == "" {
		return Content{}, errors.New("content: location is required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Length = int64(len(c.Data))
	c.LastModified = now.UTC()
	return c, nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("content: invalid location pattern %q: %w", pattern, err)
	}
	return re, nil
}
