// Package identity resolves the current submitter and user references.
package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Provider resolves identities for the ingester and the enrichment decorators.
type Provider interface {
	// CurrentUserID returns the id of the user making the request, or "" for
	// anonymous requests.
	CurrentUserID(ctx context.Context) string
	// Lookup resolves a user by id, visible id or email.
	Lookup(ctx context.Context, id string) (model.User, bool)
}

type principalKey struct{}

// WithPrincipal returns a context carrying the current user's id.
func WithPrincipal(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, principalKey{}, userID)
}

// PrincipalFrom returns the user id stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(principalKey{}).(string)
	return id
}

// Static is an in-memory Provider. The current user comes from the context
// principal. Lookups match id, visible id or email, case-insensitively for
// the latter two.
type Static struct {
	mu    sync.RWMutex
	users []model.User
}

// NewStatic creates a provider knowing the given users.
func NewStatic(users ...model.User) *Static {
	return &Static{users: append([]model.User(nil), users...)}
}

// Add registers another user.
func (s *Static) Add(user model.User) {
	s.mu.Lock()
	s.users = append(s.users, user)
	s.mu.Unlock()
}

func (s *Static) CurrentUserID(ctx context.Context) string {
	return PrincipalFrom(ctx)
}

func (s *Static) Lookup(_ context.Context, id string) (model.User, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.ID == id {
			return user, true
		}
	}
	for _, user := range s.users {
		if strings.EqualFold(user.VisibleID, id) || (user.Email != "" && strings.EqualFold(user.Email, id)) {
			return user, true
		}
	}
	return model.User{}, false
}

// Anonymous never knows anyone.
type Anonymous struct{}

func (Anonymous) CurrentUserID(ctx context.Context) string { return PrincipalFrom(ctx) }

func (Anonymous) Lookup(context.Context, string) (model.User, bool) { return model.User{}, false }
