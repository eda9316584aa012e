// Package access carries the caller's authority into service calls.
// Mutating catalog operations take a Capability and reject callers without
// the admin grant before touching the store.
package access

import (
	"context"
	"fmt"

	"bookshelf/internal/apperr"
)

// ErrAdminRequired is returned by RequireAdmin for non-admin callers.
var ErrAdminRequired = fmt.Errorf("admin session required: %w", apperr.ErrUnauthorized)

type Capability struct {
	subject string
	admin   bool
}

// Anonymous is the capability of an unauthenticated visitor.
func Anonymous() Capability {
	return Capability{}
}

// Admin grants admin rights to subject (a session id or "cli").
func Admin(subject string) Capability {
	return Capability{subject: subject, admin: true}
}

func (c Capability) IsAdmin() bool   { return c.admin }
func (c Capability) Subject() string { return c.subject }

func (c Capability) RequireAdmin() error {
	if !c.admin {
		return ErrAdminRequired
	}
	return nil
}

type contextKey struct{}

func WithCapability(ctx context.Context, c Capability) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the capability stored by WithCapability, or Anonymous.
func FromContext(ctx context.Context) Capability {
	if c, ok := ctx.Value(contextKey{}).(Capability); ok {
		return c
	}
	return Anonymous()
}
