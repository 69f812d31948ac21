// Package tenant carries the school (tenant) a request acts on.
//
// The tenant travels with the request's context.Context, so it follows the
// request across goroutines and blocking calls and is never visible to other requests.
package tenant

import "context"

// Context identifies the tenant of one request. It is immutable once published.
type Context struct {
	SchoolID     string
	BranchID     string
	IsSuperAdmin bool
	UserID       string
}

// HasSchool reports whether a school is resolved for this context.
func (tc Context) HasSchool() bool {
	return tc.SchoolID != ""
}

// Permits reports whether records of `schoolID` are visible in this context.
func (tc Context) Permits(schoolID string) bool {
	return tc.IsSuperAdmin || (tc.SchoolID != "" && tc.SchoolID == schoolID)
}

type ctxKey struct{}

// WithContext returns a copy of parent in which `tc` is the current tenant.
func WithContext(parent context.Context, tc Context) context.Context {
	return context.WithValue(parent, ctxKey{}, tc)
}

// Current returns the tenant established by the nearest enclosing Run (or WithContext).
func Current(ctx context.Context) (Context, bool) {
	if ctx == nil {
		return Context{}, false
	}
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// Run establishes `tc` as the current tenant for the dynamic extent of `fn`.
// Work started by fn with the ctx it receives observes `tc` as well.
func Run(ctx context.Context, tc Context, fn func(ctx context.Context) error) error {
	return fn(WithContext(ctx, tc))
}

// SchoolID returns the current school, or "" if there is none.
func SchoolID(ctx context.Context) string {
	tc, _ := Current(ctx)
	return tc.SchoolID
}

// IsSuperAdmin reports whether the current tenant context bypasses isolation.
func IsSuperAdmin(ctx context.Context) bool {
	tc, _ := Current(ctx)
	return tc.IsSuperAdmin
}

// AsSystem returns a context acting as the platform itself (super-admin, no school).
// Used by flows that legitimately look across tenants: login, uniqueness checks, CLI commands.
func AsSystem(ctx context.Context) context.Context {
	return WithContext(ctx, Context{IsSuperAdmin: true})
}
