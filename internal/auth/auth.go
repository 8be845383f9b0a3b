// Package auth carries the calling identity through request contexts and
// answers capability checks against it.
package auth

import (
	"context"
	"crypto/subtle"
	"strings"
)

// Permission names a capability checked by the service layer.
type Permission string

// PermissionAdmin is required for every correlation config operation.
const PermissionAdmin Permission = "apim:admin"

// Caller identifies who is invoking an operation and in which tenant.
type Caller struct {
	Username string `toml:"username" json:"username"`
	Tenant   string `toml:"tenant" json:"tenant,omitempty"`
}

// String renders the caller as user@tenant.
func (c Caller) String() string {
	if c.Tenant == "" {
		return c.Username
	}
	return c.Username + "@" + c.Tenant
}

type callerKey struct{}

// WithCaller returns a context carrying the caller.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx, if any.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// Authorizer decides whether a caller holds a permission.
type Authorizer interface {
	HasPermission(ctx context.Context, caller Caller, perm Permission) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, caller Caller, perm Permission) bool

func (f AuthorizerFunc) HasPermission(ctx context.Context, caller Caller, perm Permission) bool {
	return f(ctx, caller, perm)
}

// StaticAuthorizer grants PermissionAdmin to a fixed set of usernames.
// Usernames compare case-insensitively.
type StaticAuthorizer struct {
	admins map[string]struct{}
}

// NewStaticAuthorizer returns an authorizer for the given admin usernames.
func NewStaticAuthorizer(admins ...string) *StaticAuthorizer {
	a := &StaticAuthorizer{admins: make(map[string]struct{}, len(admins))}
	for _, name := range admins {
		if name = strings.TrimSpace(name); name != "" {
			a.admins[strings.ToLower(name)] = struct{}{}
		}
	}
	return a
}

func (a *StaticAuthorizer) HasPermission(_ context.Context, caller Caller, perm Permission) bool {
	if perm != PermissionAdmin || caller.Username == "" {
		return false
	}
	_, ok := a.admins[strings.ToLower(caller.Username)]
	return ok
}

// TokenTable maps bearer tokens to callers.
type TokenTable map[string]Caller

// Lookup returns the caller owning token. Every entry is compared in
// constant time.
func (t TokenTable) Lookup(token string) (Caller, bool) {
	var (
		found Caller
		ok    bool
	)
	for known, caller := range t {
		if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
			found, ok = caller, true
		}
	}
	return found, ok
}
