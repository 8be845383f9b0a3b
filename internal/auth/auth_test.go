package auth

import (
	"context"
	"testing"
)

func TestCallerContext(t *testing.T) {
	if _, ok := CallerFrom(context.Background()); ok {
		t.Fatal("empty context should carry no caller")
	}

	ctx := WithCaller(context.Background(), Caller{Username: "admin", Tenant: "carbon.super"})
	c, ok := CallerFrom(ctx)
	if !ok {
		t.Fatal("expected caller in context")
	}
	if c.String() != "admin@carbon.super" {
		t.Errorf("String() = %q", c.String())
	}
	if (Caller{Username: "bob"}).String() != "bob" {
		t.Error("caller without tenant should render as the username")
	}
}

func TestStaticAuthorizer(t *testing.T) {
	a := NewStaticAuthorizer("admin", " Ops ", "")
	ctx := context.Background()

	for _, tc := range []struct {
		caller Caller
		perm   Permission
		want   bool
	}{
		{Caller{Username: "admin"}, PermissionAdmin, true},
		{Caller{Username: "ADMIN"}, PermissionAdmin, true},
		{Caller{Username: "ops"}, PermissionAdmin, true},
		{Caller{Username: "bob"}, PermissionAdmin, false},
		{Caller{}, PermissionAdmin, false},
		{Caller{Username: "admin"}, Permission("apim:subscribe"), false},
	} {
		if got := a.HasPermission(ctx, tc.caller, tc.perm); got != tc.want {
			t.Errorf("HasPermission(%v, %s) = %v, want %v", tc.caller, tc.perm, got, tc.want)
		}
	}
}

func TestTokenTable_Lookup(t *testing.T) {
	tt := TokenTable{
		"s3cret":   {Username: "admin"},
		"readonly": {Username: "viewer"},
	}
	if c, ok := tt.Lookup("s3cret"); !ok || c.Username != "admin" {
		t.Errorf("Lookup(s3cret) = %v, %v", c, ok)
	}
	if _, ok := tt.Lookup("s3cre"); ok {
		t.Error("prefix of a token must not match")
	}
	if _, ok := tt.Lookup(""); ok {
		t.Error("empty token must not match")
	}
}

func TestAuthorizerFunc(t *testing.T) {
	var called bool
	a := AuthorizerFunc(func(_ context.Context, c Caller, p Permission) bool {
		called = true
		return c.Username == "root" && p == PermissionAdmin
	})
	if !a.HasPermission(context.Background(), Caller{Username: "root"}, PermissionAdmin) || !called {
		t.Fatal("AuthorizerFunc did not delegate")
	}
}
