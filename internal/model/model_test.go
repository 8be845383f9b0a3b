package model

import (
	"errors"
	"reflect"
	"testing"
)

func TestComponent_IsValid(t *testing.T) {
	for _, tc := range []struct {
		c    Component
		want bool
	}{
		{ComponentHTTP, true},
		{ComponentLDAP, true},
		{ComponentSynapse, true},
		{ComponentJDBC, true},
		{ComponentMethodCalls, true},
		{Component(""), false},
		{Component("JDBC"), false},
		{Component("kafka"), false},
	} {
		if got := tc.c.IsValid(); got != tc.want {
			t.Errorf("Component(%q).IsValid() = %v, want %v", tc.c, got, tc.want)
		}
	}
}

func TestComponents_Order(t *testing.T) {
	want := []string{"http", "ldap", "synapse", "jdbc", "method-calls"}
	if got := ValidComponentNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ValidComponentNames() = %v, want %v", got, want)
	}
	for i, c := range Components() {
		if c.Ordinal() != i {
			t.Errorf("%s.Ordinal() = %d, want %d", c, c.Ordinal(), i)
		}
	}
	if got := Component("bogus").Ordinal(); got != len(want) {
		t.Errorf("unknown Ordinal() = %d, want %d", got, len(want))
	}

	// Mutating the returned slice must not affect the catalog.
	cs := Components()
	cs[0] = "mutated"
	if Components()[0] != ComponentHTTP {
		t.Fatal("Components() exposed the catalog slice")
	}
}

func TestSplitJoinValue(t *testing.T) {
	for _, tc := range []struct {
		values []string
		stored string
	}{
		{[]string{"PoolA", "PoolB"}, "PoolA,PoolB"},
		{[]string{"single"}, "single"},
		{[]string{}, ""},
	} {
		if got := JoinValue(tc.values); got != tc.stored {
			t.Errorf("JoinValue(%v) = %q, want %q", tc.values, got, tc.stored)
		}
		if got := SplitValue(tc.stored); !reflect.DeepEqual(got, tc.values) {
			t.Errorf("SplitValue(%q) = %#v, want %#v", tc.stored, got, tc.values)
		}
	}
}

func TestDefaultConfigs(t *testing.T) {
	defaults := DefaultConfigs()
	if len(defaults) != 5 {
		t.Fatalf("expected 5 default configs, got %d", len(defaults))
	}
	for i, cfg := range defaults {
		if cfg.Component != Components()[i] {
			t.Errorf("defaults[%d].Component = %s, want %s", i, cfg.Component, Components()[i])
		}
		if cfg.Enabled != EnabledFalse || cfg.IsEnabled() {
			t.Errorf("%s should be disabled, got %q", cfg.Component, cfg.Enabled)
		}
		if cfg.Component == ComponentJDBC {
			p, ok := cfg.Property(PropertyDeniedThreads)
			if !ok {
				t.Fatal("jdbc default is missing deniedThreads")
			}
			if !reflect.DeepEqual(p.Value, DefaultDeniedThreads) {
				t.Errorf("deniedThreads = %v, want %v", p.Value, DefaultDeniedThreads)
			}
			continue
		}
		if len(cfg.Properties) != 0 {
			t.Errorf("%s should have no properties, got %v", cfg.Component, cfg.Properties)
		}
	}

	// Defaults must not share the package-level slice.
	defaults[3].Properties[0].Value[0] = "changed"
	if DefaultDeniedThreads[0] == "changed" {
		t.Fatal("DefaultConfigs() aliased DefaultDeniedThreads")
	}
}

func TestErrorClassification(t *testing.T) {
	for _, tc := range []struct {
		name       string
		err        error
		sentinel   error
		validation bool
	}{
		{"PermissionDenied", &PermissionDeniedError{User: "bob", Permission: "apim:admin"}, ErrPermissionDenied, false},
		{"InvalidComponent", &InvalidComponentError{Name: "kafka"}, ErrInvalidComponent, true},
		{"PropertyNotSupported", &PropertyNotSupportedError{Component: ComponentHTTP, Property: "x"}, ErrPropertyNotSupported, true},
		{"InvalidValue", &InvalidPropertyValueError{Component: ComponentJDBC, Property: "p", Value: "a,b"}, ErrInvalidPropertyValue, true},
		{"Persistence", &PersistenceError{Op: "get", Err: errors.New("boom")}, ErrPersistence, false},
		{"Notify", &NotifyError{Err: errors.New("boom")}, ErrNotify, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tc.err, tc.sentinel)
			}
			if got := IsValidationError(tc.err); got != tc.validation {
				t.Errorf("IsValidationError = %v, want %v", got, tc.validation)
			}
		})
	}

	cause := errors.New("connection reset")
	pe := &PersistenceError{Op: "update correlation configs", Err: cause}
	if !errors.Is(pe, cause) {
		t.Error("PersistenceError should unwrap to its cause")
	}
	if errors.Is(pe, ErrNotify) {
		t.Error("PersistenceError must not match ErrNotify")
	}
}
