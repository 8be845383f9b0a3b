package model

import (
	"errors"
	"testing"
)

func TestPropertyAllowed(t *testing.T) {
	for _, tc := range []struct {
		component Component
		property  string
		want      bool
	}{
		{ComponentJDBC, PropertyDeniedThreads, true},
		{ComponentHTTP, PropertyDeniedThreads, false},
		{ComponentLDAP, PropertyDeniedThreads, false},
		{ComponentSynapse, PropertyDeniedThreads, false},
		{ComponentMethodCalls, PropertyDeniedThreads, false},
		{ComponentJDBC, "deniedthreads", false},
		{ComponentJDBC, "allowedThreads", false},
		{ComponentJDBC, "", false},
	} {
		if got := PropertyAllowed(tc.component, tc.property); got != tc.want {
			t.Errorf("PropertyAllowed(%q, %q) = %v, want %v", tc.component, tc.property, got, tc.want)
		}
	}
}

func TestValidateProperty(t *testing.T) {
	err := ValidateProperty(ComponentHTTP, CorrelationConfigProperty{Name: PropertyDeniedThreads, Value: []string{"x"}})
	var pns *PropertyNotSupportedError
	if !errors.As(err, &pns) {
		t.Fatalf("expected PropertyNotSupportedError, got %v", err)
	}
	if pns.Component != ComponentHTTP || pns.Property != PropertyDeniedThreads {
		t.Errorf("error names %s/%s", pns.Component, pns.Property)
	}

	if err := ValidateProperty(ComponentJDBC, CorrelationConfigProperty{Name: PropertyDeniedThreads, Value: []string{"PoolA", "PoolB"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateProperty(ComponentJDBC, CorrelationConfigProperty{Name: PropertyDeniedThreads}); err != nil {
		t.Fatalf("empty value list should be valid: %v", err)
	}
}

func TestValidatePropertyValue(t *testing.T) {
	for _, tc := range []struct {
		name    string
		values  []string
		wantErr bool
	}{
		{"Plain", []string{"PoolA", "Pool B"}, false},
		{"ContainsSeparator", []string{"PoolA,PoolB"}, true},
		{"EmptyElement", []string{"PoolA", ""}, true},
		{"Nil", nil, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePropertyValue(ComponentJDBC, PropertyDeniedThreads, tc.values)
			if tc.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidPropertyValue) {
				t.Errorf("expected ErrInvalidPropertyValue, got %v", err)
			}
		})
	}
}

func TestValidateComponents(t *testing.T) {
	ok := []CorrelationConfig{{Component: ComponentHTTP}, {Component: ComponentJDBC}}
	if err := ValidateComponents(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []CorrelationConfig{{Component: ComponentHTTP}, {Component: "kafka"}, {Component: "redis"}}
	err := ValidateComponents(bad)
	var ice *InvalidComponentError
	if !errors.As(err, &ice) {
		t.Fatalf("expected InvalidComponentError, got %v", err)
	}
	if ice.Name != "kafka" {
		t.Errorf("expected first invalid name kafka, got %s", ice.Name)
	}
}
