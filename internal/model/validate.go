package model

import "strings"

// PropertyAllowed reports whether component accepts the named property.
// Only jdbc has a property today: deniedThreads.
func PropertyAllowed(component Component, property string) bool {
	return property == PropertyDeniedThreads && component == ComponentJDBC
}

// ValidateProperty checks a single property against the component rule
// and the value encoding rule. It returns a *PropertyNotSupportedError or
// *InvalidPropertyValueError, or nil.
func ValidateProperty(component Component, p CorrelationConfigProperty) error {
	if !PropertyAllowed(component, p.Name) {
		return &PropertyNotSupportedError{Component: component, Property: p.Name}
	}
	return ValidatePropertyValue(component, p.Name, p.Value)
}

// ValidatePropertyValue rejects value elements that would not survive the
// separator-joined storage format.
func ValidatePropertyValue(component Component, property string, values []string) error {
	for _, v := range values {
		switch {
		case v == "":
			return &InvalidPropertyValueError{Component: component, Property: property, Value: v, Reason: "must not be empty"}
		case strings.Contains(v, ValueSeparator):
			return &InvalidPropertyValueError{Component: component, Property: property, Value: v, Reason: "must not contain " + `"` + ValueSeparator + `"`}
		}
	}
	return nil
}

// ValidateComponents returns an *InvalidComponentError for the first
// config whose component is outside the catalog.
func ValidateComponents(configs []CorrelationConfig) error {
	for _, c := range configs {
		if !c.Component.IsValid() {
			return &InvalidComponentError{Name: string(c.Component)}
		}
	}
	return nil
}
