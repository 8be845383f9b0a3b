package model

// Component identifies a subsystem whose correlation logging can be toggled.
// The set of components is closed; see Components.
type Component string

const (
	ComponentHTTP        Component = "http"
	ComponentLDAP        Component = "ldap"
	ComponentSynapse     Component = "synapse"
	ComponentJDBC        Component = "jdbc"
	ComponentMethodCalls Component = "method-calls"
)

// catalog is kept in the order components are seeded and listed.
var catalog = []Component{
	ComponentHTTP,
	ComponentLDAP,
	ComponentSynapse,
	ComponentJDBC,
	ComponentMethodCalls,
}

// Components returns the component catalog in its canonical order.
func Components() []Component {
	out := make([]Component, len(catalog))
	copy(out, catalog)
	return out
}

// ValidComponentNames returns the catalog as plain strings.
func ValidComponentNames() []string {
	out := make([]string, len(catalog))
	for i, c := range catalog {
		out[i] = string(c)
	}
	return out
}

// String returns the string representation of the component.
func (c Component) String() string {
	return string(c)
}

// IsValid reports whether the component belongs to the catalog.
func (c Component) IsValid() bool {
	switch c {
	case ComponentHTTP, ComponentLDAP, ComponentSynapse, ComponentJDBC, ComponentMethodCalls:
		return true
	}
	return false
}

// Ordinal returns the catalog position of c, or len(catalog) for unknown
// components so they sort last.
func (c Component) Ordinal() int {
	for i, known := range catalog {
		if known == c {
			return i
		}
	}
	return len(catalog)
}
