package model

import "strings"

// ValueSeparator joins property values into their stored form.
const ValueSeparator = ","

// PropertyDeniedThreads lists thread-pool names excluded from correlation
// logging. Only the jdbc component accepts it.
const PropertyDeniedThreads = "deniedThreads"

// Enabled flag values written by seeding. Other values are stored verbatim.
const (
	EnabledTrue  = "true"
	EnabledFalse = "false"
)

// DefaultDeniedThreads are the platform thread pools jdbc skips by default.
var DefaultDeniedThreads = []string{
	"MessageDeliveryTaskThreadPool",
	"HumanTaskServer",
	"BPFLServer",
	"CarbonDeploymentSchedulerThread",
}

// CorrelationConfig is the correlation logging state of one component.
type CorrelationConfig struct {
	Component  Component                   `json:"name"`
	Enabled    string                      `json:"enabled"`
	Properties []CorrelationConfigProperty `json:"properties"`
}

// CorrelationConfigProperty is a component-scoped, multi-valued setting.
type CorrelationConfigProperty struct {
	Name  string   `json:"name"`
	Value []string `json:"value"`
}

// IsEnabled reports whether the stored flag reads as "true".
func (c CorrelationConfig) IsEnabled() bool {
	return strings.EqualFold(c.Enabled, EnabledTrue)
}

// Property returns the named property and whether it was present.
func (c CorrelationConfig) Property(name string) (CorrelationConfigProperty, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return CorrelationConfigProperty{}, false
}

// JoinValue encodes a value list into its stored column form.
func JoinValue(values []string) string {
	return strings.Join(values, ValueSeparator)
}

// SplitValue decodes a stored column back into a value list. An empty
// column decodes to an empty, non-nil list.
func SplitValue(stored string) []string {
	if stored == "" {
		return []string{}
	}
	return strings.Split(stored, ValueSeparator)
}

// DefaultConfigs returns the rows seeded into an empty store: every
// catalog component disabled, with jdbc carrying the default denied
// thread list.
func DefaultConfigs() []CorrelationConfig {
	configs := make([]CorrelationConfig, 0, len(catalog))
	for _, c := range catalog {
		cfg := CorrelationConfig{
			Component:  c,
			Enabled:    EnabledFalse,
			Properties: []CorrelationConfigProperty{},
		}
		if c == ComponentJDBC {
			threads := make([]string, len(DefaultDeniedThreads))
			copy(threads, DefaultDeniedThreads)
			cfg.Properties = append(cfg.Properties, CorrelationConfigProperty{
				Name:  PropertyDeniedThreads,
				Value: threads,
			})
		}
		configs = append(configs, cfg)
	}
	return configs
}
