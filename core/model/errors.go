package model

import "fmt"

// ConfigurationError reports an unknown specification name, a missing
// required parameter or an unsupported solver configuration. It is fatal
// and is raised before any run starts.
type ConfigurationError struct {
	// Kind names what was being resolved, e.g. "reward_spec" or "parameter".
	Kind   string
	Name   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unknown %s: %q", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Name, e.Reason)
}
