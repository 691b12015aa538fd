package plugin

import "fmt"

// ConfigurationError reports a malformed plugin registration.
type ConfigurationError struct {
	Plugin string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plugin %q: %s: %v", e.Plugin, e.Reason, e.Err)
	}
	return fmt.Sprintf("plugin %q: %s", e.Plugin, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
