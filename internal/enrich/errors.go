package enrich

import "fmt"

// ConfigurationError reports that a run cannot start with the current
// settings. No rows are touched when it is returned.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("enrich: configuration: %s", e.Reason)
}
