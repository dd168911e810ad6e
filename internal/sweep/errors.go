package sweep

import (
	"fmt"
)

// InvalidSpecError reports a malformed parameter spec or sweep request.
// It is raised before any invocation takes place.
type InvalidSpecError struct {
	Field  string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid sweep spec: %s", e.Reason)
	}
	return fmt.Sprintf("invalid sweep spec %s: %s", e.Field, e.Reason)
}

// EmptyGridError reports a parameter that expanded to no values
type EmptyGridError struct {
	Field string
}

func (e *EmptyGridError) Error() string {
	return fmt.Sprintf("parameter %s expanded to no values", e.Field)
}

// ConfigGenerationError reports a failed setup pre-step for one config type.
// The runs of that config type are skipped; other config types still run.
type ConfigGenerationError struct {
	GroupID    string
	ConfigType int
	Err        error
}

func (e *ConfigGenerationError) Error() string {
	return fmt.Sprintf("config generation failed for group %s config_type %d: %v", e.GroupID, e.ConfigType, e.Err)
}

func (e *ConfigGenerationError) Unwrap() error {
	return e.Err
}
