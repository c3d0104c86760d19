package config

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports an unusable local configuration or rule document
// location. Study, Transformation and Field are set when known.
type ConfigError struct {
	Study          string
	Transformation string
	Field          string
	Message        string
	Err            error
}

func (e *ConfigError) Error() string {
	var loc []string
	if e.Study != "" {
		loc = append(loc, fmt.Sprintf("study %q", e.Study))
	}
	if e.Transformation != "" {
		loc = append(loc, fmt.Sprintf("transformation %q", e.Transformation))
	}
	if e.Field != "" {
		loc = append(loc, e.Field)
	}
	msg := "config: "
	if len(loc) > 0 {
		msg += strings.Join(loc, ", ") + ": "
	}
	msg += e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
