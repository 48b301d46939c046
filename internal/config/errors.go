package config

import (
	"errors"
	"fmt"
)

// ErrUnknownSetting wraps decode failures caused by keys Config does not define.
var ErrUnknownSetting = errors.New("config: unknown setting")

// ValidationError reports an invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
