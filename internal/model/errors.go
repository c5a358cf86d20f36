package model

import (
	"errors"
	"fmt"
)

// ErrNoPredicates is returned when no type index predicates are configured
var ErrNoPredicates = errors.New("at least one type index predicate is required")

// ConfigError reports an invalid configuration value
type ConfigError struct {
	Field string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %q", e.Field, e.Value)
}
