package service

import (
	"errors"
	"fmt"
)

// Card errors.
var (
	ErrMissingEntity         = errors.New("missing entity")
	ErrInvalidDropdownKind   = errors.New("invalid dropdown kind")
	ErrInvalidPresetButton   = errors.New("invalid preset button")
	ErrInvalidStepSize       = errors.New("invalid step size")
	ErrMalformedTargetEntity = errors.New("malformed target entity")
	ErrNotConfigured         = errors.New("card is not configured")
	ErrUnknownIntent         = errors.New("unknown intent")
	ErrNoTarget              = errors.New("no target temperature to adjust")
	ErrControlNotFound       = errors.New("control not found")
	ErrCardStopped           = errors.New("card event loop stopped")
)

// ConfigErrorKind is the category of a rejected card configuration.
type ConfigErrorKind string

const (
	KindMissingEntity       ConfigErrorKind = "MissingEntity"
	KindInvalidDropdownKind ConfigErrorKind = "InvalidDropdownKind"
	KindInvalidPresetButton ConfigErrorKind = "InvalidPresetButton"
	KindInvalidStepSize     ConfigErrorKind = "InvalidStepSize"
)

// ConfigError is returned when a card configuration fails validation.
// Index is the offending preset button position, or -1.
type ConfigError struct {
	Kind    ConfigErrorKind
	Field   string
	Index   int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: preset_buttons[%d]: %s", e.Kind, e.Index, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap maps the kind onto its sentinel so callers can use errors.Is.
func (e *ConfigError) Unwrap() error {
	switch e.Kind {
	case KindMissingEntity:
		return ErrMissingEntity
	case KindInvalidDropdownKind:
		return ErrInvalidDropdownKind
	case KindInvalidPresetButton:
		return ErrInvalidPresetButton
	case KindInvalidStepSize:
		return ErrInvalidStepSize
	default:
		return nil
	}
}

func newConfigError(kind ConfigErrorKind, field, msg string) *ConfigError {
	return &ConfigError{Kind: kind, Field: field, Index: -1, Message: msg}
}

func buttonError(i int, field, msg string) *ConfigError {
	return &ConfigError{Kind: KindInvalidPresetButton, Field: field, Index: i, Message: msg}
}
