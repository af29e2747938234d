package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Sentinel causes carried by FieldError.
var (
	ErrRequired   = errors.New("required field is empty")
	ErrOutOfRange = errors.New("value out of range")
	ErrNotAllowed = errors.New("value not allowed")
)

// FieldError reports one invalid field of a configuration section. Field is
// empty for errors merged from elsewhere.
type FieldError struct {
	Section string
	Field   string
	Err     error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", e.Section, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ConfigValidator checks a configuration section field by field and keeps
// every failure.
type ConfigValidator struct {
	section string
	errs    []error
}

// NewConfigValidator creates a validator whose errors are reported under
// section.
func NewConfigValidator(section string) *ConfigValidator {
	return &ConfigValidator{section: section}
}

func (cv *ConfigValidator) fail(field string, err error) *ConfigValidator {
	cv.errs = append(cv.errs, &FieldError{Section: cv.section, Field: field, Err: err})
	return cv
}

// Required validates that a string field is not empty.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if strings.TrimSpace(value) == "" {
		return cv.fail(field, ErrRequired)
	}
	return cv
}

// RangeInt validates that an int field is within [lo, hi].
func (cv *ConfigValidator) RangeInt(field string, value, lo, hi int) *ConfigValidator {
	if value < lo || value > hi {
		return cv.fail(field, fmt.Errorf("%w: %d is not within [%d, %d]", ErrOutOfRange, value, lo, hi))
	}
	return cv
}

// NonNegative validates that an int field is >= 0.
func (cv *ConfigValidator) NonNegative(field string, value int) *ConfigValidator {
	if value < 0 {
		return cv.fail(field, fmt.Errorf("%w: %d is negative", ErrOutOfRange, value))
	}
	return cv
}

// OneOf validates that a string field is one of the allowed values.
func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	if !slices.Contains(allowed, value) {
		return cv.fail(field, fmt.Errorf("%w: %q, want one of %s", ErrNotAllowed, value, strings.Join(allowed, ", ")))
	}
	return cv
}

// Custom records the error returned by fn, if any.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		return cv.fail(field, err)
	}
	return cv
}

// When runs validations only if condition holds.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

// Merge adds errors produced elsewhere, such as by Struct. Joined errors are
// kept as separate entries.
func (cv *ConfigValidator) Merge(err error) *ConfigValidator {
	if err == nil {
		return cv
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			cv.Merge(e)
		}
		return cv
	}
	return cv.fail("", err)
}

// HasErrors reports whether any check failed.
func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errs) > 0
}

// Errors returns every failure as a *FieldError.
func (cv *ConfigValidator) Errors() []error {
	return cv.errs
}

// Validate returns every failure joined, or nil.
func (cv *ConfigValidator) Validate() error {
	return errors.Join(cv.errs...)
}

// DefaultOr returns value unless it is the zero value of T.
func DefaultOr[T comparable](value, defaultValue T) T {
	var zero T
	if value == zero {
		return defaultValue
	}
	return value
}
