// Package metaerr defines the typed errors raised while building constraint
// metadata. Override-consistency findings are not errors and never appear here.
package metaerr

import (
	"errors"
	"fmt"
)

// Standard sentinel errors.
var (
	// ErrNotFound is returned when a descriptor names a member the type does not declare.
	ErrNotFound = errors.New("beanmeta: member not found")

	// ErrConfiguration is returned for inconsistent or duplicated configuration.
	ErrConfiguration = errors.New("beanmeta: invalid configuration")
)

// NotFoundError represents a lookup of a type member that does not exist.
type NotFoundError struct {
	kind   string // "type", "field", "method", "getter", "parameter"
	bean   string
	member string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.member == "" {
		return fmt.Sprintf("beanmeta: %s %s not found", e.kind, e.bean)
	}
	return fmt.Sprintf("beanmeta: %s does not contain the %s %q", e.bean, e.kind, e.member)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Kind returns the kind of member that was searched for.
func (e *NotFoundError) Kind() string { return e.kind }

// Bean returns the qualified name of the searched type.
func (e *NotFoundError) Bean() string { return e.bean }

// Member returns the member name, empty when a whole type was missing.
func (e *NotFoundError) Member() string { return e.member }

// NewNotFoundError returns a NotFoundError for a member of bean.
func NewNotFoundError(kind, bean, member string) *NotFoundError {
	return &NotFoundError{kind: kind, bean: bean, member: member}
}

// NewTypeNotFoundError returns a NotFoundError for an unknown type.
func NewTypeNotFoundError(name string) *NotFoundError {
	return &NotFoundError{kind: "type", bean: name}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConfigurationError represents configuration that cannot be honored, such as
// a member configured twice in one descriptor pass.
type ConfigurationError struct {
	Bean   string // Qualified type name
	Member string // Optional member name
	Reason string
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("beanmeta: %s.%s: %s", e.Bean, e.Member, e.Reason)
	}
	return fmt.Sprintf("beanmeta: %s: %s", e.Bean, e.Reason)
}

// Is reports whether the target error matches ConfigurationError.
func (e *ConfigurationError) Is(err error) bool {
	return err == ErrConfiguration
}

// NewConfigurationError returns a ConfigurationError with a formatted reason.
func NewConfigurationError(bean, member, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Bean: bean, Member: member, Reason: fmt.Sprintf(format, args...)}
}

// NewDefinedTwiceError reports a member configured more than once by the same descriptor.
func NewDefinedTwiceError(bean, member string) *ConfigurationError {
	return &ConfigurationError{
		Bean:   bean,
		Member: member,
		Reason: fmt.Sprintf("%s is defined twice in mapping for bean %s", member, bean),
	}
}

// IsConfiguration returns true if the error is a ConfigurationError.
func IsConfiguration(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e) || errors.Is(err, ErrConfiguration)
}
