// Package diagnostics renders override-consistency findings as diagnostic
// tuples, either as colored terminal text or as JSON.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Severity represents the severity level of a diagnostic
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Severity
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	switch str {
	case "info":
		*s = Info
	case "warning":
		*s = Warning
	case "error":
		*s = Error
	case "fatal":
		*s = Fatal
	default:
		*s = Error // Default to Error if unknown
	}
	return nil
}

// Message keys of the built-in override rules.
const (
	KeyAlteredCascading       = "OVERRIDING_METHOD_MUST_NOT_ALTER_CASCADING"
	KeyAlteredGroupConversion = "OVERRIDING_METHOD_MUST_NOT_ALTER_GROUP_CONVERSION"
	KeyParameterConstraints   = "INCORRECT_METHOD_PARAMETERS_OVERRIDING"
	KeyReturnValueCascading   = "INCORRECT_RETURN_VALUE_CASCADING"
)

var descriptions = map[string]string{
	KeyAlteredCascading:       "overriding method must not alter the cascading of %s",
	KeyAlteredGroupConversion: "overriding method must not alter the group conversions of %s",
	KeyParameterConstraints:   "parameter constraints must not be declared on a method overriding or parallel to %s",
	KeyReturnValueCascading:   "return value is already marked for cascaded validation in %s",
}

// Diagnostic is one finding: severity, an optional source location (always
// absent for override findings), the message key and its arguments.
type Diagnostic struct {
	Severity   Severity
	Location   *string
	MessageKey string
	Args       []string

	// Method is the qualified name of the method the finding is reported on.
	Method string
}

// TypeName returns the first message argument, the type the finding refers to.
func (d Diagnostic) TypeName() string {
	if len(d.Args) == 0 {
		return ""
	}
	return d.Args[0]
}

// Message returns a readable description of the finding.
func (d Diagnostic) Message() string {
	if format, ok := descriptions[d.MessageKey]; ok {
		return fmt.Sprintf(format, d.TypeName())
	}
	if d.TypeName() != "" {
		return d.MessageKey + ": " + d.TypeName()
	}
	return d.MessageKey
}

// IsError reports whether the diagnostic fails a check.
func (d Diagnostic) IsError() bool {
	return d.Severity >= Error
}

// IsWarning reports whether the diagnostic is a warning.
func (d Diagnostic) IsWarning() bool {
	return d.Severity == Warning
}

// MarshalJSON implements json.Marshaler
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Severity   Severity `json:"severity"`
		Location   *string  `json:"location"`
		MessageKey string   `json:"message_key"`
		TypeName   string   `json:"type_name"`
		Method     string   `json:"method,omitempty"`
		Message    string   `json:"message"`
	}{
		Severity:   d.Severity,
		Location:   d.Location,
		MessageKey: d.MessageKey,
		TypeName:   d.TypeName(),
		Method:     d.Method,
		Message:    d.Message(),
	})
}

// Sort orders diagnostics by method, message key and type name.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		if a.MessageKey != b.MessageKey {
			return a.MessageKey < b.MessageKey
		}
		return a.TypeName() < b.TypeName()
	})
}
