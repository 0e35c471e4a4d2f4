package services

import (
	"errors"
	"strings"
)

// Markers classify failures. Every error built by Wrap matches exactly one
// of them with errors.Is.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

var hints = []struct {
	marker error
	text   string
}{
	{ErrConfiguration, "check the narrator config file"},
	{ErrNotFound, "verify the referenced file or binary exists"},
	{ErrValidation, "inspect the input for malformed data"},
	{ErrExternalTool, "run narrator doctor to check external tools"},
	{ErrTimeout, "retry once the external tool is responsive"},
}

// Failure is a classified error annotated with where it happened.
type Failure struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Cause     error
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(f.Marker.Error())
	b.WriteString(": ")
	wrote := false
	for _, part := range []string{f.Stage, f.Operation, f.Message} {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		if wrote {
			b.WriteString(": ")
		}
		b.WriteString(part)
		wrote = true
	}
	if !wrote {
		b.WriteString("service failure")
	}
	if f.Cause != nil {
		b.WriteString(": ")
		b.WriteString(f.Cause.Error())
	}
	return b.String()
}

func (f *Failure) Unwrap() []error {
	if f.Cause == nil {
		return []error{f.Marker}
	}
	return []error{f.Marker, f.Cause}
}

// Wrap classifies err under marker. A nil marker is treated as
// ErrTransient; err may be nil when the failure has no underlying cause.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &Failure{Marker: marker, Stage: stage, Operation: operation, Message: message, Cause: err}
}

// Hint returns a short operator-facing suggestion for a classified error.
func Hint(err error) string {
	if err == nil {
		return ""
	}
	for _, h := range hints {
		if errors.Is(err, h.marker) {
			return h.text
		}
	}
	return "retry the operation"
}
