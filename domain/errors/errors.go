// Package errors provides the domain error taxonomy.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/CryZe/lasr-compiler/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// ErrBroken is returned by every invocation after a fatal startup or
// bootstrap failure.
var ErrBroken = stdErrors.New("runtime is broken")

// DetailedError is implemented by error types that can describe themselves
// as an ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// AssemblyKind classifies assembly failures.
type AssemblyKind string

// Assembly failure kinds.
const (
	ScriptTooLarge  AssemblyKind = "script_too_large"
	InvalidEncoding AssemblyKind = "invalid_encoding"
	TemplateCorrupt AssemblyKind = "template_corrupt"
)

// AssemblyError reports why an artifact could not be produced.
type AssemblyError struct {
	Err  error
	Kind AssemblyKind
	// Size and Limit are set for ScriptTooLarge.
	Size  int
	Limit int
	// Offset is the first invalid byte for InvalidEncoding.
	Offset int
}

func (e *AssemblyError) Error() string {
	switch e.Kind {
	case ScriptTooLarge:
		return fmt.Sprintf("script is %d bytes, region holds at most %d", e.Size, e.Limit)
	case InvalidEncoding:
		return fmt.Sprintf("script is not valid UTF-8 (first bad byte at offset %d)", e.Offset)
	}
	if e.Err != nil {
		return fmt.Sprintf("template is corrupt: %v", e.Err)
	}
	return "template is corrupt"
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// Is matches another AssemblyError of the same kind, so callers can write
// errors.Is(err, &AssemblyError{Kind: ScriptTooLarge}).
func (e *AssemblyError) Is(target error) bool {
	t, ok := target.(*AssemblyError)
	return ok && t.Kind == e.Kind
}

// ToErrorDetail implements DetailedError.
func (e *AssemblyError) ToErrorDetail() *entities.ErrorDetail {
	d := &entities.ErrorDetail{Message: e.Error(), Type: "assembly", Code: string(e.Kind), Fatal: true}
	if e.Kind == ScriptTooLarge {
		d.Details = map[string]any{"size": e.Size, "limit": e.Limit}
	}
	return d
}

// ScriptLoadError reports a script that could not be brought up: a syntax
// error, a failing top-level chunk, a missing update callback or a failing
// startup callback.
type ScriptLoadError struct {
	Err   error
	Stage string // "region", "parse", "run", "resolve", "startup"
}

func (e *ScriptLoadError) Error() string {
	return fmt.Sprintf("script load failed during %s: %v", e.Stage, e.Err)
}

func (e *ScriptLoadError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ScriptLoadError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "script", Code: e.Stage, Fatal: true}
}

// CallbackError reports a lifecycle callback that raised.
type CallbackError struct {
	Err      error
	Callback string
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("callback %s failed: %v", e.Callback, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *CallbackError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "callback", Code: e.Callback}
}

// HostBridgeError reports a bridge call with arguments of the wrong kind or
// a host primitive that failed. The bridge resolves these to absent values.
type HostBridgeError struct {
	Err      error
	Function string
	Arg      int // 1-based argument position, 0 when not argument related
}

func (e *HostBridgeError) Error() string {
	if e.Arg > 0 {
		return fmt.Sprintf("%s: bad argument #%d: %v", e.Function, e.Arg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Function, e.Err)
}

func (e *HostBridgeError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *HostBridgeError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "bridge", Code: e.Function}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}
