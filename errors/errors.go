// Package errors provides standardized error handling patterns for the
// workflow core. It includes error classification, standard error variables,
// and helper functions for consistent error wrapping across the system.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorStructural represents programming/integration errors (wrong node
	// type, duplicate or non-monotonic ids, cyclic re-parenting). These are
	// never recovered locally.
	ErrorStructural ErrorClass = iota
	// ErrorConfig represents operator-facing domain errors (duplicate plugin
	// name, malformed selection pattern, dimensionality mismatch). The core
	// does not attempt automatic correction.
	ErrorConfig
	// ErrorLookup represents unknown-key errors (unknown plugin name, unknown
	// class, unregistered path). The message always names the missing key.
	ErrorLookup
	// ErrorTransient represents temporary failures (unavailable source frame)
	// that an external polling loop may retry. Nothing inside the core
	// retries automatically.
	ErrorTransient
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorStructural:
		return "structural"
	case ErrorConfig:
		return "config"
	case ErrorLookup:
		return "lookup"
	case ErrorTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Tree errors
	ErrWrongNodeType   = errors.New("node is not of the expected type")
	ErrDuplicateNodeID = errors.New("duplicate node id")
	ErrNonMonotonicID  = errors.New("node id below current id counter")
	ErrNodeNotFound    = errors.New("node id not found")
	ErrCyclicReparent  = errors.New("new parent is a descendant of the node")
	ErrMultipleRoots   = errors.New("operation would leave more than one root")
	ErrDeleteFlags     = errors.New("node has children: exactly one of recursive or keep_children must be set")
	ErrNoRoot          = errors.New("tree has no root node")

	// Plugin registry errors
	ErrDuplicatePluginName = errors.New("plugin name already registered")
	ErrUnknownPlugin       = errors.New("unknown plugin name")
	ErrUnknownClass        = errors.New("unknown plugin class")
	ErrUnknownPath         = errors.New("plugin path not registered")
	ErrNotConfirmed        = errors.New("operation requires explicit confirmation")
	ErrBasePlugin          = errors.New("plugin is a reusable base, not constructible")

	// Persistence errors
	ErrUnknownWorkflow = errors.New("unknown workflow name")

	// Execution errors
	ErrFrameUnavailable = errors.New("source frame unavailable")
	ErrShapeUndefined   = errors.New("output shape undefined")

	// Selection errors
	ErrPatternSyntax     = errors.New("malformed selection pattern")
	ErrDimensionCount    = errors.New("pattern count does not match dimension count")
	ErrDimensionMismatch = errors.New("selected dimensionality does not match target")
	ErrIndexOutOfRange   = errors.New("index outside dimension extent")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
	ErrUnknownKey    = errors.New("unknown configuration key")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsStructural checks if an error is a programming/integration error
func IsStructural(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorStructural
	}

	return errors.Is(err, ErrWrongNodeType) ||
		errors.Is(err, ErrDuplicateNodeID) ||
		errors.Is(err, ErrNonMonotonicID) ||
		errors.Is(err, ErrCyclicReparent)
}

// IsConfig checks if an error is an operator-facing domain error
func IsConfig(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorConfig
	}

	return errors.Is(err, ErrDuplicatePluginName) ||
		errors.Is(err, ErrPatternSyntax) ||
		errors.Is(err, ErrDimensionCount) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrMultipleRoots) ||
		errors.Is(err, ErrDeleteFlags) ||
		errors.Is(err, ErrNotConfirmed) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig)
}

// IsLookup checks if an error names a missing key
func IsLookup(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorLookup
	}

	return errors.Is(err, ErrUnknownPlugin) ||
		errors.Is(err, ErrUnknownClass) ||
		errors.Is(err, ErrUnknownPath) ||
		errors.Is(err, ErrUnknownWorkflow) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrUnknownKey)
}

// IsTransient checks if an error is temporary and may be retried by an
// external polling loop
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	return errors.Is(err, ErrFrameUnavailable)
}

// Classify returns the error class for an error. Unknown errors default to
// structural so they are never silently retried.
func Classify(err error) ErrorClass {
	switch {
	case IsTransient(err):
		return ErrorTransient
	case IsLookup(err):
		return ErrorLookup
	case IsConfig(err):
		return ErrorConfig
	default:
		return ErrorStructural
	}
}

// newClassified creates a new classified error
// This is an internal helper - use the Wrap* functions instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapStructural wraps an error as a structural error with context
func WrapStructural(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorStructural, wrappedErr, component, method, wrappedErr.Error())
}

// WrapConfig wraps an error as a configuration error with context
func WrapConfig(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorConfig, wrappedErr, component, method, wrappedErr.Error())
}

// WrapLookup wraps an error as a lookup error with context
func WrapLookup(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorLookup, wrappedErr, component, method, wrappedErr.Error())
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}
