// Package engineerr implements the engine's error taxonomy with kind
// classification and structured context for callers.
package engineerr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure by the subsystem that raised it.
type Kind int

const (
	// KindGraphBuilding indicates a failure while assembling a graph from
	// raw events or a patient record.
	// Examples: empty entity identifier, missing event id.
	KindGraphBuilding Kind = iota

	// KindModelInference indicates a failure inside a forward pass.
	// Examples: feature dimension mismatch, non-finite model output.
	KindModelInference

	// KindConfiguration indicates an invalid or unsupported configuration.
	// Examples: unknown architecture name, non-positive hidden dimension.
	KindConfiguration
)

var kindNames = map[Kind]string{
	KindGraphBuilding:  "graph_building",
	KindModelInference: "model_inference",
	KindConfiguration:  "configuration",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// EngineError wraps an error with kind classification and the identifier
// of the input element that triggered it, when one exists.
type EngineError struct {
	Kind        Kind
	Stage       string
	OffendingID string
	Message     string
	Underlying  error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", e.Kind, e.Stage, e.Message)
	if e.OffendingID != "" {
		msg = fmt.Sprintf("%s (id=%s)", msg, e.OffendingID)
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is matches another EngineError by kind, so sentinel comparison with
// errors.Is works across wrapping.
func (e *EngineError) Is(target error) bool {
	var ee *EngineError
	if errors.As(target, &ee) {
		return e.Kind == ee.Kind
	}
	return false
}

// NewGraphBuildingError creates an EngineError for a graph-assembly failure.
func NewGraphBuildingError(stage, message string, underlying error) *EngineError {
	return &EngineError{
		Kind:       KindGraphBuilding,
		Stage:      stage,
		Message:    message,
		Underlying: underlying,
	}
}

// NewModelInferenceError creates an EngineError for a forward-pass failure.
func NewModelInferenceError(stage, message string, underlying error) *EngineError {
	return &EngineError{
		Kind:       KindModelInference,
		Stage:      stage,
		Message:    message,
		Underlying: underlying,
	}
}

// NewConfigurationError creates an EngineError for an invalid configuration.
func NewConfigurationError(stage, message string, underlying error) *EngineError {
	return &EngineError{
		Kind:       KindConfiguration,
		Stage:      stage,
		Message:    message,
		Underlying: underlying,
	}
}

// WithOffendingID records the external identifier of the element that
// triggered the error.
func (e *EngineError) WithOffendingID(id string) *EngineError {
	e.OffendingID = id
	return e
}

// GetKind extracts the Kind from an error. Unclassified errors raised
// during a scoring pass default to KindModelInference.
func GetKind(err error) Kind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindModelInference
}

// IsGraphBuilding reports whether err is classified as a graph-assembly
// failure.
func IsGraphBuilding(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Kind == KindGraphBuilding
}

// IsModelInference reports whether err is classified as a forward-pass
// failure.
func IsModelInference(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Kind == KindModelInference
}

// IsConfiguration reports whether err is classified as a configuration
// failure.
func IsConfiguration(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Kind == KindConfiguration
}

// Common sentinel errors for each kind.
var (
	// Graph-building errors
	ErrEmptyEntityID  = NewGraphBuildingError("validate", "empty entity identifier", nil)
	ErrEmptyEventID   = NewGraphBuildingError("validate", "empty event identifier", nil)
	ErrEmptyPatientID = NewGraphBuildingError("validate", "empty patient identifier", nil)

	// Model-inference errors
	ErrDimensionMismatch = NewModelInferenceError("forward", "feature dimension mismatch", nil)
	ErrNonFiniteOutput   = NewModelInferenceError("forward", "non-finite model output", nil)

	// Configuration errors
	ErrUnknownArchitecture = NewConfigurationError("validate", "unknown architecture", nil)
	ErrInvalidDimension    = NewConfigurationError("validate", "invalid dimension", nil)
)

// WrapWithKind wraps an error with a kind classification. Existing
// EngineErrors keep their original kind and offending id.
func WrapWithKind(kind Kind, stage, message string, err error) error {
	if err == nil {
		return nil
	}

	var ee *EngineError
	if errors.As(err, &ee) {
		return &EngineError{
			Kind:        ee.Kind,
			Stage:       stage,
			OffendingID: ee.OffendingID,
			Message:     message,
			Underlying:  err,
		}
	}

	return &EngineError{
		Kind:       kind,
		Stage:      stage,
		Message:    message,
		Underlying: err,
	}
}
