package model

import "fmt"

// InputError reports an invoice or request value that a builder requires
// but did not get, or that violates an invariant.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// NewInputError creates a new input error
func NewInputError(field, message string) *InputError {
	return &InputError{
		Field:   field,
		Message: message,
	}
}

// MissingField reports an empty required field
func MissingField(field string) *InputError {
	return NewInputError(field, "required value is missing")
}

// Collaborator names used in CollaboratorError
const (
	CollaboratorSignature    = "signature"
	CollaboratorStore        = "store"
	CollaboratorTransmission = "transmission"
	CollaboratorSettings     = "settings"
)

// CollaboratorError wraps a failed call to an external collaborator
type CollaboratorError struct {
	Collaborator string
	Op           string
	Cause        error
}

func (e *CollaboratorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s failed: %v", e.Collaborator, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s %s failed", e.Collaborator, e.Op)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Cause
}

// NewCollaboratorError creates a new collaborator error
func NewCollaboratorError(collaborator, op string, cause error) *CollaboratorError {
	return &CollaboratorError{
		Collaborator: collaborator,
		Op:           op,
		Cause:        cause,
	}
}

// ConversionGap is a field the converter could not carry over to the
// target format. It is a warning, not an error.
type ConversionGap struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (g ConversionGap) String() string {
	return fmt.Sprintf("%s: %s", g.Field, g.Reason)
}
