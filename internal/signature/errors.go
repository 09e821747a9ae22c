package signature

import "fmt"

// Error codes for signature embedding and retrieval
const (
	ErrCodeMalformedDocument = "MALFORMED_DOCUMENT"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeMissingScope      = "MISSING_SCOPE"
	ErrCodeDeviceUnavailable = "DEVICE_UNAVAILABLE"
	ErrCodeIncompleteRecord  = "INCOMPLETE_RECORD"
)

// SignatureError represents a signature embedding or retrieval failure
type SignatureError struct {
	Code    string
	Field   string
	Message string
	Cause   error
}

func (e *SignatureError) Error() string {
	if e.Field != "" && e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Field, e.Message, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SignatureError) Unwrap() error {
	return e.Cause
}

// NewSignatureError creates a new signature error
func NewSignatureError(code, field, message string, cause error) *SignatureError {
	return &SignatureError{
		Code:    code,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ErrMalformedDocument returns error when the document cannot be re-parsed
func ErrMalformedDocument(cause error) *SignatureError {
	return NewSignatureError(ErrCodeMalformedDocument, "document", "document cannot be parsed", cause)
}

// ErrUnsupportedFormat returns error for an unknown root element
func ErrUnsupportedFormat(root string) *SignatureError {
	return NewSignatureError(ErrCodeUnsupportedFormat, "", fmt.Sprintf("unsupported document root: %s", root), nil)
}

// ErrMissingScope returns error when the element that receives the block is absent
func ErrMissingScope(element string) *SignatureError {
	return NewSignatureError(ErrCodeMissingScope, element, "element not found", nil)
}

// ErrDeviceUnavailable returns error when the signing service cannot be reached
func ErrDeviceUnavailable(cause error) *SignatureError {
	return NewSignatureError(ErrCodeDeviceUnavailable, "", "signing device unavailable", cause)
}

// ErrIncompleteRecord returns error when the device returned a record without field
func ErrIncompleteRecord(field string) *SignatureError {
	return NewSignatureError(ErrCodeIncompleteRecord, field, "missing in signature record", nil)
}
