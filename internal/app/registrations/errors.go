package registrations

import "errors"

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Error codes returned by this package.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidSubmission = "INVALID_SUBMISSION"
	CodeNotFound          = "REGISTRATION_NOT_FOUND"
	CodeDeliveryFailed    = "DELIVERY_FAILED"
	CodeCodeCollision     = "CODE_COLLISION"
)

// ErrDeliveryFailed is wrapped by the DELIVERY_FAILED error so callers can match it with errors.Is.
var ErrDeliveryFailed = errors.New("confirmation delivery failed")

func validationError(fe FieldErrors) *Error {
	details := make(map[string]any, len(fe))
	for field, e := range fe {
		details[field] = map[string]any{"message": e.Message}
	}
	return &Error{Status: 422, Code: CodeValidation, Message: "invalid registration", Details: details, Err: fe}
}
