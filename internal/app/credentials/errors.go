package credentials

import "errors"

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
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

const (
	CodeNotFound         = "REGISTRATION_NOT_FOUND"
	CodeGenerationFailed = "GENERATION_FAILED"
)

// ErrGenerationFailed is wrapped by every image synthesis failure.
var ErrGenerationFailed = errors.New("credential image generation failed")
