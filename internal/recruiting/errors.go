package recruiting

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks every failure caught before a request is sent.
	ErrValidation = errors.New("validation failed")

	ErrMissingID           = errors.New("required id is missing")
	ErrInvalidID           = errors.New("id is not a valid uuid")
	ErrUnsupportedFileType = errors.New("unsupported resume file type")
	ErrFileTooLarge        = errors.New("resume file exceeds size limit")
	ErrEmptyFile           = errors.New("resume file is empty")
	ErrInvalidTimeFormat   = errors.New("invalid scheduled time format")
	ErrScheduledInPast     = errors.New("scheduled time must be in the future")
	ErrRatingRequired      = errors.New("rating is required for completed interviews")
	ErrFeedbackRequired    = errors.New("feedback is required for completed interviews")

	// ErrMalformedResponse marks a 2xx response whose body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response body")

	// ErrCandidateNotFound is returned when a resume upload targets an unknown candidate.
	ErrCandidateNotFound = errors.New("candidate does not exist")
)

// ValidationError is a client-side rejection. No request was made.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func invalid(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Op         string
	StatusCode int
	// Message is the backend "detail" when present, otherwise a generic text for the status.
	Message string
	// FromServer reports whether Message came from the response body.
	FromServer bool
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// TransportError means no response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage returns the text that should be shown to a person for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}

	var aerr *APIError
	if errors.As(err, &aerr) {
		return aerr.Message
	}

	var terr *TransportError
	if errors.As(err, &terr) {
		return fmt.Sprintf("网络错误：%v", terr.Err)
	}

	return err.Error()
}
