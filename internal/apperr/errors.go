package apperr

import "errors"

// ErrQueueEmpty is returned by a dequeue when no unprocessed post exists.
var ErrQueueEmpty = errors.New("queue empty")

// ErrNotFound is returned when a document does not exist in its index.
var ErrNotFound = errors.New("not found")

type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}
