package transcribe

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrDuplicateID = errors.New("transcribe: duplicate transcription identifier")
	ErrTimeout     = errors.New("transcribe: timeout expired")
	ErrCanceled    = errors.New("transcribe: transcription canceled")
	ErrClosed      = errors.New("transcribe: manager closed")
)

// RequestError wraps a failure delivered to a subscription handler with
// the identifier it belongs to.
type RequestError struct {
	ID  int64
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("transcribe: id=%d: %v", e.ID, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
