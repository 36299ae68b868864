package commitment

import (
	"errors"
	"fmt"
)

// InvalidProofLengthError is returned when a proof's step count does not
// match ceil(log2(totalLeaves)). It is detected before any hashing.
type InvalidProofLengthError struct {
	Got  int
	Want int
}

func (e InvalidProofLengthError) Error() string {
	return fmt.Sprintf("invalid proof length: got %d steps, expected %d", e.Got, e.Want)
}

// IsInvalidProofLengthError returns whether err is an InvalidProofLengthError.
func IsInvalidProofLengthError(err error) bool {
	var target InvalidProofLengthError
	return errors.As(err, &target)
}

// MalformedProofError is returned when the proof structure itself is broken
// (as opposed to a well-formed proof that simply fails verification).
type MalformedProofError struct {
	err error
}

// NewMalformedProofErrorf constructs a new MalformedProofError.
func NewMalformedProofErrorf(msg string, args ...interface{}) *MalformedProofError {
	return &MalformedProofError{err: fmt.Errorf(msg, args...)}
}

func (e MalformedProofError) Error() string {
	return fmt.Sprintf("malformed proof, %s", e.err.Error())
}

// Unwrap unwraps the error.
func (e MalformedProofError) Unwrap() error {
	return e.err
}

// IsMalformedProofError returns whether err is a MalformedProofError.
func IsMalformedProofError(err error) bool {
	var target *MalformedProofError
	return errors.As(err, &target)
}
