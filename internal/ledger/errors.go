package ledger

import (
	"errors"
	"fmt"
)

// Op names a transition.
type Op string

const (
	OpPublish Op = "publish"
	OpAmend   Op = "amend"
	OpLookup  Op = "lookup"
	OpDerive  Op = "derive"
)

// ErrorCode categorizes transition failures.
type ErrorCode string

const (
	// ErrCodeAlreadyPublished: Publish on a key that already holds a record.
	ErrCodeAlreadyPublished ErrorCode = "ALREADY_PUBLISHED"

	// ErrCodeNotFound: Amend or Lookup on a key that holds no record.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeTesterLabelEmpty: empty tester label. Only raised when the
	// handler is built WithRequireTester.
	ErrCodeTesterLabelEmpty ErrorCode = "TESTER_LABEL_EMPTY"

	// ErrCodeBadOrigin: the request carries no authenticated caller.
	ErrCodeBadOrigin ErrorCode = "BAD_ORIGIN"
)

// TransitionError is returned when a transition is rejected.
// A rejected transition never mutates the store or emits an event.
type TransitionError struct {
	Code    ErrorCode
	Op      Op
	Key     Key // zero when the key was never derived (BadOrigin)
	Message string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	if e.Key != (Key{}) {
		return fmt.Sprintf("%s: %s: %s (key=%s)", e.Op, e.Code, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

// CodeOf returns the code of a wrapped *TransitionError, or "".
func CodeOf(err error) ErrorCode {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsAlreadyPublished reports whether err is an ALREADY_PUBLISHED rejection.
func IsAlreadyPublished(err error) bool { return CodeOf(err) == ErrCodeAlreadyPublished }

// IsNotFound reports whether err is a NOT_FOUND rejection.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsTesterLabelEmpty reports whether err is a TESTER_LABEL_EMPTY rejection.
func IsTesterLabelEmpty(err error) bool { return CodeOf(err) == ErrCodeTesterLabelEmpty }

// IsBadOrigin reports whether err is a BAD_ORIGIN rejection.
func IsBadOrigin(err error) bool { return CodeOf(err) == ErrCodeBadOrigin }

func newAlreadyPublished(op Op, key Key) *TransitionError {
	return &TransitionError{Code: ErrCodeAlreadyPublished, Op: op, Key: key, Message: "test already published"}
}

func newNotFound(op Op, key Key) *TransitionError {
	return &TransitionError{Code: ErrCodeNotFound, Op: op, Key: key, Message: "no such test"}
}

func newTesterLabelEmpty(op Op) *TransitionError {
	return &TransitionError{Code: ErrCodeTesterLabelEmpty, Op: op, Message: "tester label is empty"}
}

func newBadOrigin(op Op) *TransitionError {
	return &TransitionError{Code: ErrCodeBadOrigin, Op: op, Message: "request is not signed"}
}
