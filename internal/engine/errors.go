package engine

import (
	"errors"
	"fmt"
)

// ErrRenderPending is returned by a component whose output depends on a
// resource that has not settled yet. The engine parks the binding in the
// suspended set and retries it on a later wave instead of committing.
var ErrRenderPending = errors.New("engine: render pending")

// RuntimeError represents an error detected by the engine itself.
//
// Runtime errors include:
//   - Hook shape violation: a different hook kind at a given position
//   - Hook overflow: a new hook registered after the sequence was frozen
//   - Duplicate key: the same key twice in one reconciliation pass
//   - Callback rejected: the host backend refused a scheduling request
//   - Unmounted: an update was requested for a destroyed binding
//   - Value mismatch: a binding was handed a value of the wrong kind
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Token identifies the affected component binding, when known.
	Token string

	// HookIndex is the hook position for hook errors, -1 otherwise.
	HookIndex int

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeHookShape indicates a different hook kind was found at a
	// position than on the previous render. Always conditional or
	// out-of-order hook usage; never tolerated.
	ErrCodeHookShape RuntimeErrorCode = "HOOK_SHAPE"

	// ErrCodeHookOverflow indicates a hook was registered after the
	// instance's hook sequence was finalized.
	ErrCodeHookOverflow RuntimeErrorCode = "HOOK_OVERFLOW"

	// ErrCodeDuplicateKey indicates the same key appeared twice in one
	// keyed reconciliation pass.
	ErrCodeDuplicateKey RuntimeErrorCode = "DUPLICATE_KEY"

	// ErrCodeCallbackRejected indicates the host backend refused a
	// scheduling request.
	ErrCodeCallbackRejected RuntimeErrorCode = "CALLBACK_REJECTED"

	// ErrCodeUnmounted indicates an update was requested for a binding
	// that was already unmounted.
	ErrCodeUnmounted RuntimeErrorCode = "UNMOUNTED"

	// ErrCodeValueMismatch indicates a binding received a value of a kind
	// it cannot represent.
	ErrCodeValueMismatch RuntimeErrorCode = "VALUE_MISMATCH"

	// ErrCodeUnresolvedValue indicates no resolver accepted a rendered
	// value.
	ErrCodeUnresolvedValue RuntimeErrorCode = "UNRESOLVED_VALUE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	switch {
	case e.Token != "" && e.HookIndex >= 0:
		return fmt.Sprintf("%s: %s (binding=%s, hook=%d)", e.Code, e.Message, e.Token, e.HookIndex)
	case e.Token != "":
		return fmt.Sprintf("%s: %s (binding=%s)", e.Code, e.Message, e.Token)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error { return e.Err }

// hasCode reports whether err is (or wraps) a RuntimeError with the code.
func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsHookShapeError returns true for hook shape and overflow violations.
func IsHookShapeError(err error) bool {
	return hasCode(err, ErrCodeHookShape) || hasCode(err, ErrCodeHookOverflow)
}

// IsDuplicateKeyError returns true for duplicate-key reconciliation errors.
func IsDuplicateKeyError(err error) bool { return hasCode(err, ErrCodeDuplicateKey) }

// IsUnmountedError returns true if the error reports an update against an
// unmounted binding.
func IsUnmountedError(err error) bool { return hasCode(err, ErrCodeUnmounted) }

// IsCallbackRejectedError returns true if the host refused a scheduling
// request.
func IsCallbackRejectedError(err error) bool { return hasCode(err, ErrCodeCallbackRejected) }

func newHookShapeError(token string, index int, want, got string) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeHookShape,
		Message:   fmt.Sprintf("hook kind changed between renders: expected %s, got %s", want, got),
		Token:     token,
		HookIndex: index,
	}
}

func newHookOverflowError(token string, index int, got string) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeHookOverflow,
		Message:   fmt.Sprintf("%s hook registered after the hook sequence was finalized", got),
		Token:     token,
		HookIndex: index,
	}
}

func newUnmountedError(token string) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeUnmounted,
		Message:   "update requested for unmounted binding",
		Token:     token,
		HookIndex: -1,
	}
}

func newCallbackRejectedError(token string, cause error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeCallbackRejected,
		Message:   "host backend rejected scheduling request",
		Token:     token,
		HookIndex: -1,
		Err:       cause,
	}
}

// NewValueMismatchError reports that a binding received a value of a kind
// it cannot represent. Leaf bindings return it from Bind to make the engine
// replace them with a freshly resolved binding.
func NewValueMismatchError(want string, value any) *RuntimeError {
	return newValueMismatchError(want, value)
}

func newValueMismatchError(want string, value any) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeValueMismatch,
		Message:   fmt.Sprintf("binding expects %s, got %T", want, value),
		HookIndex: -1,
	}
}
