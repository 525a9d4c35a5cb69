package validator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCanceled is returned by validators that stopped because their context
// was cancelled or timed out.
var ErrCanceled = errors.New("validation canceled")

// ValidatorNotFoundError reports a check type with no registered validator.
type ValidatorNotFoundError struct {
	CheckType string
	Available []string
}

func (e *ValidatorNotFoundError) Error() string {
	return fmt.Sprintf("no validator registered for check type %q (available: %s)",
		e.CheckType, strings.Join(e.Available, ", "))
}

// ValidationExecutionError reports a check that failed to produce an outcome.
type ValidationExecutionError struct {
	Check string
	Err   error
}

func (e *ValidationExecutionError) Error() string {
	return fmt.Sprintf("check %s: %v", e.Check, e.Err)
}

func (e *ValidationExecutionError) Unwrap() error {
	return e.Err
}

// ParamError reports an invalid check parameter.
type ParamError struct {
	CheckType string
	Param     string
	Message   string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: parameter %q %s", e.CheckType, e.Param, e.Message)
}
