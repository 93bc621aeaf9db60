package cli

import (
	"errors"
	"fmt"

	"github.com/gcsguardian/guardian/internal/loader"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitPolicyFail   = 1 // policy file violated
	ExitInvalidInput = 2 // bad flags, missing scan id or token
	ExitRuntimeError = 3 // backend, auth or I/O failure
)

// ValidationError is returned for input the user has to fix before
// retrying.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ThresholdExceededError is returned when the results violate the policy
// file.
type ThresholdExceededError struct {
	Violations int
}

func (e *ThresholdExceededError) Error() string {
	return fmt.Sprintf("policy check failed with %d violation(s)", e.Violations)
}

// HandleError maps err to a process exit code.
func HandleError(err error) int {
	var (
		invalid  *ValidationError
		exceeded *ThresholdExceededError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &exceeded):
		return ExitPolicyFail
	case errors.As(err, &invalid),
		errors.Is(err, loader.ErrMissingScanID),
		errors.Is(err, loader.ErrMissingToken):
		return ExitInvalidInput
	default:
		return ExitRuntimeError
	}
}
