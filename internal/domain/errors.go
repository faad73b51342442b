package domain

import (
	"errors"
	"strings"
)

// Domain errors.
var (
	ErrNoPlan             = errors.New("no plan loaded (run 'planreview import' first)")
	ErrInvalidInput       = errors.New("invalid plan document")
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskNotInSprint    = errors.New("task is not in any sprint")
	ErrSprintNotFound     = errors.New("sprint not found")
	ErrEstimateOverflow   = errors.New("estimate totals are not finite")
	ErrApprovalBlocked    = errors.New("approval blocked by validation errors")
	ErrPersistFailed      = errors.New("failed to persist plan")
	ErrBlobNotFound       = errors.New("blob not found")
	ErrAlreadyInitialized = errors.New("planreview already initialized")
	ErrNotInitialized     = errors.New("planreview not initialized (run 'planreview init' first)")
	ErrUnknownBackend     = errors.New("unknown store backend")
	ErrConfigExists       = errors.New("config file already exists")
)

// ApprovalBlockedError carries the validation errors that prevented approval.
type ApprovalBlockedError struct {
	Errors []string
}

func (e *ApprovalBlockedError) Error() string {
	return ErrApprovalBlocked.Error() + ": " + strings.Join(e.Errors, "; ")
}

// Unwrap lets errors.Is match ErrApprovalBlocked.
func (e *ApprovalBlockedError) Unwrap() error {
	return ErrApprovalBlocked
}
