package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrToolNotFound         = errors.New("tool not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryExists       = errors.New("category already exists")
	ErrProjectNotFound      = errors.New("project not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrFileNotFound         = errors.New("file not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidModel         = errors.New("invalid model name")
	ErrCannotDeleteSelf     = errors.New("cannot delete own account")
	ErrSessionBusy          = errors.New("session is busy")
	ErrSessionClosed        = errors.New("session is closed")
	ErrNothingToRetry       = errors.New("nothing to retry")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrNoProviderConfigured = errors.New("no provider configured")
	ErrUnsupportedDocument  = errors.New("unsupported document type")
	ErrFileTooLarge         = errors.New("file too large")
)

// GenerationError is the terminal outcome of a gateway call once every
// candidate provider has been tried or none was configured.
type GenerationError struct {
	Attempted []ModelName
	Skipped   []ModelName
	// Cause is set when the caller's context ended before every candidate was tried.
	Cause error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed: %v", e.Cause)
	}
	if len(e.Attempted) == 0 {
		return "generation failed: no provider configured"
	}
	names := make([]string, len(e.Attempted))
	for i, n := range e.Attempted {
		names[i] = string(n)
	}
	return fmt.Sprintf("generation failed: all providers exhausted (%s)", strings.Join(names, ", "))
}

// Unconfigured reports whether the failure happened because no candidate had credentials.
func (e *GenerationError) Unconfigured() bool {
	return len(e.Attempted) == 0 && e.Cause == nil
}

func (e *GenerationError) Unwrap() error { return e.Cause }

func (e *GenerationError) Is(target error) bool {
	if target == ErrGenerationFailed {
		return true
	}
	return target == ErrNoProviderConfigured && e.Unconfigured()
}
