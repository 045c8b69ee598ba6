package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoArticles marks a discovery that found nothing. It is a valid outcome, not a fault.
	ErrNoArticles = errors.New("no articles found")
	// ErrExtraction wraps per-URL download or parse failures.
	ErrExtraction = errors.New("article extraction failed")
	// ErrRunNotFound is returned by archives for unknown run ids.
	ErrRunNotFound = errors.New("run not found")
)

// CapabilityError reports a black-box backend that failed its startup probe.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s unavailable: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}
