package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrReadOnly           = errors.New("store is read-only")
	ErrScrapeFailed       = errors.New("scrape failed")
	ErrUpstreamOverloaded = errors.New("upstream overloaded")
	ErrRegionNotFound     = errors.New("region not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
)

// ScrapeFailedError is returned when no usable ticket data could be fetched
// for an event. It matches ErrScrapeFailed with errors.Is.
type ScrapeFailedError struct {
	EventID string
	Cause   error
}

func (e *ScrapeFailedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("scrape failed for event %s", e.EventID)
	}
	return fmt.Sprintf("scrape failed for event %s: %v", e.EventID, e.Cause)
}

func (e *ScrapeFailedError) Is(target error) bool {
	return target == ErrScrapeFailed
}

func (e *ScrapeFailedError) Unwrap() error {
	return e.Cause
}

// UpstreamError is a non-2xx answer or transport failure from the
// ticketing platform. StatusCode is zero for transport failures.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		if e.Message != "" {
			return fmt.Sprintf("upstream request failed: %s: %v", e.Message, e.Err)
		}
		return fmt.Sprintf("upstream request failed: %v", e.Err)
	}
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Transient reports whether the request may succeed when retried.
func (e *UpstreamError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500 || e.StatusCode == 429
}
