package scraper

import (
	"errors"
	"fmt"
)

// NavigationError indicates a page failed to load within the configured
// timeout.
type NavigationError struct {
	URL string
	Err error
}

func (e NavigationError) Error() string {
	return fmt.Sprintf("navigation failed for %s: %v", e.URL, e.Err)
}

func (e NavigationError) Unwrap() error {
	return e.Err
}

// NoListingsError indicates no candidate listing-container selector matched
// any element after the load-and-stabilize phase.
type NoListingsError struct {
	URL string
}

func (e NoListingsError) Error() string {
	return fmt.Sprintf("no listing containers found on %s", e.URL)
}

// SessionInitError indicates the browser session could not be created.
// This is the only error class that aborts a whole batch.
type SessionInitError struct {
	Err error
}

func (e SessionInitError) Error() string {
	return fmt.Sprintf("session init: %v", e.Err)
}

func (e SessionInitError) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var nav NavigationError
	if errors.As(err, &nav) {
		return "navigation"
	}
	var none NoListingsError
	if errors.As(err, &none) {
		return "no_listings"
	}
	var session SessionInitError
	if errors.As(err, &session) {
		return "session_init"
	}
	return "other"
}
