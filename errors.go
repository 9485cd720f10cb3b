package slidescene

import "errors"

// Sentinel errors for import operations.
var (
	// ErrInvalidArchive is returned when the input cannot be opened as a
	// presentation package at all. It is the only error Import propagates.
	ErrInvalidArchive = errors.New("invalid presentation archive")

	// ErrMissingPart is returned when a referenced package part does not exist.
	ErrMissingPart = errors.New("missing package part")

	// ErrSlideFailed marks a slide that was replaced by a placeholder.
	ErrSlideFailed = errors.New("slide import failed")
)

// SlideError records why a slide was replaced by a placeholder.
type SlideError struct {
	Index int
	Part  string
	Err   error
}

func (e *SlideError) Error() string {
	return "slide " + e.Part + ": " + e.Err.Error()
}

func (e *SlideError) Unwrap() []error { return []error{ErrSlideFailed, e.Err} }
