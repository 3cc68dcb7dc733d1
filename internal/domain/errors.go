package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAccumulatorClosed is returned when a chunk arrives after Finalize.
	ErrAccumulatorClosed = errors.New("accumulator closed")

	// ErrCacheMiss indicates no cached entry was found.
	ErrCacheMiss = errors.New("cache miss")

	// ErrProviderNotFound indicates no registered provider can serve a request.
	ErrProviderNotFound = errors.New("provider not found")
)

// FormatError reports a malformed input message.
type FormatError struct {
	Index  int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Index < 0 {
		return "invalid message: " + e.Reason
	}
	return fmt.Sprintf("invalid message at index %d: %s", e.Index, e.Reason)
}

// StreamInterruptedError reports a transport failure in the middle of a stream.
// Partial holds everything that was accumulated before the failure.
type StreamInterruptedError struct {
	Partial *Response
	Err     error
}

func (e *StreamInterruptedError) Error() string {
	return fmt.Sprintf("stream interrupted after %d content bytes: %v", len(e.PartialContent()), e.Err)
}

// PartialContent returns the answer text received before the failure, or ""
// when there is no partial response.
func (e *StreamInterruptedError) PartialContent() string {
	return e.Partial.contentOrEmpty()
}

func (e *StreamInterruptedError) Unwrap() error {
	return e.Err
}

// ConversionError reports a native response the converter cannot read.
type ConversionError struct {
	Provider string
	Reason   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: cannot convert response: %s", e.Provider, e.Reason)
}

func (r *Response) contentOrEmpty() string {
	if r == nil {
		return ""
	}
	return r.Content
}
