package download

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete reports a transfer that stopped before the full
	// content arrived. The partial file stays on disk; the wrapping
	// [Error] carries the byte offset reached.
	ErrIncomplete = errors.New("download incomplete")

	// ErrCancelled reports a transfer stopped by context cancellation.
	ErrCancelled = errors.New("download cancelled")

	// ErrChecksumMismatch reports a completed transfer whose digest did
	// not match the expected value.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrQueueShutdown reports a download submitted after the queue was
	// shut down.
	ErrQueueShutdown = errors.New("queue shut down")
)

// Error pairs a sentinel with the transfer detail, typically the
// destination path and byte offset.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}
