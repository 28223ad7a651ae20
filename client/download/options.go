package download

import (
	"errors"
	"hash"
)

// Option is a functional option applied per download call.
type Option func(*options) error

type options struct {
	chunkSize    int64
	progress     ProgressFunc
	checksum     *checksumVerifier
	skipExisting bool
	queue        *Queue
}

// WithChunkSize overrides [DefaultChunkSize] for this download.
func WithChunkSize(size int64) Option {
	return func(o *options) error {
		if size <= 0 {
			return errors.New("chunk size must be positive")
		}
		o.chunkSize = size
		return nil
	}
}

// WithProgress registers fn to be called after every written chunk
// with the chunk size and the running total. fn runs on the download
// goroutine; it must not block.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) error {
		if fn == nil {
			return errors.New("progress func must not be nil")
		}
		o.progress = fn
		return nil
	}
}

// WithChecksum verifies the completed file's digest against the
// expected hex string using h. A mismatch fails the download but
// leaves the file on disk for inspection.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(o *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}
		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}
		o.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithSkipExisting returns the destination path without transferring
// anything when a file of the resolved name already exists.
func WithSkipExisting() Option {
	return func(o *options) error {
		o.skipExisting = true
		return nil
	}
}

// WithBatch bounds queue concurrency for async downloads. Pass it on
// the first [Async] call of a batch; maxConcurrent <= 0 means
// unbounded.
func WithBatch(maxConcurrent int) Option {
	return func(o *options) error {
		if o.queue != nil {
			return errors.New("batch already configured")
		}
		o.queue = NewQueue(maxConcurrent)
		return nil
	}
}
