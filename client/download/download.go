// Package download streams HTTP response bodies to disk in fixed-size
// chunks with per-chunk progress reporting, optional checksum
// validation, and a bounded-concurrency queue for batches.
//
// The engine is deliberately conservative about partial transfers: a
// failure mid-stream leaves the partially written file on disk and
// reports the byte offset reached. Whether to delete or resume is the
// caller's decision; nothing here cleans up or retries.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultChunkSize is the fixed size of each streamed chunk, 1 MiB.
const DefaultChunkSize int64 = 1 << 20

// Task describes a single download. A Task is created per call and
// never reused.
type Task struct {
	// SourceURL is the direct download URL; the on-disk file name is
	// derived from it via [ResolveName].
	SourceURL string
	// Dir is the destination folder, created (with ancestors) before
	// any write.
	Dir string
	// ChunkSize overrides DefaultChunkSize when positive.
	ChunkSize int64
}

// ProgressFunc is invoked once per chunk with the size of the chunk
// just written and the running total.
type ProgressFunc func(chunkBytes, totalBytes int64)

// Handle streams body into the task's destination folder and returns
// the path of the written file. contentLength < 0 means unknown; when
// known, a short stream is reported as incomplete. The body is read in
// chunks of the task's chunk size, each appended in receipt order.
func Handle(ctx context.Context, body io.Reader, contentLength int64, task Task, logger *slog.Logger, optFns ...Option) (string, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return "", fmt.Errorf("applying option: %w", err)
		}
	}

	chunkSize := task.ChunkSize
	if opts.chunkSize > 0 {
		chunkSize = opts.chunkSize
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	name := FileName(task.SourceURL, logger)

	if err := os.MkdirAll(task.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating destination folder: %w", err)
	}

	destPath := filepath.Join(task.Dir, name)

	if opts.skipExisting {
		if _, err := os.Stat(destPath); err == nil {
			logger.Info("skipping existing file", "path", destPath)
			return destPath, nil
		}
	}

	file, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating destination file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing destination file", "path", destPath, "error", err)
		}
	}()

	body = &contextReader{ctx: ctx, r: body}

	buf := make([]byte, chunkSize)
	var total int64

	for {
		n, rerr := readChunk(body, buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return "", incomplete(destPath, total, werr)
			}

			if opts.checksum != nil {
				opts.checksum.Write(buf[:n])
			}

			total += int64(n)

			if opts.progress != nil {
				opts.progress(int64(n), total)
			}
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if errors.Is(rerr, context.Canceled) {
				return "", &Error{
					Err:    ErrCancelled,
					Detail: fmt.Sprintf("%s after %d bytes", destPath, total),
				}
			}

			return "", incomplete(destPath, total, rerr)
		}
	}

	if contentLength >= 0 && total != contentLength {
		return "", incomplete(destPath, total, fmt.Errorf("expected %d bytes", contentLength))
	}

	if err := opts.checksum.Verify(); err != nil {
		return "", err
	}

	if err := file.Sync(); err != nil {
		return "", fmt.Errorf("syncing destination file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing destination file: %w", err)
	}

	logger.Info("download complete", "path", destPath, "bytes", total)

	return destPath, nil
}

// readChunk fills buf from r, returning io.EOF once the stream ends.
// A final short read is not an error: the last chunk of a transfer is
// almost always smaller than the chunk size.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return n, io.EOF
	}

	return n, err
}

func incomplete(destPath string, offset int64, cause error) error {
	return &Error{
		Err:    ErrIncomplete,
		Detail: fmt.Sprintf("%s at byte %d: %v", destPath, offset, cause),
	}
}

// contextReader aborts reads, and with them the chunk loop, once the
// context ends. Cancellation lands on a chunk boundary, never mid-write.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
