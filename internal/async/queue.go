package async

import (
	"context"
	"errors"
	"time"
)

// ErrQueueClosed is returned by Enqueue once Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one stored receipt image waiting to be processed.
type Job struct {
	// Path is the stored image on disk.
	Path string
	// Filename is Path's name inside the upload directory.
	Filename    string
	SubmittedAt time.Time
	RequestID   string
}

// Handler processes a single job.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
