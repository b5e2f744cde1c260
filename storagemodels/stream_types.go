package storagemodels

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// StreamResult represents a single document in a stream with metadata
type StreamResult[T any] struct {
	Item  T          // The decoded document
	Raw   bson.M     // Raw document as returned by the backend
	Error error      // Item-specific error, if any
	Meta  StreamMeta // Metadata about this item
}

// StreamMeta contains metadata about a streamed document
type StreamMeta struct {
	Index      int64     // Document index in stream (0-based)
	PageNumber int       // Backend page or batch number (1-based)
	Timestamp  time.Time // When the document was retrieved
}

// StreamOptions configures streaming behavior
type StreamOptions struct {
	BufferSize      int                  // Channel buffer size (default: 100)
	BatchSize       int32                // Documents per backend page (default: 100)
	ProgressHandler func(StreamProgress) // Optional progress callback
	ErrorHandler    func(error) bool     // Return true to continue, false to stop
}

// StreamProgress tracks streaming progress
type StreamProgress struct {
	ItemsProcessed int64     // Total documents processed
	PagesProcessed int       // Total pages processed
	Errors         []error   // Accumulated non-fatal errors
	StartTime      time.Time // When streaming started
	CurrentRate    float64   // Documents per second
}

// StreamOption is a functional option for configuring streaming
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize: 100,
		BatchSize:  100,
	}
}

// ApplyStreamOptions folds opts over the defaults.
func ApplyStreamOptions(opts ...StreamOption) StreamOptions {
	options := DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.BufferSize = size
	}
}

// WithBatchSize sets the backend page size
func WithBatchSize(size int32) StreamOption {
	return func(opts *StreamOptions) {
		opts.BatchSize = size
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(opts *StreamOptions) {
		opts.ProgressHandler = handler
	}
}

// WithErrorHandler sets an error handler that can decide whether to continue
func WithErrorHandler(handler func(error) bool) StreamOption {
	return func(opts *StreamOptions) {
		opts.ErrorHandler = handler
	}
}

// NewProgress builds a progress snapshot and fills in the current rate.
func NewProgress(items int64, pages int, errs []error, start time.Time) StreamProgress {
	progress := StreamProgress{
		ItemsProcessed: items,
		PagesProcessed: pages,
		Errors:         errs,
		StartTime:      start,
	}
	if elapsed := time.Since(start).Seconds(); elapsed > 0 {
		progress.CurrentRate = float64(items) / elapsed
	}
	return progress
}
