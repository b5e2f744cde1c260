package storagemodels

import (
	"testing"
	"time"
)

func TestApplyStreamOptions(t *testing.T) {
	var called bool
	options := ApplyStreamOptions(
		WithBufferSize(5),
		WithBatchSize(2),
		WithProgressHandler(func(StreamProgress) { called = true }),
		WithErrorHandler(func(error) bool { return true }),
	)

	if options.BufferSize != 5 || options.BatchSize != 2 {
		t.Fatalf("Options not applied: %+v", options)
	}
	options.ProgressHandler(StreamProgress{})
	if !called {
		t.Fatal("Progress handler not set")
	}
	if !options.ErrorHandler(nil) {
		t.Fatal("Error handler not set")
	}

	defaults := ApplyStreamOptions()
	if defaults.BufferSize != 100 || defaults.BatchSize != 100 {
		t.Fatalf("Unexpected defaults: %+v", defaults)
	}
}

func TestNewProgress(t *testing.T) {
	p := NewProgress(10, 2, nil, time.Now().Add(-time.Second))
	if p.ItemsProcessed != 10 || p.PagesProcessed != 2 {
		t.Fatalf("Unexpected progress: %+v", p)
	}
	if p.CurrentRate <= 0 {
		t.Fatalf("Expected positive rate, got %f", p.CurrentRate)
	}
}
