package batch

import (
	"fmt"
	"sync/atomic"
)

// ProgressStatus is the state of one item within a batch.
type ProgressStatus string

const (
	ProgressPending ProgressStatus = "pending"
	ProgressWorking ProgressStatus = "working"
	ProgressPlanned ProgressStatus = "planned"
	ProgressNoPlan  ProgressStatus = "no-plan"
	ProgressFailed  ProgressStatus = "failed"
)

// ProgressEvent reports a status change for one item.
type ProgressEvent struct {
	ItemID  string
	Status  ProgressStatus
	Message string
}

// EventsPerItem is the most progress events Run emits for one item:
// pending, working, and an outcome.
const EventsPerItem = 3

// DefaultProgressBuffer is the channel capacity of NewProgressReporter.
const DefaultProgressBuffer = 64

// ProgressReporter queues progress events so that one consumer can print
// them in order while workers keep planning. Pass Emit to WithProgress.
type ProgressReporter struct {
	ch      chan ProgressEvent
	dropped atomic.Int64
}

// NewProgressReporter creates a ProgressReporter with DefaultProgressBuffer
// slots.
func NewProgressReporter() *ProgressReporter {
	return NewProgressReporterSize(DefaultProgressBuffer)
}

// NewProgressReporterSize creates a ProgressReporter with size slots. A
// batch of n items never drops events with n*EventsPerItem slots.
func NewProgressReporterSize(size int) *ProgressReporter {
	if size < 1 {
		size = DefaultProgressBuffer
	}
	return &ProgressReporter{ch: make(chan ProgressEvent, size)}
}

// Emit queues an event without blocking. When the buffer is full the event
// is dropped and counted.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
		pr.dropped.Add(1)
	}
}

// Dropped returns the number of events Emit discarded.
func (pr *ProgressReporter) Dropped() int64 { return pr.dropped.Load() }

// Subscribe returns the event channel. It is closed by Close.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close ends the stream. Call it after Run returns.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", event.ItemID)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.ItemID)
	case ProgressPlanned:
		return fmt.Sprintf("  ✓ %s planned", event.ItemID)
	case ProgressNoPlan:
		return fmt.Sprintf("  - %s no plan: %s", event.ItemID, event.Message)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.ItemID, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.ItemID)
	}
}
