// Package sink contains event consumers for side effects. The audit sink
// keeps a short-term buffer of routed events and flushes per-kind counts to
// the log, giving operators a delivery trail without a metrics stack.
package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sup-gateway/contract"
	"sup-gateway/domain/event"
)

type AuditSink struct {
	mu            sync.Mutex
	timer         *time.Timer
	log           *slog.Logger
	events        []event.Name
	maxBatch      int
	bufferTimeout time.Duration
}

var _ contract.EventSink = (*AuditSink)(nil)

func NewAuditSink(log *slog.Logger, maxBatch int, bufferTimeout time.Duration) *AuditSink {
	return &AuditSink{
		log:           log,
		maxBatch:      maxBatch,
		bufferTimeout: bufferTimeout,
	}
}

// Consume buffers one event. The flush is triggered either by reaching the
// batch threshold or by a time-based deadline, so a quiet gateway still
// surfaces its trickle of events.
func (a *AuditSink) Consume(_ context.Context, e event.DomainEvent) error {
	a.mu.Lock()
	a.events = append(a.events, e.EventName())

	if len(a.events) == 1 && a.timer == nil {
		a.timer = time.AfterFunc(a.bufferTimeout, func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.flushLocked()
		})
	}

	if len(a.events) >= a.maxBatch {
		a.flushLocked()
	}
	a.mu.Unlock()
	return nil
}

// flushLocked logs the per-kind counts of the current batch and resets it.
// Caller must hold the lock.
func (a *AuditSink) flushLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if len(a.events) == 0 {
		return
	}

	counts := make(map[event.Name]int, len(a.events))
	for _, name := range a.events {
		counts[name]++
	}
	for name, count := range counts {
		a.log.Info("Audit flush", "event", name, "count", count)
	}
	a.events = a.events[:0]
}
