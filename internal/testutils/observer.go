// Package testutils provides shared helpers for runtime tests.
package testutils

import (
	"sync"
	"time"

	"github.com/ahrav/go-reactor/internal/domain"
)

// FiredReaction is one entry of an execution trace: a reaction and the
// tag it fired at.
type FiredReaction struct {
	ID  domain.GlobalReactionID
	Tag domain.LogicalTag
}

// TraceObserver records the full execution trace of a scheduler run:
// every reaction firing with its tag, and every completed wave. Tests
// assert determinism, ordering, and at-most-once properties against
// the recorded trace.
type TraceObserver struct {
	mu    sync.Mutex
	fired []FiredReaction
	waves []domain.LogicalTag
}

// NewTraceObserver returns an empty trace recorder.
func NewTraceObserver() *TraceObserver { return &TraceObserver{} }

// WaveStarted implements ExecutionObserver.
func (o *TraceObserver) WaveStarted(domain.LogicalTag, int) {}

// WaveCompleted implements ExecutionObserver.
func (o *TraceObserver) WaveCompleted(tag domain.LogicalTag, _ int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waves = append(o.waves, tag)
}

// ReactionFired implements ExecutionObserver.
func (o *TraceObserver) ReactionFired(id domain.GlobalReactionID, tag domain.LogicalTag) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fired = append(o.fired, FiredReaction{ID: id, Tag: tag})
}

// QueueDepth implements ExecutionObserver.
func (o *TraceObserver) QueueDepth(int) {}

// Fired returns a copy of the reaction trace in firing order.
func (o *TraceObserver) Fired() []FiredReaction {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]FiredReaction(nil), o.fired...)
}

// Waves returns a copy of the completed wave tags in order.
func (o *TraceObserver) Waves() []domain.LogicalTag {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.LogicalTag(nil), o.waves...)
}
