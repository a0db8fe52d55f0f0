// Package ports defines the interfaces through which the reactor
// runtime talks to infrastructure adapters such as metrics collectors,
// tracers, and graph exporters. Implementations live under
// infrastructure/ and are injected at construction time.
package ports

import (
	"io"
	"time"

	"github.com/ahrav/go-reactor/internal/domain"
)

// ExecutionObserver receives notifications about the progress of the
// scheduler: waves starting and completing, individual reactions
// firing, and changes to the event-queue depth.
// Implementations must be cheap; all callbacks run on the scheduler
// thread, inside the latency-sensitive event loop.
type ExecutionObserver interface {
	// WaveStarted is called when a wave begins executing at the given
	// tag with the given number of initially pending reactions.
	WaveStarted(tag domain.LogicalTag, pending int)

	// WaveCompleted is called when a wave has drained. fired is the
	// number of reactions that executed; elapsed is the wall-clock
	// duration of the wave.
	WaveCompleted(tag domain.LogicalTag, fired int, elapsed time.Duration)

	// ReactionFired is called once per reaction execution, after the
	// reaction body returns.
	ReactionFired(id domain.GlobalReactionID, tag domain.LogicalTag)

	// QueueDepth reports the number of events pending in the queue
	// after each insertion or removal batch.
	QueueDepth(n int)
}

// GraphExporter renders the topology graphs produced during assembly
// into a textual debugging format.
type GraphExporter interface {
	// ExportDataflow writes the data-flow graph (reactions and ports)
	// to w.
	ExportDataflow(w io.Writer) error

	// ExportTriggers writes the trigger graph (reactions and actions)
	// to w.
	ExportTriggers(w io.Writer) error
}

// NopObserver is an ExecutionObserver that ignores every notification.
// It is the default when no observability middleware is configured.
type NopObserver struct{}

// WaveStarted implements ExecutionObserver.
func (NopObserver) WaveStarted(domain.LogicalTag, int) {}

// WaveCompleted implements ExecutionObserver.
func (NopObserver) WaveCompleted(domain.LogicalTag, int, time.Duration) {}

// ReactionFired implements ExecutionObserver.
func (NopObserver) ReactionFired(domain.GlobalReactionID, domain.LogicalTag) {}

// QueueDepth implements ExecutionObserver.
func (NopObserver) QueueDepth(int) {}
