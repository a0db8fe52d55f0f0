package runtime

import (
	"fmt"
	"time"

	"github.com/ahrav/go-reactor/internal/domain"
)

// LogicalCtx is the API a reaction body sees while it executes. It
// reads and writes ports, schedules actions, exposes the logical and
// physical clocks, and accepts shutdown requests.
//
// Access is checked against the dependencies the reaction declared at
// assembly: touching an undeclared port or action indicates a bug in
// the generated glue code and panics with a diagnostic naming both
// sides. There is no recovery path; an inconsistent graph cannot be
// executed meaningfully.
type LogicalCtx struct {
	wave     *reactionWave
	reaction domain.GlobalReactionID
}

// Get returns the value present on the port at the current tag, if
// any. It panics when the executing reaction did not declare a use
// dependency on the port.
func Get[T any](ctx *LogicalCtx, port *Port[T]) (T, bool) {
	sched := ctx.wave.sched
	if !sched.schedulable.MayUse(ctx.reaction, port.ID()) {
		panic(undeclared(sched, ctx.reaction, "use", port.ID()))
	}
	return port.Get()
}

// Set writes a value to the port. The write is visible at the current
// tag: every reaction transitively downstream of the port is enqueued
// into the running wave, in topological order. It panics when the
// executing reaction did not declare an affects dependency on the
// port.
func Set[T any](ctx *LogicalCtx, port *Port[T], value T) {
	sched := ctx.wave.sched
	if !sched.schedulable.MayAffect(ctx.reaction, port.ID()) {
		panic(undeclared(sched, ctx.reaction, "affect", port.ID()))
	}
	port.Set(value)
	ctx.wave.enqueue(sched.schedulable.DownstreamReactions(port.ID()))
}

// Schedule enqueues a future occurrence of the action, after the
// action's own minimum delay plus the given offset. The event travels
// through the scheduler's channel rather than mutating the queue
// directly, so the queue stays owned by the scheduler thread. It
// panics when the executing reaction did not declare that it schedules
// the action.
func (c *LogicalCtx) Schedule(action *Action, offset domain.Offset) {
	sched := c.wave.sched
	if !sched.schedulable.MaySchedule(c.reaction, action.ID()) {
		panic(undeclared(sched, c.reaction, "schedule", action.ID()))
	}
	tag := action.ScheduledTag(c.wave.tag, sched.clock.Now(), offset)
	sched.sendEvent(Event{Tag: tag, Reactions: sched.schedulable.TriggeredReactions(action.ID())})
}

// LogicalTime returns the tag the enclosing wave executes at.
func (c *LogicalCtx) LogicalTime() domain.LogicalTag { return c.wave.tag }

// PhysicalTime reads the monotonic wall clock.
func (c *LogicalCtx) PhysicalTime() time.Time { return c.wave.sched.clock.Now() }

// RequestShutdown asks the scheduler to transition to shutdown once
// the current wave terminates. Pending events at later tags are
// discarded.
func (c *LogicalCtx) RequestShutdown() { c.wave.sched.shutdownRequested = true }

// ReactionID returns the identifier of the executing reaction.
func (c *LogicalCtx) ReactionID() domain.GlobalReactionID { return c.reaction }

func undeclared(sched *Scheduler, reaction domain.GlobalReactionID, verb string, component domain.GlobalID) string {
	reg := sched.schedulable.Registry()
	return fmt.Sprintf("reaction %s may not %s %s: dependency not declared at assembly",
		reg.ReactionPath(reaction), verb, reg.ComponentPath(component))
}
