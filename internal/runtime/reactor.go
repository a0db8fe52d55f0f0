package runtime

import (
	"github.com/ahrav/go-reactor/internal/domain"
)

// ReactionSet is an ordered collection of reaction identifiers.
type ReactionSet []domain.GlobalReactionID

// ReactorBehavior is the uniform view the scheduler has of a reactor
// instance. Generated (or hand-written, generated-style) reactor code
// implements it: dispatching a local reaction ID to the corresponding
// reaction body, clearing port values when a tag is over, and
// announcing its startup and shutdown reactions.
//
// A reactor instance is owned by the scheduler thread; none of these
// methods are called concurrently.
type ReactorBehavior interface {
	// ID returns the reactor's unique instance identifier.
	ID() domain.ReactorID

	// ReactErased executes the reaction with the given local ID.
	// Passing an ID the reactor never declared indicates a bug in the
	// calling machinery and panics.
	ReactErased(ctx *LogicalCtx, rid domain.LocalReactionID)

	// CleanupTag clears the values of the reactor's ports once the
	// current tag is over, so values never carry across logical times.
	CleanupTag(ctx *CleanupCtx)

	// EnqueueStartup contributes the reactor's startup reactions to
	// the initial event.
	EnqueueStartup(ctx *StartupCtx)

	// EnqueueShutdown contributes the reactor's shutdown reactions to
	// the final event.
	EnqueueShutdown(ctx *StartupCtx)
}

// StartupCtx collects the reactions a reactor wants fired at program
// startup or shutdown.
type StartupCtx struct {
	reactions ReactionSet
}

// Enqueue adds the given reactions to the pending set.
func (c *StartupCtx) Enqueue(reactions ReactionSet) {
	c.reactions = append(c.reactions, reactions...)
}

// CleanupCtx is handed to reactors after each tag so they can reset
// their per-tag state.
type CleanupCtx struct {
	// Tag is the logical tag that just finished executing.
	Tag domain.LogicalTag
}
