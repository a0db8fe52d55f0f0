package runtime

import (
	"time"

	"github.com/ahrav/go-reactor/internal/domain"
)

// Action is a schedulable event source attached to a reactor. Logical
// actions produce tags computed purely from the current logical tag;
// physical actions additionally clamp the instant forward to the wall
// clock, so they can be scheduled from outside the scheduler thread.
type Action struct {
	id       domain.GlobalID
	minDelay time.Duration
	logical  bool
}

// NewLogicalAction creates a logical action with the given minimum
// delay. Negative delays are treated as zero.
func NewLogicalAction(id domain.GlobalID, minDelay time.Duration) *Action {
	return newAction(id, minDelay, true)
}

// NewPhysicalAction creates a physical action with the given minimum
// delay. Negative delays are treated as zero.
func NewPhysicalAction(id domain.GlobalID, minDelay time.Duration) *Action {
	return newAction(id, minDelay, false)
}

func newAction(id domain.GlobalID, minDelay time.Duration, logical bool) *Action {
	if minDelay < 0 {
		minDelay = 0
	}
	return &Action{id: id, minDelay: minDelay, logical: logical}
}

// ID returns the global identifier of the action.
func (a *Action) ID() domain.GlobalID { return a.id }

// IsLogical reports whether the action is logical (as opposed to
// physical).
func (a *Action) IsLogical() bool { return a.logical }

// MinDelay returns the action's minimum scheduling delay.
func (a *Action) MinDelay() time.Duration { return a.minDelay }

// ScheduledTag computes the tag of an event produced by scheduling
// this action from the given baseline tag. The instant is the baseline
// instant plus the action's minimum delay plus the additional offset;
// physical actions clamp the instant forward to now. The microstep is
// the baseline's successor when the instant did not move, and zero for
// a fresh instant.
func (a *Action) ScheduledTag(baseline domain.LogicalTag, now time.Time, offset domain.Offset) domain.LogicalTag {
	instant := baseline.Time.Add(a.minDelay + offset.Delay())
	if !a.logical && now.After(instant) {
		instant = now
	}
	if instant.Equal(baseline.Time) {
		return baseline.Successor()
	}
	return domain.LogicalTag{Time: instant}
}
