package runtime

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ahrav/go-reactor/internal/domain"
)

// ErrSchedulerStopped is returned by SchedulerLink.SchedulePhysical
// when the scheduler has exited and no longer consumes events.
var ErrSchedulerStopped = errors.New("scheduler stopped")

// ErrNotPhysical is returned when a logical action is scheduled
// through a link. Logical actions belong to the scheduler thread.
var ErrNotPhysical = errors.New("action is not physical")

// tagCell is the one piece of mutable state shared between the
// scheduler thread and its links: the last processed tag. The
// scheduler writes it after every wave; links read it as the baseline
// for physical scheduling.
type tagCell struct {
	mu  sync.Mutex
	tag domain.LogicalTag
}

func (c *tagCell) load() domain.LogicalTag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tag
}

func (c *tagCell) store(tag domain.LogicalTag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tag = tag
}

// SchedulerLink is a clonable handle given to threads that produce
// physical actions: I/O loops, sensors, timers. It carries the event
// channel and a shared read-only view of the scheduler's progress; no
// other state crosses the thread boundary.
//
// The zero value is not usable; links are obtained from
// Scheduler.NewLink and may be copied freely.
type SchedulerLink struct {
	events      chan<- Event
	done        <-chan struct{}
	current     *tagCell
	clock       clockwork.Clock
	schedulable *Schedulable
}

// SchedulePhysical schedules a physical action from outside the
// scheduler thread. The event tag is computed from the last processed
// tag plus the action's minimum delay and the offset, with the instant
// clamped forward to the wall clock. The event enters the scheduler
// through the channel; if it lands at or before the tag the scheduler
// is currently processing, the scheduler coerces it to the next
// microstep of its current instant.
//
// SchedulePhysical returns ErrSchedulerStopped once the scheduler has
// exited, and ErrNotPhysical for logical actions.
func (l SchedulerLink) SchedulePhysical(action *Action, offset domain.Offset) error {
	if action.IsLogical() {
		return ErrNotPhysical
	}
	baseline := l.current.load()
	tag := action.ScheduledTag(baseline, l.clock.Now(), offset)
	ev := Event{Tag: tag, Reactions: l.schedulable.TriggeredReactions(action.ID())}
	if len(ev.Reactions) == 0 {
		return nil
	}
	select {
	case <-l.done:
		return ErrSchedulerStopped
	default:
	}
	select {
	case l.events <- ev:
		return nil
	case <-l.done:
		return ErrSchedulerStopped
	}
}

// LastProcessedTag returns the tag of the last wave the scheduler
// completed.
func (l SchedulerLink) LastProcessedTag() domain.LogicalTag { return l.current.load() }

// PhysicalTime reads the monotonic wall clock the scheduler uses.
func (l SchedulerLink) PhysicalTime() time.Time { return l.clock.Now() }
