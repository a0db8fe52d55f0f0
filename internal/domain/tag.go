package domain

import (
	"fmt"
	"time"
)

// Microstep is the sub-instant coordinate of a logical tag. A fresh
// instant starts at microstep 0; events scheduled with zero delay at
// the current instant land on the next microstep.
type Microstep uint32

// LogicalTag is the logical coordinate of an event: a physical instant
// paired with a microstep. Tags are totally ordered lexicographically,
// and two events are simultaneous exactly when they share a tag.
type LogicalTag struct {
	// Time is the monotonic instant of the tag.
	Time time.Time
	// Microstep orders events that share an instant.
	Microstep Microstep
}

// Compare orders two tags lexicographically by (instant, microstep).
// It returns a negative value when t precedes other, zero when they
// are equal, and a positive value otherwise.
func (t LogicalTag) Compare(other LogicalTag) int {
	if c := t.Time.Compare(other.Time); c != 0 {
		return c
	}
	switch {
	case t.Microstep < other.Microstep:
		return -1
	case t.Microstep > other.Microstep:
		return 1
	default:
		return 0
	}
}

// Before reports whether t strictly precedes other.
func (t LogicalTag) Before(other LogicalTag) bool { return t.Compare(other) < 0 }

// After reports whether t strictly follows other.
func (t LogicalTag) After(other LogicalTag) bool { return t.Compare(other) > 0 }

// Successor returns the tag immediately following t at the same
// instant, i.e. with the microstep incremented.
func (t LogicalTag) Successor() LogicalTag {
	return LogicalTag{Time: t.Time, Microstep: t.Microstep + 1}
}

func (t LogicalTag) String() string {
	return fmt.Sprintf("(%s, %d)", t.Time.Format("15:04:05.000000"), t.Microstep)
}

// Offset is the additional delay applied when scheduling an action, on
// top of the action's own minimum delay.
type Offset struct {
	delay time.Duration
}

// Asap schedules with no additional delay.
func Asap() Offset { return Offset{} }

// After schedules with the given additional delay. Negative durations
// are treated as zero.
func After(d time.Duration) Offset {
	if d < 0 {
		d = 0
	}
	return Offset{delay: d}
}

// Delay returns the additional delay this offset stands for.
func (o Offset) Delay() time.Duration { return o.delay }
