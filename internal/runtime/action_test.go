package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-reactor/internal/domain"
)

// TestAction_ScheduledTag covers tag computation for logical and
// physical actions.
func TestAction_ScheduledTag(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	baseline := domain.LogicalTag{Time: base, Microstep: 2}

	tests := []struct {
		name    string
		action  *Action
		now     time.Time
		offset  domain.Offset
		want    domain.LogicalTag
	}{
		{
			name:   "logical with delay starts a fresh instant",
			action: NewLogicalAction(domain.NewGlobalID(0, 0), time.Second),
			now:    base,
			offset: domain.Asap(),
			want:   domain.LogicalTag{Time: base.Add(time.Second)},
		},
		{
			name:   "logical zero delay lands on the next microstep",
			action: NewLogicalAction(domain.NewGlobalID(0, 0), 0),
			now:    base,
			offset: domain.Asap(),
			want:   domain.LogicalTag{Time: base, Microstep: 3},
		},
		{
			name:   "offset adds to the minimum delay",
			action: NewLogicalAction(domain.NewGlobalID(0, 0), time.Second),
			now:    base,
			offset: domain.After(500 * time.Millisecond),
			want:   domain.LogicalTag{Time: base.Add(1500 * time.Millisecond)},
		},
		{
			name:   "physical clamps forward to the wall clock",
			action: NewPhysicalAction(domain.NewGlobalID(0, 0), 0),
			now:    base.Add(3 * time.Second),
			offset: domain.Asap(),
			want:   domain.LogicalTag{Time: base.Add(3 * time.Second)},
		},
		{
			name:   "physical in the future is not clamped",
			action: NewPhysicalAction(domain.NewGlobalID(0, 0), 5 * time.Second),
			now:    base.Add(time.Second),
			offset: domain.Asap(),
			want:   domain.LogicalTag{Time: base.Add(5 * time.Second)},
		},
		{
			name:   "logical ignores the wall clock",
			action: NewLogicalAction(domain.NewGlobalID(0, 0), time.Second),
			now:    base.Add(time.Hour),
			offset: domain.Asap(),
			want:   domain.LogicalTag{Time: base.Add(time.Second)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.action.ScheduledTag(baseline, tt.now, tt.offset)
			assert.True(t, got.Time.Equal(tt.want.Time), "instant mismatch: got %v want %v", got.Time, tt.want.Time)
			assert.Equal(t, tt.want.Microstep, got.Microstep, "microstep mismatch")
		})
	}
}

// TestAction_NegativeDelayClamps verifies that negative minimum delays
// are treated as zero.
func TestAction_NegativeDelayClamps(t *testing.T) {
	a := NewLogicalAction(domain.NewGlobalID(0, 0), -time.Second)
	assert.Equal(t, time.Duration(0), a.MinDelay(), "negative delay should clamp to zero")
	assert.True(t, a.IsLogical(), "logical flag mismatch")
}
