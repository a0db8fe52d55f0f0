package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewGlobalID verifies the packing of container and local indices
// into the 32-bit representation.
func TestNewGlobalID(t *testing.T) {
	tests := []struct {
		name      string
		container ReactorID
		local     LocalReactionID
		wantRaw   uint32
	}{
		{name: "zero id", container: 0, local: 0, wantRaw: 0},
		{name: "local only", container: 0, local: 7, wantRaw: 7},
		{name: "container only", container: 3, local: 0, wantRaw: 3 << 16},
		{name: "both parts", container: 2, local: 5, wantRaw: 2<<16 | 5},
		{name: "max values", container: 0xffff, local: 0xffff, wantRaw: 0xffffffff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := NewGlobalID(tt.container, tt.local)
			assert.Equal(t, tt.wantRaw, id.Raw(), "packed representation mismatch")
			assert.Equal(t, tt.container, id.Container(), "container round-trip mismatch")
			assert.Equal(t, tt.local, id.Local(), "local round-trip mismatch")
		})
	}
}

// TestGlobalID_Next covers increment and overflow of the local index.
func TestGlobalID_Next(t *testing.T) {
	id := NewGlobalID(1, 41)
	next, err := id.Next()
	require.NoError(t, err, "Next() within the local space should succeed")
	assert.Equal(t, NewGlobalID(1, 42), next, "Next() should increment the local index")
	assert.Equal(t, ReactorID(1), next.Container(), "Next() must not change the container")

	last := NewGlobalID(1, MaxLocalID)
	_, err = last.Next()
	assert.Error(t, err, "Next() past the local space should fail")
}

// TestGlobalID_IDRange covers range construction and overflow.
func TestGlobalID_IDRange(t *testing.T) {
	start := NewGlobalID(4, 10)

	lo, hi, err := start.IDRange(3)
	require.NoError(t, err, "in-bounds range should succeed")
	assert.Equal(t, start, lo, "range should start at the receiver")
	assert.Equal(t, NewGlobalID(4, 13), hi, "range end should be exclusive")

	_, _, err = NewGlobalID(4, MaxLocalID-1).IDRange(3)
	assert.Error(t, err, "range overflowing the local space should fail")

	lo, hi, err = NewGlobalID(4, MaxLocalID-1).IDRange(2)
	require.NoError(t, err, "range ending exactly at the boundary should succeed")
	assert.Equal(t, uint32(2), hi.Raw()-lo.Raw(), "range should span exactly n ids")
}

// TestGlobalReactionID verifies that reaction IDs expose the same
// structure as component IDs.
func TestGlobalReactionID(t *testing.T) {
	rid := NewGlobalReactionID(9, 2)
	assert.Equal(t, ReactorID(9), rid.Container(), "container mismatch")
	assert.Equal(t, LocalReactionID(2), rid.Local(), "local mismatch")
	assert.Equal(t, "9/2", rid.String(), "string form should be container/local")
}

// TestTriggerID covers the tagged-union behavior and the cheap hash.
func TestTriggerID(t *testing.T) {
	component := NewComponentTrigger(NewGlobalID(1, 2))

	assert.Equal(t, TriggerStartup, StartupTrigger.Kind(), "startup kind mismatch")
	assert.Equal(t, TriggerShutdown, ShutdownTrigger.Kind(), "shutdown kind mismatch")
	assert.Equal(t, TriggerComponent, component.Kind(), "component kind mismatch")

	id, ok := component.Component()
	require.True(t, ok, "component trigger should expose its id")
	assert.Equal(t, NewGlobalID(1, 2), id, "component id mismatch")

	_, ok = StartupTrigger.Component()
	assert.False(t, ok, "startup trigger has no component")

	// Startup and shutdown share a hash by design; there is one of
	// each per program. They must still compare unequal.
	assert.Equal(t, StartupTrigger.Hash(), ShutdownTrigger.Hash(), "pseudo-triggers share a hash")
	assert.NotEqual(t, StartupTrigger, ShutdownTrigger, "pseudo-triggers must not be equal")
	assert.Equal(t, component.Hash(), NewGlobalID(1, 2).Raw(), "component hash is the raw id")

	// Comparable as map keys.
	seen := map[TriggerID]int{StartupTrigger: 1, ShutdownTrigger: 2, component: 3}
	assert.Len(t, seen, 3, "distinct triggers should occupy distinct keys")
}
