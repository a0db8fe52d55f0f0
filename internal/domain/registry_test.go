package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIDRegistry_Paths verifies hierarchical path rendering for
// components and reactions.
func TestIDRegistry_Paths(t *testing.T) {
	reg := NewIDRegistry()

	root := RootDebugInfo("App")
	reg.RecordReactor(0, root)
	reg.RecordReactor(1, root.Derive("Clock", "producer"))

	out := NewGlobalID(1, 0)
	reg.Record(out, "out")

	emit := NewGlobalReactionID(1, 0)
	reg.RecordReaction(emit, "emit")

	assert.Equal(t, "/producer/out", reg.ComponentPath(out), "labeled component path mismatch")
	assert.Equal(t, "/producer/0@emit", reg.ReactionPath(emit), "labeled reaction path mismatch")
	assert.Equal(t, "/producer/5", reg.ComponentPath(NewGlobalID(1, 5)), "unlabeled components fall back to the index")
}

// TestIDRegistry_Record verifies misuse panics: labels are recorded
// once and reactors in order.
func TestIDRegistry_Record(t *testing.T) {
	reg := NewIDRegistry()
	reg.Record(NewGlobalID(0, 0), "out")
	assert.Panics(t, func() { reg.Record(NewGlobalID(0, 0), "again") },
		"double-recording a label should panic")

	assert.Panics(t, func() { reg.RecordReactor(5, RootDebugInfo("X")) },
		"out-of-order reactor registration should panic")
}
