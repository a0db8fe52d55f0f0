package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-reactor/internal/domain"
)

func portID(container domain.ReactorID, local domain.LocalReactionID) domain.GlobalID {
	return domain.NewGlobalID(container, local)
}

// TestPort_InitiallyEmpty verifies that a fresh port carries no value.
func TestPort_InitiallyEmpty(t *testing.T) {
	p := NewInputPort[int](portID(0, 0))

	_, ok := p.Get()
	assert.False(t, ok, "a new port should be empty")
	assert.Equal(t, Unbound, p.Status(), "a new port should be unbound")
}

// TestPort_SetAndGet verifies basic value storage and clearing.
func TestPort_SetAndGet(t *testing.T) {
	p := NewOutputPort[string](portID(0, 0))

	p.Set("hello")
	v, ok := p.Get()
	require.True(t, ok, "a set port should hold a value")
	assert.Equal(t, "hello", v, "value mismatch")

	p.Clear()
	_, ok = p.Get()
	assert.False(t, ok, "a cleared port should be empty")
}

// TestBindPorts_ValuesFlow verifies that a bound downstream port
// observes upstream writes.
func TestBindPorts_ValuesFlow(t *testing.T) {
	up := NewOutputPort[int](portID(0, 0))
	down := NewInputPort[int](portID(1, 0))

	BindPorts(up, down)

	_, ok := down.Get()
	assert.False(t, ok, "binding alone should not produce a value")

	up.Set(5)
	v, ok := down.Get()
	require.True(t, ok, "downstream should observe the upstream write")
	assert.Equal(t, 5, v, "downstream value mismatch")

	up.Set(6)
	v, _ = down.Get()
	assert.Equal(t, 6, v, "downstream should observe the latest write")
}

// TestBindPorts_Fanout verifies one upstream driving several
// downstream ports.
func TestBindPorts_Fanout(t *testing.T) {
	up := NewOutputPort[int](portID(0, 0))
	d1 := NewInputPort[int](portID(1, 0))
	d2 := NewInputPort[int](portID(2, 0))

	BindPorts(up, d1)
	BindPorts(up, d2)

	up.Set(5)
	v1, ok1 := d1.Get()
	v2, ok2 := d2.Get()
	require.True(t, ok1 && ok2, "both downstream ports should observe the write")
	assert.Equal(t, 5, v1, "first downstream mismatch")
	assert.Equal(t, 5, v2, "second downstream mismatch")
}

// TestBindPorts_TransitiveInTopoOrder verifies that values flow
// through a chain bound in topological order.
func TestBindPorts_TransitiveInTopoOrder(t *testing.T) {
	up := NewOutputPort[int](portID(0, 0))
	d1 := NewInputPort[int](portID(1, 0))
	d2 := NewInputPort[int](portID(2, 0))
	b1 := NewInputPort[int](portID(3, 0))
	b2 := NewInputPort[int](portID(4, 0))

	// up -> d1 -> d2 -> {b1, b2}
	BindPorts(up, d1)
	BindPorts(d1, d2)
	BindPorts(d2, b1)
	BindPorts(d2, b2)

	up.Set(5)
	for i, p := range []*Port[int]{d1, d2, b1, b2} {
		v, ok := p.Get()
		require.True(t, ok, "port %d should observe the write", i)
		assert.Equal(t, 5, v, "port %d value mismatch", i)
	}

	up.Set(6)
	for i, p := range []*Port[int]{d1, d2, b1, b2} {
		v, _ := p.Get()
		assert.Equal(t, 6, v, "port %d should observe the latest write", i)
	}
}

// TestBindPorts_NonTopoOrderPanics verifies that binding against
// topological order is rejected.
func TestBindPorts_NonTopoOrderPanics(t *testing.T) {
	a := NewOutputPort[int](portID(0, 0))
	b := NewInputPort[int](portID(1, 0))
	c := NewInputPort[int](portID(2, 0))

	BindPorts(b, c)
	assert.Panics(t, func() { BindPorts(a, b) },
		"binding a->b after b->c must panic")
}

// TestBindPorts_RebindPanics verifies that a port cannot be bound
// downstream twice.
func TestBindPorts_RebindPanics(t *testing.T) {
	up := NewOutputPort[int](portID(0, 0))
	down := NewInputPort[int](portID(1, 0))

	BindPorts(up, down)
	assert.Panics(t, func() { BindPorts(up, down) }, "rebinding must panic")
}

// TestBindPorts_DepsAdopted verifies that the downstream's recorded
// dependencies move to the upstream's set on bind.
func TestBindPorts_DepsAdopted(t *testing.T) {
	up := NewOutputPort[int](portID(0, 0))
	down := NewInputPort[int](portID(1, 0))

	r0 := domain.NewGlobalReactionID(0, 0)
	r1 := domain.NewGlobalReactionID(1, 0)
	r2 := domain.NewGlobalReactionID(1, 1)

	up.SetDownstream([]domain.GlobalReactionID{r0})
	down.SetDownstream([]domain.GlobalReactionID{r1, r2})

	assert.Equal(t, []domain.GlobalReactionID{r0}, up.Downstream(), "pre-bind deps mismatch")

	BindPorts(up, down)

	assert.Equal(t, []domain.GlobalReactionID{r0, r1, r2}, up.Downstream(),
		"downstream deps should be appended to the upstream set")
	deps := up.Set(1)
	assert.Equal(t, []domain.GlobalReactionID{r0, r1, r2}, deps,
		"Set should return the adopted dependency set")
}

// TestBindPorts_TransitiveDepsReachRoot verifies dependency adoption
// through a chain bound in topological order.
func TestBindPorts_TransitiveDepsReachRoot(t *testing.T) {
	a := NewOutputPort[int](portID(0, 0))
	b := NewInputPort[int](portID(1, 0))
	c := NewInputPort[int](portID(2, 0))

	rc := domain.NewGlobalReactionID(2, 0)

	BindPorts(a, b)
	c.SetDownstream([]domain.GlobalReactionID{rc})
	BindPorts(b, c)

	assert.Equal(t, []domain.GlobalReactionID{rc}, a.Downstream(),
		"deps bound below b must land on the shared root cell")
}

// TestPort_SetDrivenPanics verifies that a downstream-bound port
// rejects direct writes.
func TestPort_SetDrivenPanics(t *testing.T) {
	up := NewOutputPort[int](portID(0, 0))
	down := NewInputPort[int](portID(1, 0))

	BindPorts(up, down)
	assert.Panics(t, func() { down.Set(1) }, "writing a driven port must panic")
}
