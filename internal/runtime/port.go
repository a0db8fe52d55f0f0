// Package runtime implements the execution machinery of the reactor
// engine: typed ports and actions, the logical-time event queue, the
// single-tag reaction wave, and the scheduler event loop.
package runtime

import (
	"fmt"

	"github.com/ahrav/go-reactor/internal/domain"
)

// PortKind distinguishes the two directions a port can face.
type PortKind uint8

const (
	// Input marks a port through which a reactor receives values.
	Input PortKind = iota
	// Output marks a port through which a reactor emits values.
	Output
)

func (k PortKind) String() string {
	if k == Output {
		return "output"
	}
	return "input"
}

// BindStatus records how a port participates in bindings.
type BindStatus uint8

const (
	// Unbound means the port has no binding yet.
	Unbound BindStatus = iota
	// BoundUpstream means the port drives at least one downstream port.
	BoundUpstream
	// BoundDownstream means the port is driven by an upstream port and
	// can no longer be written directly.
	BoundDownstream
)

// portCell is the storage shared between a port and everything bound
// downstream of it. Binding makes the downstream port adopt the
// upstream's cell, so a write to the upstream is immediately visible
// through every transitively bound port.
type portCell[T any] struct {
	value *T
	deps  []domain.GlobalReactionID
}

// Port is a typed value cell attached to a reactor. A port holds at
// most one value per logical tag; the wave executor clears it when the
// tag is over, so values never leak across logical times.
//
// Ports are not safe for concurrent use: they are owned by the
// scheduler thread, like the reactors that declare them.
type Port[T any] struct {
	id     domain.GlobalID
	kind   PortKind
	status BindStatus
	cell   *portCell[T]
}

// NewInputPort creates an unbound input port with the given identifier.
func NewInputPort[T any](id domain.GlobalID) *Port[T] {
	return &Port[T]{id: id, kind: Input, cell: &portCell[T]{}}
}

// NewOutputPort creates an unbound output port with the given
// identifier.
func NewOutputPort[T any](id domain.GlobalID) *Port[T] {
	return &Port[T]{id: id, kind: Output, cell: &portCell[T]{}}
}

// ID returns the global identifier of the port.
func (p *Port[T]) ID() domain.GlobalID { return p.id }

// Kind returns whether the port is an input or an output.
func (p *Port[T]) Kind() PortKind { return p.kind }

// Status returns the port's current bind status.
func (p *Port[T]) Status() BindStatus { return p.status }

// Get returns the value currently present on the port, if any.
func (p *Port[T]) Get() (T, bool) {
	if p.cell.value == nil {
		var zero T
		return zero, false
	}
	return *p.cell.value, true
}

// Set stores a value on the port and returns the reactions recorded
// downstream of it. The value is visible through every port bound
// downstream of this one until the enclosing wave clears it.
//
// Set panics when the port is driven by an upstream binding: its value
// is determined by the binding and writing it directly would fork the
// timeline.
func (p *Port[T]) Set(value T) []domain.GlobalReactionID {
	if p.status == BoundDownstream {
		panic(fmt.Sprintf("port %s is bound to an upstream port and cannot be set", p.id))
	}
	p.cell.value = &value
	return p.cell.deps
}

// Clear removes the port's current value. The wave executor calls this
// through the reactor's tag cleanup once a logical tag is over.
func (p *Port[T]) Clear() { p.cell.value = nil }

// SetDownstream records the reactions that must be enqueued when this
// port is written. The assembler calls this while declaring triggers;
// it replaces any previously recorded set.
func (p *Port[T]) SetDownstream(deps []domain.GlobalReactionID) {
	p.cell.deps = deps
}

// Downstream returns the reactions recorded downstream of this port.
func (p *Port[T]) Downstream() []domain.GlobalReactionID { return p.cell.deps }

// BindPorts connects upstream to downstream so that values written to
// upstream are observable through downstream at the same tag. The
// downstream's previously recorded dependencies are appended to the
// upstream's set, and the downstream port afterwards shares the
// upstream's storage.
//
// Bindings must be established in topological order: once a port has
// been bound (in either role as downstream), it cannot be re-bound.
// BindPorts panics on violations; the assembler validates the
// structural rules beforehand and a panic here means those checks were
// bypassed.
func BindPorts[T any](upstream, downstream *Port[T]) {
	if downstream.status != Unbound {
		panic(fmt.Sprintf("port %s is already bound and cannot be bound again (bindings must be made in topological order)",
			downstream.id))
	}
	upstream.cell.deps = append(upstream.cell.deps, downstream.cell.deps...)
	downstream.cell = upstream.cell
	downstream.status = BoundDownstream
	if upstream.status == Unbound {
		upstream.status = BoundUpstream
	}
}
