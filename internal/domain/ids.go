// Package domain contains the core value types of the reactor runtime:
// compact component identifiers, logical tags, scheduling offsets, and
// the assembly error taxonomy.
// The package has no dependencies on the runtime machinery and is safe
// to import from every layer.
package domain

import (
	"fmt"
	"math"
)

// ReactorID is the unique index of a reactor instance within a program.
// IDs are assigned sequentially during assembly and remain stable for
// the lifetime of the run.
type ReactorID uint16

// LocalReactionID is the index of a reaction local to its reactor.
// Reaction IDs are dense: a reactor with n reactions uses exactly the
// IDs 0..n-1, in declaration order.
type LocalReactionID uint16

// MaxLocalID is the largest local index that can be packed into a
// GlobalID. Allocating past it is an assembly-time failure.
const MaxLocalID = math.MaxUint16

// GlobalID identifies a component (reaction, port, or action) of a
// reactor program. It packs the container's ReactorID into the upper
// 16 bits and the local index into the lower 16 bits, so equality and
// map hashing operate on a single 32-bit value.
type GlobalID uint32

// NewGlobalID packs a container reactor ID and a local index into a
// single global identifier.
func NewGlobalID(container ReactorID, local LocalReactionID) GlobalID {
	return GlobalID(uint32(container)<<16 | uint32(local))
}

// Container returns the ID of the reactor that owns this component.
func (g GlobalID) Container() ReactorID { return ReactorID(g >> 16) }

// Local returns the component's index within its container.
func (g GlobalID) Local() LocalReactionID { return LocalReactionID(g & 0xffff) }

// Raw returns the packed 32-bit representation. It doubles as the hash
// of the identifier.
func (g GlobalID) Raw() uint32 { return uint32(g) }

// Next returns the identifier following this one within the same
// container. It fails when the local index space is exhausted.
func (g GlobalID) Next() (GlobalID, error) {
	if g.Local() == MaxLocalID {
		return 0, fmt.Errorf("id overflow: no local index after %s", g)
	}
	return g + 1, nil
}

// IDRange returns the half-open range [g, g+n) of identifiers within
// the same container. It fails when the range would overflow the local
// index space.
func (g GlobalID) IDRange(n int) (GlobalID, GlobalID, error) {
	if int(g.Local())+n > MaxLocalID+1 {
		return 0, 0, fmt.Errorf("id overflow: range of %d ids starting at %s", n, g)
	}
	return g, g + GlobalID(n), nil
}

func (g GlobalID) String() string {
	return fmt.Sprintf("%d/%d", g.Container(), g.Local())
}

// GlobalReactionID is the global identifier of a reaction.
// It is a distinct type from GlobalID so that reactions cannot be
// confused with ports or actions in the schedulable maps.
type GlobalReactionID GlobalID

// NewGlobalReactionID packs a container reactor ID and a local reaction
// index into a reaction identifier.
func NewGlobalReactionID(container ReactorID, local LocalReactionID) GlobalReactionID {
	return GlobalReactionID(NewGlobalID(container, local))
}

// Container returns the ID of the reactor that owns this reaction.
func (r GlobalReactionID) Container() ReactorID { return GlobalID(r).Container() }

// Local returns the reaction's index within its reactor.
func (r GlobalReactionID) Local() LocalReactionID { return GlobalID(r).Local() }

func (r GlobalReactionID) String() string { return GlobalID(r).String() }

// TriggerKind discriminates the variants of a TriggerID.
type TriggerKind uint8

const (
	// TriggerComponent identifies an ordinary component trigger
	// (a port or an action).
	TriggerComponent TriggerKind = iota
	// TriggerStartup is the pseudo-trigger fired once when the program
	// starts.
	TriggerStartup
	// TriggerShutdown is the pseudo-trigger fired once when the program
	// shuts down.
	TriggerShutdown
)

// TriggerID identifies something that can trigger reactions: the
// startup and shutdown pseudo-events, or a concrete component.
// TriggerID is comparable and can be used directly as a map key.
type TriggerID struct {
	kind      TriggerKind
	component GlobalID
}

// StartupTrigger is the program-wide startup pseudo-trigger.
// There is exactly one per program.
var StartupTrigger = TriggerID{kind: TriggerStartup}

// ShutdownTrigger is the program-wide shutdown pseudo-trigger.
// There is exactly one per program.
var ShutdownTrigger = TriggerID{kind: TriggerShutdown}

// NewComponentTrigger wraps a component identifier as a trigger.
func NewComponentTrigger(id GlobalID) TriggerID {
	return TriggerID{kind: TriggerComponent, component: id}
}

// Kind returns the variant of this trigger.
func (t TriggerID) Kind() TriggerKind { return t.kind }

// Component returns the underlying component ID and true when the
// trigger is a component trigger.
func (t TriggerID) Component() (GlobalID, bool) {
	return t.component, t.kind == TriggerComponent
}

// Hash returns a cheap 32-bit hash of the trigger. Startup and
// shutdown share a hash value; there is one instance of each per
// program, so the collision is harmless.
func (t TriggerID) Hash() uint32 {
	if t.kind != TriggerComponent {
		return math.MaxUint32
	}
	return t.component.Raw()
}

func (t TriggerID) String() string {
	switch t.kind {
	case TriggerStartup:
		return "startup"
	case TriggerShutdown:
		return "shutdown"
	default:
		return t.component.String()
	}
}
