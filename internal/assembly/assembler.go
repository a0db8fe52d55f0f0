package assembly

import (
	"fmt"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/ahrav/go-reactor/internal/domain"
	"github.com/ahrav/go-reactor/internal/runtime"
)

// maxSuggestionDistance bounds how far a name may be from an existing
// one before the assembler stops suggesting it as the intended
// spelling.
const maxSuggestionDistance = 2

// globalAssembler accumulates program-wide state across the recursive
// assembly of a reactor tree: identifier allocation, the dependency
// graphs, the debug registry, and the reactor instances themselves.
type globalAssembler struct {
	nextReactor int
	registry    *domain.IDRegistry
	dataflow    *flowGraph
	triggers    *triggerGraph
	reactors    []runtime.ReactorBehavior

	reactionUses      map[domain.GlobalReactionID]map[domain.GlobalID]struct{}
	reactionAffects   map[domain.GlobalReactionID]map[domain.GlobalID]struct{}
	reactionSchedules map[domain.GlobalReactionID]map[domain.GlobalID]struct{}

	// usedPorts and affectedPorts track which ports already appear in
	// a declared dependency, to enforce the binding rules that an
	// upstream port is not read and a downstream port is not written
	// by any reaction.
	usedPorts     map[domain.GlobalID]struct{}
	affectedPorts map[domain.GlobalID]struct{}

	closed bool
}

func newGlobalAssembler() *globalAssembler {
	return &globalAssembler{
		registry:          domain.NewIDRegistry(),
		dataflow:          newFlowGraph(),
		triggers:          newTriggerGraph(),
		reactionUses:      make(map[domain.GlobalReactionID]map[domain.GlobalID]struct{}),
		reactionAffects:   make(map[domain.GlobalReactionID]map[domain.GlobalID]struct{}),
		reactionSchedules: make(map[domain.GlobalReactionID]map[domain.GlobalID]struct{}),
		usedPorts:         make(map[domain.GlobalID]struct{}),
		affectedPorts:     make(map[domain.GlobalID]struct{}),
	}
}

func (g *globalAssembler) newReactorID(info domain.ReactorDebugInfo) (domain.ReactorID, error) {
	if g.nextReactor > domain.MaxLocalID {
		return 0, fmt.Errorf("%w: more than %d reactors", domain.ErrIDOverflow, domain.MaxLocalID+1)
	}
	id := domain.ReactorID(g.nextReactor)
	g.nextReactor++
	g.registry.RecordReactor(id, info)
	return id, nil
}

// AssemblyCtx is the per-reactor view of an assembly in progress. One
// is handed to each reactor's build function; it creates the reactor's
// components, declares its dependencies, and recurses into
// sub-reactors. An AssemblyCtx must not be retained after the build
// function returns.
type AssemblyCtx struct {
	global    *globalAssembler
	reactorID domain.ReactorID
	debug     domain.ReactorDebugInfo

	names         map[string]struct{}
	nextComponent int
	nextReaction  int
	lastReaction  domain.GlobalReactionID
	hasReaction   bool
	children      map[domain.ReactorID]struct{}
}

func newAssemblyCtx(g *globalAssembler, id domain.ReactorID, debug domain.ReactorDebugInfo) *AssemblyCtx {
	return &AssemblyCtx{
		global:    g,
		reactorID: id,
		debug:     debug,
		names:     make(map[string]struct{}),
		children:  make(map[domain.ReactorID]struct{}),
	}
}

// ReactorID returns the identifier of the reactor under assembly.
func (c *AssemblyCtx) ReactorID() domain.ReactorID { return c.reactorID }

// Path returns the instantiation path of the reactor under assembly.
func (c *AssemblyCtx) Path() string { return c.debug.InstPath }

// newName reserves a component name and allocates a fresh local
// component index for it. Names are unique per reactor; a duplicate
// fails, suggesting a close existing name when the duplicate looks
// like a typo.
func (c *AssemblyCtx) newName(name string) (domain.GlobalID, error) {
	if c.global.closed {
		return 0, domain.ErrAssemblyClosed
	}
	if _, dup := c.names[name]; dup {
		return 0, &domain.DuplicateNameError{
			Name:       name,
			Container:  c.debug.InstPath,
			Suggestion: c.closestName(name),
		}
	}
	if c.nextComponent > domain.MaxLocalID {
		return 0, fmt.Errorf("%w: more than %d components in reactor %s",
			domain.ErrIDOverflow, domain.MaxLocalID+1, c.debug.InstPath)
	}
	c.names[name] = struct{}{}
	id := domain.NewGlobalID(c.reactorID, domain.LocalReactionID(c.nextComponent))
	c.nextComponent++
	c.global.registry.Record(id, name)
	return id, nil
}

// closestName returns an existing name within a small edit distance of
// name, or the empty string. A near-collision usually means one of the
// two spellings is a typo.
func (c *AssemblyCtx) closestName(name string) string {
	best, bestDist := "", maxSuggestionDistance+1
	for existing := range c.names {
		if existing == name {
			continue
		}
		if d := levenshtein.ComputeDistance(existing, name); d < bestDist {
			best, bestDist = existing, d
		}
	}
	return best
}

// NewReaction declares the reactor's next reaction under the given
// label. Reactions receive dense local IDs in declaration order, and
// consecutive reactions of the same reactor are linked by an implicit
// priority edge: when both are enabled at one tag, the earlier
// declaration fires first.
func (c *AssemblyCtx) NewReaction(label string) (domain.GlobalReactionID, error) {
	if c.global.closed {
		return 0, domain.ErrAssemblyClosed
	}
	if c.nextReaction > domain.MaxLocalID {
		return 0, fmt.Errorf("%w: more than %d reactions in reactor %s",
			domain.ErrIDOverflow, domain.MaxLocalID+1, c.debug.InstPath)
	}
	rid := domain.NewGlobalReactionID(c.reactorID, domain.LocalReactionID(c.nextReaction))
	c.nextReaction++
	if label != "" {
		c.global.registry.RecordReaction(rid, label)
	}
	c.global.dataflow.addNode(reactionNode(rid))
	if c.hasReaction {
		c.global.dataflow.addEdge(reactionNode(c.lastReaction), reactionNode(rid))
	}
	c.lastReaction, c.hasReaction = rid, true
	return rid, nil
}

// NewInputPort creates an input port on the reactor under assembly.
func NewInputPort[T any](c *AssemblyCtx, name string) (*runtime.Port[T], error) {
	id, err := c.newName(name)
	if err != nil {
		return nil, err
	}
	c.global.dataflow.addNode(portNode(id))
	return runtime.NewInputPort[T](id), nil
}

// NewOutputPort creates an output port on the reactor under assembly.
func NewOutputPort[T any](c *AssemblyCtx, name string) (*runtime.Port[T], error) {
	id, err := c.newName(name)
	if err != nil {
		return nil, err
	}
	c.global.dataflow.addNode(portNode(id))
	return runtime.NewOutputPort[T](id), nil
}

// NewLogicalAction creates a logical action with the given minimum
// delay on the reactor under assembly.
func (c *AssemblyCtx) NewLogicalAction(name string, minDelay time.Duration) (*runtime.Action, error) {
	id, err := c.newName(name)
	if err != nil {
		return nil, err
	}
	return runtime.NewLogicalAction(id, minDelay), nil
}

// NewPhysicalAction creates a physical action with the given minimum
// delay on the reactor under assembly.
func (c *AssemblyCtx) NewPhysicalAction(name string, minDelay time.Duration) (*runtime.Action, error) {
	id, err := c.newName(name)
	if err != nil {
		return nil, err
	}
	return runtime.NewPhysicalAction(id, minDelay), nil
}

// ActionTriggers records that the action triggers the reaction. Both
// must belong to the reactor under assembly.
func (c *AssemblyCtx) ActionTriggers(action *runtime.Action, reaction domain.GlobalReactionID) error {
	if err := c.checkOwnReaction(reaction, domain.DependencyUse, action.ID()); err != nil {
		return err
	}
	if action.ID().Container() != c.reactorID {
		return &domain.InvalidDependencyError{
			Cause:     "action was not created by this reactor",
			Reaction:  reaction,
			Kind:      domain.DependencyUse,
			Component: action.ID(),
		}
	}
	c.global.triggers.addTrigger(action.ID(), reaction)
	return nil
}

// ReactionSchedules records that the reaction may schedule the action
// for future execution. Both must belong to the reactor under
// assembly.
func (c *AssemblyCtx) ReactionSchedules(reaction domain.GlobalReactionID, action *runtime.Action) error {
	if err := c.checkOwnReaction(reaction, domain.DependencyAffects, action.ID()); err != nil {
		return err
	}
	if action.ID().Container() != c.reactorID {
		return &domain.InvalidDependencyError{
			Cause:     "action was not created by this reactor",
			Reaction:  reaction,
			Kind:      domain.DependencyAffects,
			Component: action.ID(),
		}
	}
	c.global.triggers.addSchedules(reaction, action.ID())
	set, ok := c.global.reactionSchedules[reaction]
	if !ok {
		set = make(map[domain.GlobalID]struct{})
		c.global.reactionSchedules[reaction] = set
	}
	set[action.ID()] = struct{}{}
	return nil
}

// Uses records that the reaction reads the port. The port must be an
// input of this reactor or an output of a direct sub-reactor.
func Uses[T any](c *AssemblyCtx, reaction domain.GlobalReactionID, port *runtime.Port[T]) error {
	if err := c.checkOwnReaction(reaction, domain.DependencyUse, port.ID()); err != nil {
		return err
	}
	invalid := func(cause string) error {
		return &domain.InvalidDependencyError{
			Cause: cause, Reaction: reaction, Kind: domain.DependencyUse, Component: port.ID(),
		}
	}
	switch port.Kind() {
	case runtime.Input:
		if port.ID().Container() != c.reactorID {
			return invalid("a reaction can only use input ports of its own reactor")
		}
	case runtime.Output:
		if !c.isDirectChild(port.ID().Container()) {
			return invalid("a reaction can only use output ports of direct sub-reactors")
		}
	}

	c.global.dataflow.addEdge(portNode(port.ID()), reactionNode(reaction))
	c.global.usedPorts[port.ID()] = struct{}{}
	set, ok := c.global.reactionUses[reaction]
	if !ok {
		set = make(map[domain.GlobalID]struct{})
		c.global.reactionUses[reaction] = set
	}
	set[port.ID()] = struct{}{}
	port.SetDownstream(append(port.Downstream(), reaction))
	return nil
}

// Affects records that the reaction may write the port. The port must
// be an output of this reactor or an input of a direct sub-reactor,
// and must not be driven by an upstream binding.
func Affects[T any](c *AssemblyCtx, reaction domain.GlobalReactionID, port *runtime.Port[T]) error {
	if err := c.checkOwnReaction(reaction, domain.DependencyAffects, port.ID()); err != nil {
		return err
	}
	invalid := func(cause string) error {
		return &domain.InvalidDependencyError{
			Cause: cause, Reaction: reaction, Kind: domain.DependencyAffects, Component: port.ID(),
		}
	}
	switch port.Kind() {
	case runtime.Output:
		if port.ID().Container() != c.reactorID {
			return invalid("a reaction can only affect output ports of its own reactor")
		}
	case runtime.Input:
		if !c.isDirectChild(port.ID().Container()) {
			return invalid("a reaction can only affect input ports of direct sub-reactors")
		}
	}
	if port.Status() == runtime.BoundDownstream {
		return invalid("port is driven by an upstream binding")
	}

	c.global.dataflow.addEdge(reactionNode(reaction), portNode(port.ID()))
	c.global.affectedPorts[port.ID()] = struct{}{}
	set, ok := c.global.reactionAffects[reaction]
	if !ok {
		set = make(map[domain.GlobalID]struct{})
		c.global.reactionAffects[reaction] = set
	}
	set[port.ID()] = struct{}{}
	return nil
}

// Bind connects upstream to downstream so that values written to
// upstream are observable through downstream at the same tag.
//
// Either the upstream is an input of this reactor (the downstream then
// being an input of a direct sub-reactor or an output of this
// reactor), or the upstream is an output of a direct sub-reactor (the
// downstream then being an input of another direct sub-reactor or an
// output of this reactor). The downstream must be unbound, no reaction
// may already use the upstream, and no reaction may affect the
// downstream. Bindings must be declared in topological order.
func Bind[T any](c *AssemblyCtx, upstream, downstream *runtime.Port[T]) error {
	if c.global.closed {
		return domain.ErrAssemblyClosed
	}
	invalid := func(cause string) error {
		return &domain.InvalidBindingError{
			Cause: cause, Upstream: upstream.ID(), Downstream: downstream.ID(),
		}
	}

	switch upstream.Kind() {
	case runtime.Input:
		if upstream.ID().Container() != c.reactorID {
			return invalid("upstream input port must belong to this reactor")
		}
		switch downstream.Kind() {
		case runtime.Input:
			if !c.isDirectChild(downstream.ID().Container()) {
				return invalid("downstream input port must belong to a direct sub-reactor")
			}
		case runtime.Output:
			if downstream.ID().Container() != c.reactorID {
				return invalid("downstream output port must belong to this reactor")
			}
		}
	case runtime.Output:
		if !c.isDirectChild(upstream.ID().Container()) {
			return invalid("upstream output port must belong to a direct sub-reactor")
		}
		switch downstream.Kind() {
		case runtime.Input:
			if !c.isDirectChild(downstream.ID().Container()) {
				return invalid("downstream input port must belong to a direct sub-reactor")
			}
			if downstream.ID().Container() == upstream.ID().Container() {
				return invalid("downstream input port must belong to a different sub-reactor")
			}
		case runtime.Output:
			if downstream.ID().Container() != c.reactorID {
				return invalid("downstream output port must belong to this reactor")
			}
		}
	}

	if downstream.Status() != runtime.Unbound {
		return invalid("downstream port is already bound (bindings must be declared in topological order)")
	}
	if _, used := c.global.usedPorts[upstream.ID()]; used {
		return invalid("upstream port is already used by a reaction")
	}
	if _, affected := c.global.affectedPorts[downstream.ID()]; affected {
		return invalid("downstream port is already affected by a reaction")
	}
	if c.global.dataflow.hasIncoming(portNode(downstream.ID())) {
		return invalid("downstream port is already driven by a reaction or another port")
	}

	c.global.dataflow.addEdge(portNode(upstream.ID()), portNode(downstream.ID()))
	runtime.BindPorts(upstream, downstream)
	return nil
}

// NewSubreactor assembles a child reactor under the given instance
// name. The child's components become addressable from the parent for
// use in bindings and dependency declarations. Errors raised by the
// child's build function are wrapped with the child's instantiation
// path.
func NewSubreactor[R runtime.ReactorBehavior](
	c *AssemblyCtx,
	name string,
	build func(*AssemblyCtx) (R, error),
) (R, error) {
	var zero R
	if _, err := c.newName(name); err != nil {
		return zero, err
	}

	childInfo := c.debug.Derive("", name)
	childID, err := c.global.newReactorID(childInfo)
	if err != nil {
		return zero, err
	}
	childCtx := newAssemblyCtx(c.global, childID, childInfo)

	child, err := build(childCtx)
	if err != nil {
		return zero, &domain.AssemblyContextError{Container: childInfo.InstPath, Err: err}
	}
	c.global.reactors = append(c.global.reactors, child)
	c.children[childID] = struct{}{}
	return child, nil
}

func (c *AssemblyCtx) isDirectChild(id domain.ReactorID) bool {
	_, ok := c.children[id]
	return ok
}

func (c *AssemblyCtx) checkOwnReaction(reaction domain.GlobalReactionID, kind domain.DependencyKind, component domain.GlobalID) error {
	if c.global.closed {
		return domain.ErrAssemblyClosed
	}
	if reaction.Container() != c.reactorID {
		return &domain.InvalidDependencyError{
			Cause:     "reaction was not declared by this reactor",
			Reaction:  reaction,
			Kind:      kind,
			Component: component,
		}
	}
	return nil
}

// Assemble runs a complete assembly pass: it builds the root reactor
// (which may recurse into sub-reactors), validates the resulting
// data-flow graph, and produces the executable World. Any structural
// violation surfaces here; nothing runs on a broken graph.
func Assemble(build func(*AssemblyCtx) (runtime.ReactorBehavior, error)) (*World, error) {
	g := newGlobalAssembler()

	rootInfo := domain.RootDebugInfo("")
	rootID, err := g.newReactorID(rootInfo)
	if err != nil {
		return nil, err
	}
	rootCtx := newAssemblyCtx(g, rootID, rootInfo)

	root, err := build(rootCtx)
	if err != nil {
		return nil, &domain.AssemblyContextError{Container: rootInfo.InstPath, Err: err}
	}
	g.reactors = append(g.reactors, root)

	return g.finish()
}

// finish topologically sorts the data-flow graph, computes the ordered
// reaction descendants of every port, and snapshots the trigger graph
// into the immutable Schedulable.
func (g *globalAssembler) finish() (*World, error) {
	g.closed = true

	sorted, err := g.dataflow.toposort(g.registry)
	if err != nil {
		return nil, err
	}

	topoIndex := make(map[domain.GlobalReactionID]int)
	for _, n := range sorted {
		if n.kind == nodeReaction {
			topoIndex[domain.GlobalReactionID(n.id)] = len(topoIndex)
		}
	}

	reactionsByPort := make(map[domain.GlobalID][]domain.GlobalReactionID)
	for _, n := range sorted {
		if n.kind != nodePort {
			continue
		}
		reached := g.dataflow.descendants(n)
		var downstream []domain.GlobalReactionID
		// Walk the global topo order so the per-port list is already
		// sorted the way the wave executor needs it.
		for _, m := range sorted {
			if m.kind != nodeReaction {
				continue
			}
			if _, ok := reached[m]; ok {
				downstream = append(downstream, domain.GlobalReactionID(m.id))
			}
		}
		reactionsByPort[n.id] = downstream
	}

	actionTriggers := make(map[domain.GlobalID][]domain.GlobalReactionID, len(g.triggers.actionTriggers))
	for action, reactions := range g.triggers.actionTriggers {
		actionTriggers[action] = append([]domain.GlobalReactionID(nil), reactions...)
	}

	schedulable := runtime.NewSchedulable(
		reactionsByPort,
		actionTriggers,
		g.reactionUses,
		g.reactionAffects,
		g.reactionSchedules,
		topoIndex,
		g.registry,
	)

	return &World{
		schedulable: schedulable,
		reactors:    g.reactors,
		registry:    g.registry,
		dataflow:    g.dataflow,
		triggers:    g.triggers,
	}, nil
}

// World is the output of a successful assembly: the validated
// Schedulable snapshot, the reactor instances, and the retained graphs
// for debugging exports.
type World struct {
	schedulable *runtime.Schedulable
	reactors    []runtime.ReactorBehavior
	registry    *domain.IDRegistry
	dataflow    *flowGraph
	triggers    *triggerGraph
}

// Schedulable returns the immutable topology snapshot.
func (w *World) Schedulable() *runtime.Schedulable { return w.schedulable }

// Reactors returns the assembled reactor instances, in registration
// order.
func (w *World) Reactors() []runtime.ReactorBehavior { return w.reactors }

// Registry returns the debug-label registry.
func (w *World) Registry() *domain.IDRegistry { return w.registry }
