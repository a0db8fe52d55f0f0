// Package assembly builds and validates reactor topologies. It turns a
// single construction pass over ports, actions, reactions, and
// bindings into the immutable Schedulable snapshot the scheduler
// executes, rejecting structurally invalid programs before anything
// runs.
package assembly

import (
	"github.com/ahrav/go-reactor/internal/domain"
)

// nodeKind discriminates the two node types of the data-flow graph.
type nodeKind uint8

const (
	nodeReaction nodeKind = iota
	nodePort
)

// graphNode is a node of the data-flow graph: either a reaction or a
// port. Nodes are comparable and used as map keys.
type graphNode struct {
	kind nodeKind
	id   domain.GlobalID
}

func reactionNode(r domain.GlobalReactionID) graphNode {
	return graphNode{kind: nodeReaction, id: domain.GlobalID(r)}
}

func portNode(p domain.GlobalID) graphNode {
	return graphNode{kind: nodePort, id: p}
}

// flowGraph is the data-flow dependency graph over reactions and
// ports. Edges point in execution order: port -> reaction for uses,
// reaction -> port for affects, port -> port for bindings, and
// reaction -> reaction for declaration-order priority.
//
// The graph must be acyclic; toposort verifies that once assembly
// completes. Node and edge insertion order is preserved so that the
// topological order, and with it the within-tag execution order, is
// deterministic across runs.
type flowGraph struct {
	order    []graphNode
	nodes    map[graphNode]struct{}
	edges    map[graphNode][]graphNode
	edgeSet  map[[2]graphNode]struct{}
	inDegree map[graphNode]int
}

func newFlowGraph() *flowGraph {
	return &flowGraph{
		nodes:    make(map[graphNode]struct{}),
		edges:    make(map[graphNode][]graphNode),
		edgeSet:  make(map[[2]graphNode]struct{}),
		inDegree: make(map[graphNode]int),
	}
}

// addNode registers a node. Adding a node twice is a no-op.
func (g *flowGraph) addNode(n graphNode) {
	if _, ok := g.nodes[n]; ok {
		return
	}
	g.nodes[n] = struct{}{}
	g.order = append(g.order, n)
	g.inDegree[n] = 0
}

// addEdge records a directed dependency. Both endpoints are added if
// missing; duplicate edges are ignored.
func (g *flowGraph) addEdge(from, to graphNode) {
	g.addNode(from)
	g.addNode(to)
	key := [2]graphNode{from, to}
	if _, ok := g.edgeSet[key]; ok {
		return
	}
	g.edgeSet[key] = struct{}{}
	g.edges[from] = append(g.edges[from], to)
	g.inDegree[to]++
}

// hasIncoming reports whether any edge points at the node. A port with
// an incoming edge is already driven, by a reaction or by another
// port.
func (g *flowGraph) hasIncoming(n graphNode) bool {
	return g.inDegree[n] > 0
}

// toposort returns the nodes in topological order using Kahn's
// algorithm, seeded and advanced in insertion order so the result is
// deterministic. A cycle yields a CyclicDependencyError naming one of
// its members.
func (g *flowGraph) toposort(registry *domain.IDRegistry) ([]graphNode, error) {
	degree := make(map[graphNode]int, len(g.inDegree))
	for n, d := range g.inDegree {
		degree[n] = d
	}

	queue := make([]graphNode, 0, len(g.order))
	for _, n := range g.order {
		if degree[n] == 0 {
			queue = append(queue, n)
		}
	}

	sorted := make([]graphNode, 0, len(g.order))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		sorted = append(sorted, n)
		for _, next := range g.edges[n] {
			degree[next]--
			if degree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(sorted) != len(g.order) {
		// Every unsorted node has an unsorted predecessor, so walking
		// back from one must revisit a node, and that node lies on a cycle.
		pred := make(map[graphNode]graphNode)
		for _, from := range g.order {
			for _, to := range g.edges[from] {
				if degree[from] > 0 && degree[to] > 0 {
					pred[to] = from
				}
			}
		}
		for _, n := range g.order {
			if degree[n] > 0 {
				for seen := map[graphNode]bool{}; !seen[n]; n = pred[n] {
					seen[n] = true
				}
				return nil, &domain.CyclicDependencyError{Member: g.describe(n, registry)}
			}
		}
		return nil, &domain.CyclicDependencyError{Member: "<unknown>"}
	}
	return sorted, nil
}

// descendants returns the nodes (reactions and ports) reachable from
// start, excluding start itself.
func (g *flowGraph) descendants(start graphNode) map[graphNode]struct{} {
	reached := make(map[graphNode]struct{})
	stack := append([]graphNode(nil), g.edges[start]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := reached[n]; seen {
			continue
		}
		reached[n] = struct{}{}
		stack = append(stack, g.edges[n]...)
	}
	return reached
}

func (g *flowGraph) describe(n graphNode, registry *domain.IDRegistry) string {
	if n.kind == nodeReaction {
		return registry.ReactionPath(domain.GlobalReactionID(n.id))
	}
	return registry.ComponentPath(n.id)
}

// triggerGraph records the relationships between reactions and
// actions: which reactions an action triggers, and which actions a
// reaction may schedule. Unlike the data-flow graph it may contain
// cycles -- the action's delay breaks causality -- so it is a pair of
// adjacency maps with no ordering obligations.
type triggerGraph struct {
	actionOrder    []domain.GlobalID
	actionTriggers map[domain.GlobalID][]domain.GlobalReactionID

	reactionOrder     []domain.GlobalReactionID
	reactionSchedules map[domain.GlobalReactionID][]domain.GlobalID
}

func newTriggerGraph() *triggerGraph {
	return &triggerGraph{
		actionTriggers:    make(map[domain.GlobalID][]domain.GlobalReactionID),
		reactionSchedules: make(map[domain.GlobalReactionID][]domain.GlobalID),
	}
}

func (g *triggerGraph) addTrigger(action domain.GlobalID, reaction domain.GlobalReactionID) {
	if _, ok := g.actionTriggers[action]; !ok {
		g.actionOrder = append(g.actionOrder, action)
	}
	g.actionTriggers[action] = append(g.actionTriggers[action], reaction)
}

func (g *triggerGraph) addSchedules(reaction domain.GlobalReactionID, action domain.GlobalID) {
	if _, ok := g.reactionSchedules[reaction]; !ok {
		g.reactionOrder = append(g.reactionOrder, reaction)
	}
	g.reactionSchedules[reaction] = append(g.reactionSchedules[reaction], action)
}
