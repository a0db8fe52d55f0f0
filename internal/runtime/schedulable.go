package runtime

import (
	"github.com/ahrav/go-reactor/internal/domain"
)

// Schedulable is the immutable topology snapshot handed from the
// assembler to the scheduler. It records, for every port, the ordered
// list of reactions transitively downstream of it; for every action,
// the reactions it triggers; and, for every reaction, the components
// it declared access to.
//
// A Schedulable is read-only after construction and therefore safe to
// share between the scheduler thread and scheduler links.
type Schedulable struct {
	reactionsByPort map[domain.GlobalID][]domain.GlobalReactionID
	actionTriggers  map[domain.GlobalID][]domain.GlobalReactionID

	reactionUses      map[domain.GlobalReactionID]map[domain.GlobalID]struct{}
	reactionAffects   map[domain.GlobalReactionID]map[domain.GlobalID]struct{}
	reactionSchedules map[domain.GlobalReactionID]map[domain.GlobalID]struct{}

	// topoIndex assigns every reaction its position in the topological
	// order of the data-flow graph. The indices are dense in
	// [0, ReactionCount), which sizes the wave's deduplication bitset
	// and orders the wave's pending queue.
	topoIndex map[domain.GlobalReactionID]int

	registry *domain.IDRegistry
}

// NewSchedulable builds a snapshot from the assembler's computed maps.
// The maps are adopted, not copied; the assembler must not mutate them
// afterwards.
func NewSchedulable(
	reactionsByPort map[domain.GlobalID][]domain.GlobalReactionID,
	actionTriggers map[domain.GlobalID][]domain.GlobalReactionID,
	reactionUses map[domain.GlobalReactionID]map[domain.GlobalID]struct{},
	reactionAffects map[domain.GlobalReactionID]map[domain.GlobalID]struct{},
	reactionSchedules map[domain.GlobalReactionID]map[domain.GlobalID]struct{},
	topoIndex map[domain.GlobalReactionID]int,
	registry *domain.IDRegistry,
) *Schedulable {
	return &Schedulable{
		reactionsByPort:   reactionsByPort,
		actionTriggers:    actionTriggers,
		reactionUses:      reactionUses,
		reactionAffects:   reactionAffects,
		reactionSchedules: reactionSchedules,
		topoIndex:         topoIndex,
		registry:          registry,
	}
}

// DownstreamReactions returns the reactions transitively downstream of
// the given port, in topological order. The returned slice must not be
// modified.
func (s *Schedulable) DownstreamReactions(port domain.GlobalID) []domain.GlobalReactionID {
	return s.reactionsByPort[port]
}

// TriggeredReactions returns the reactions triggered by the given
// action. The returned slice must not be modified.
func (s *Schedulable) TriggeredReactions(action domain.GlobalID) []domain.GlobalReactionID {
	return s.actionTriggers[action]
}

// MayUse reports whether the reaction declared a use dependency on the
// port.
func (s *Schedulable) MayUse(reaction domain.GlobalReactionID, port domain.GlobalID) bool {
	_, ok := s.reactionUses[reaction][port]
	return ok
}

// MayAffect reports whether the reaction declared an affects
// dependency on the port.
func (s *Schedulable) MayAffect(reaction domain.GlobalReactionID, port domain.GlobalID) bool {
	_, ok := s.reactionAffects[reaction][port]
	return ok
}

// MaySchedule reports whether the reaction declared that it schedules
// the action.
func (s *Schedulable) MaySchedule(reaction domain.GlobalReactionID, action domain.GlobalID) bool {
	_, ok := s.reactionSchedules[reaction][action]
	return ok
}

// TopoIndex returns the reaction's dense position in the topological
// order of the data-flow graph.
func (s *Schedulable) TopoIndex(reaction domain.GlobalReactionID) int {
	return s.topoIndex[reaction]
}

// ReactionCount returns the total number of reactions in the program.
func (s *Schedulable) ReactionCount() int { return len(s.topoIndex) }

// Registry returns the debug-label registry populated at assembly.
func (s *Schedulable) Registry() *domain.IDRegistry { return s.registry }
