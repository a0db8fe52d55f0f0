package runtime

import (
	"container/heap"
	"fmt"

	"github.com/ahrav/go-reactor/internal/domain"
)

// reactionWave executes all reactions of a single logical tag. Port
// writes during the wave propagate into further reactions at the same
// tag; action schedules leave the wave through the scheduler's event
// channel and re-enter the main queue at a later tag.
//
// A wave fires each reaction at most once: a bitset over the dense
// topological indices deduplicates re-entries, and the pending queue
// pops reactions in topological order so that a reaction never fires
// before one of its upstream dependencies.
type reactionWave struct {
	tag   domain.LogicalTag
	sched *Scheduler

	pending   pendingHeap
	scheduled []uint64
	fired     int
}

func newWave(sched *Scheduler, tag domain.LogicalTag) *reactionWave {
	words := (sched.schedulable.ReactionCount() + 63) / 64
	return &reactionWave{
		tag:       tag,
		sched:     sched,
		scheduled: make([]uint64, words),
	}
}

// enqueue adds reactions to the wave, skipping any that were already
// scheduled at this tag. The reactions must carry valid topological
// indices; the assembler guarantees that for every reaction it emits.
func (w *reactionWave) enqueue(reactions []domain.GlobalReactionID) {
	for _, rid := range reactions {
		idx := w.sched.schedulable.TopoIndex(rid)
		word, bit := idx/64, uint(idx%64)
		if w.scheduled[word]&(1<<bit) != 0 {
			continue
		}
		w.scheduled[word] |= 1 << bit
		heap.Push(&w.pending, pendingReaction{id: rid, topo: idx})
	}
}

// execute fires pending reactions until the wave drains. New reactions
// enqueued by port writes are interleaved in topological position.
func (w *reactionWave) execute() {
	for w.pending.Len() > 0 {
		next := heap.Pop(&w.pending).(pendingReaction)
		w.fire(next.id)
	}
}

func (w *reactionWave) fire(rid domain.GlobalReactionID) {
	reactor := w.sched.reactorByID(rid.Container())
	if reactor == nil {
		panic(fmt.Sprintf("no reactor registered for reaction %s", rid))
	}
	ctx := &LogicalCtx{wave: w, reaction: rid}
	reactor.ReactErased(ctx, rid.Local())
	w.fired++
	for _, obs := range w.sched.observers {
		obs.ReactionFired(rid, w.tag)
	}
}

// pendingReaction is a queued reaction together with its topological
// priority.
type pendingReaction struct {
	id   domain.GlobalReactionID
	topo int
}

// pendingHeap orders pending reactions by topological index, lowest
// first.
type pendingHeap []pendingReaction

func (h pendingHeap) Len() int           { return len(h) }
func (h pendingHeap) Less(i, j int) bool { return h[i].topo < h[j].topo }
func (h pendingHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *pendingHeap) Push(x any)        { *h = append(*h, x.(pendingReaction)) }
func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	*h = old[:n-1]
	return r
}
