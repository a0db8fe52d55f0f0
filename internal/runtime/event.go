package runtime

import (
	"container/heap"

	"github.com/ahrav/go-reactor/internal/domain"
)

// Event pairs a logical tag with the non-empty set of reactions that
// must fire at it. Events are the only objects created and destroyed
// at run time; everything else is fixed at assembly.
type Event struct {
	// Tag is the logical coordinate at which the reactions fire.
	Tag domain.LogicalTag
	// Reactions are the reactions to enqueue into the wave at Tag.
	Reactions []domain.GlobalReactionID
}

// eventQueue is a priority queue of events keyed by tag, earliest
// first. Events pushed with a tag already present are coalesced into
// the existing event, so a single wave fires per tag and a reaction
// can never run twice at one tag.
//
// The queue is owned by the scheduler thread and is not safe for
// concurrent use; asynchronous producers reach it through the event
// channel instead.
type eventQueue struct {
	heap  eventHeap
	byTag map[domain.LogicalTag]*Event
}

func newEventQueue() *eventQueue {
	return &eventQueue{byTag: make(map[domain.LogicalTag]*Event)}
}

// Push inserts an event, merging its reactions into any event already
// queued at the same tag.
func (q *eventQueue) Push(ev Event) {
	if existing, ok := q.byTag[ev.Tag]; ok {
		existing.Reactions = append(existing.Reactions, ev.Reactions...)
		return
	}
	queued := &Event{Tag: ev.Tag, Reactions: ev.Reactions}
	q.byTag[ev.Tag] = queued
	heap.Push(&q.heap, queued)
}

// Pop removes and returns the event with the smallest tag. It must not
// be called on an empty queue.
func (q *eventQueue) Pop() Event {
	ev := heap.Pop(&q.heap).(*Event)
	delete(q.byTag, ev.Tag)
	return *ev
}

// Len returns the number of distinct tags currently queued.
func (q *eventQueue) Len() int { return len(q.heap) }

// eventHeap implements heap.Interface over events ordered by tag.
type eventHeap []*Event

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].Tag.Before(h[j].Tag) }
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)         { *h = append(*h, x.(*Event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}
