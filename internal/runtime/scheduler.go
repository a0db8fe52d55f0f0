package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ahrav/go-reactor/internal/domain"
	"github.com/ahrav/go-reactor/internal/ports"
)

// DefaultIdleTimeout is the receive timeout applied when the event
// queue is empty and no idle timeout was configured.
const DefaultIdleTimeout = 500 * time.Millisecond

// DefaultEventBuffer is the capacity of the asynchronous event channel
// when none was configured.
const DefaultEventBuffer = 64

// Options configures a scheduler run.
type Options struct {
	// Timeout bounds the logical duration of the run, measured from
	// the initial tag. Events at tags past the deadline are discarded
	// and the scheduler transitions to shutdown. Zero means no bound.
	Timeout time.Duration

	// KeepAlive keeps the scheduler blocked on the event channel when
	// the queue is empty, waiting for asynchronous producers, instead
	// of exiting after one idle interval.
	KeepAlive bool

	// IdleTimeout is how long an empty scheduler blocks on the channel
	// before deciding the run is over (or, with KeepAlive, before
	// re-checking). Defaults to DefaultIdleTimeout.
	IdleTimeout time.Duration

	// EventBuffer is the capacity of the asynchronous event channel.
	// Defaults to DefaultEventBuffer.
	EventBuffer int

	// Clock supplies physical time. Defaults to the real clock; tests
	// substitute a fake one.
	Clock clockwork.Clock

	// Logger receives lifecycle logging. Defaults to the standard
	// logrus logger.
	Logger logrus.FieldLogger

	// Observers receive execution notifications (metrics, tracing).
	Observers []ports.ExecutionObserver
}

// Scheduler directs the execution of a reactor program: it owns the
// priority queue of events, pops them in tag order, aligns logical to
// physical time, and executes one wave per tag. All reactor state is
// confined to the goroutine that calls Run; asynchronous producers
// reach the timeline exclusively through SchedulerLink.
type Scheduler struct {
	opts        Options
	schedulable *Schedulable
	reactors    []ReactorBehavior
	byID        map[domain.ReactorID]ReactorBehavior

	clock     clockwork.Clock
	logger    logrus.FieldLogger
	observers []ports.ExecutionObserver

	queue    *eventQueue
	events   chan Event
	overflow []Event
	done     chan struct{}

	current    *tagCell
	currentTag domain.LogicalTag
	initialTag domain.LogicalTag

	shutdownRequested bool
	shutdownReactions ReactionSet
}

// NewScheduler creates a scheduler over a validated topology snapshot
// and the reactor instances it refers to.
func NewScheduler(schedulable *Schedulable, reactors []ReactorBehavior, opts Options) *Scheduler {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	byID := make(map[domain.ReactorID]ReactorBehavior, len(reactors))
	for _, r := range reactors {
		byID[r.ID()] = r
	}

	return &Scheduler{
		opts:        opts,
		schedulable: schedulable,
		reactors:    reactors,
		byID:        byID,
		clock:       opts.Clock,
		logger:      opts.Logger,
		observers:   opts.Observers,
		queue:       newEventQueue(),
		events:      make(chan Event, opts.EventBuffer),
		done:        make(chan struct{}),
		current:     &tagCell{},
	}
}

// NewLink returns a clonable handle through which other goroutines can
// schedule physical actions into this scheduler.
func (s *Scheduler) NewLink() SchedulerLink {
	return SchedulerLink{
		events:      s.events,
		done:        s.done,
		current:     s.current,
		clock:       s.clock,
		schedulable: s.schedulable,
	}
}

// Run executes the program to completion: startup reactions at the
// initial tag, then the main event loop, then shutdown reactions. It
// returns when the queue drains past the keep-alive policy, when the
// configured timeout elapses, when a reaction requests shutdown, or
// when ctx is cancelled.
//
// Run must be called exactly once.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)

	s.initialTag = domain.LogicalTag{Time: s.clock.Now()}
	s.currentTag = s.initialTag
	s.current.store(s.initialTag)

	startup, shutdown := &StartupCtx{}, &StartupCtx{}
	for _, r := range s.reactors {
		r.EnqueueStartup(startup)
		r.EnqueueShutdown(shutdown)
	}
	s.shutdownReactions = shutdown.reactions
	if len(startup.reactions) > 0 {
		s.queue.Push(Event{Tag: s.initialTag, Reactions: startup.reactions})
	}

	s.logger.WithFields(logrus.Fields{
		"reactors":  len(s.reactors),
		"reactions": s.schedulable.ReactionCount(),
		"startup":   len(startup.reactions),
	}).Info("scheduler starting")

	for {
		if err := ctx.Err(); err != nil {
			s.runShutdown()
			return err
		}

		s.drainChannel()

		if s.queue.Len() == 0 {
			proceed, err := s.awaitEvent(ctx)
			if err != nil {
				s.runShutdown()
				return err
			}
			if !proceed {
				break
			}
			continue
		}

		ev := s.queue.Pop()
		s.notifyQueueDepth()

		if s.opts.Timeout > 0 && ev.Tag.Time.After(s.initialTag.Time.Add(s.opts.Timeout)) {
			s.logger.WithField("tag", ev.Tag.String()).Debug("timeout reached, discarding remaining events")
			break
		}

		if err := s.catchUp(ctx, ev.Tag); err != nil {
			s.runShutdown()
			return err
		}

		instant := ev.Tag.Time
		if now := s.clock.Now(); now.After(instant) {
			instant = now
		}
		s.currentTag = domain.LogicalTag{Time: instant, Microstep: ev.Tag.Microstep}

		s.runWave(s.currentTag, ev.Reactions)

		if s.shutdownRequested {
			s.logger.Debug("shutdown requested by reaction")
			break
		}
	}

	s.runShutdown()
	return nil
}

// drainChannel moves every event currently buffered in the channel
// (and any overflow from the scheduler's own waves) into the queue.
func (s *Scheduler) drainChannel() {
	for {
		select {
		case ev := <-s.events:
			s.insert(ev)
		default:
			for _, ev := range s.overflow {
				s.insert(ev)
			}
			s.overflow = s.overflow[:0]
			s.notifyQueueDepth()
			return
		}
	}
}

// insert queues an event, coercing tags that are not in the future:
// an event at or before the current tag lands on the next microstep of
// the current instant, so it is still observed exactly once.
func (s *Scheduler) insert(ev Event) {
	if len(ev.Reactions) == 0 {
		return
	}
	if !ev.Tag.After(s.currentTag) {
		ev.Tag = s.currentTag.Successor()
	}
	s.queue.Push(ev)
}

// awaitEvent blocks on the channel while the queue is empty. It
// returns false when the run is over per the keep-alive policy.
func (s *Scheduler) awaitEvent(ctx context.Context) (bool, error) {
	for {
		select {
		case ev := <-s.events:
			s.insert(ev)
			return true, nil
		case <-s.clock.After(s.opts.IdleTimeout):
			if !s.opts.KeepAlive {
				s.logger.Debug("queue empty and keep-alive disabled, stopping")
				return false, nil
			}
			if s.opts.Timeout > 0 && s.clock.Now().After(s.initialTag.Time.Add(s.opts.Timeout)) {
				s.logger.Debug("timeout reached while idle, stopping")
				return false, nil
			}
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// catchUp sleeps until physical time has reached the tag's instant, so
// a wave never fires before its logical time.
func (s *Scheduler) catchUp(ctx context.Context, tag domain.LogicalTag) error {
	now := s.clock.Now()
	if !now.Before(tag.Time) {
		return nil
	}
	select {
	case <-s.clock.After(tag.Time.Sub(now)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runWave executes all reactions of one tag and clears port state
// afterwards.
func (s *Scheduler) runWave(tag domain.LogicalTag, reactions []domain.GlobalReactionID) {
	wave := newWave(s, tag)
	wave.enqueue(reactions)

	for _, obs := range s.observers {
		obs.WaveStarted(tag, wave.pending.Len())
	}
	start := s.clock.Now()
	wave.execute()
	elapsed := s.clock.Since(start)
	for _, obs := range s.observers {
		obs.WaveCompleted(tag, wave.fired, elapsed)
	}

	cleanup := &CleanupCtx{Tag: tag}
	for _, r := range s.reactors {
		r.CleanupTag(cleanup)
	}
	s.current.store(tag)

	s.logger.WithFields(logrus.Fields{
		"tag":   tag.String(),
		"fired": wave.fired,
	}).Debug("wave completed")
}

// runShutdown executes the registered shutdown reactions one microstep
// past the last processed tag.
func (s *Scheduler) runShutdown() {
	if len(s.shutdownReactions) == 0 {
		return
	}
	tag := s.currentTag.Successor()
	s.currentTag = tag
	s.runWave(tag, s.shutdownReactions)
	s.logger.WithField("tag", tag.String()).Info("scheduler stopped")
}

func (s *Scheduler) reactorByID(id domain.ReactorID) ReactorBehavior {
	return s.byID[id]
}

// sendEvent is how waves hand future events back to the scheduler: it
// goes through the channel so the queue stays owned by the event loop.
// When the channel is full the event is parked in a local overflow
// list; both are drained before the next pop.
func (s *Scheduler) sendEvent(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.overflow = append(s.overflow, ev)
	}
}

func (s *Scheduler) notifyQueueDepth() {
	for _, obs := range s.observers {
		obs.QueueDepth(s.queue.Len())
	}
}

// InitialTag returns the tag the run started at. It is only meaningful
// after Run has begun.
func (s *Scheduler) InitialTag() domain.LogicalTag { return s.initialTag }

// String describes the scheduler configuration for logging.
func (s *Scheduler) String() string {
	return fmt.Sprintf("scheduler(reactors=%d, reactions=%d, timeout=%s, keep_alive=%t)",
		len(s.reactors), s.schedulable.ReactionCount(), s.opts.Timeout, s.opts.KeepAlive)
}
