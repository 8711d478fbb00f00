// Package navigation implements the carousel's transition state machine.
//
// The Controller is the single gate for every navigation request. It admits
// one transition at a time; requests arriving while a transition is queued
// or animating are dropped, never queued. A granted request yields for one
// frame, tags the slides and then waits for the rendering layer to report
// that the animation finished. A fallback timer guarantees the controller
// returns to Idle even when that report never arrives.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/teranos/carousel/clock"
	"github.com/teranos/carousel/logger"
	"github.com/teranos/carousel/slides"
	"github.com/teranos/carousel/trip"
)

// FallbackMargin is added to the transition duration to derive the fallback
// completion timeout.
const FallbackMargin = 100 * time.Millisecond

var (
	// ErrTransitionTimeout marks a transition settled by the fallback timer.
	ErrTransitionTimeout = errors.New("transition completion signal missed")

	// ErrClosed is the error of a transition cut short by Close.
	ErrClosed = errors.New("navigation controller closed")
)

// Sequence is the slide bookkeeping the controller drives. *slides.Manager
// implements it.
type Sequence interface {
	RealCount() int
	Current() int
	Slides() []slides.Slide
	Resolve(dir slides.Direction) (slides.Quad, error)
	BeginTransition(q slides.Quad, dir slides.Direction) error
	Settle(dir slides.Direction) bool
}

// State is the externally visible controller state.
type State int

const (
	Idle State = iota
	Transitioning
)

func (s State) String() string {
	if s == Transitioning {
		return "transitioning"
	}
	return "idle"
}

type phase int

const (
	phaseIdle phase = iota
	phaseQueued
	phaseAnimating
)

// Event describes one transition. From and To are panel indices.
type Event struct {
	ID        uint64
	Direction slides.Direction
	From      int
	To        int
	Quad      slides.Quad
	Wrapped   bool // clone bookkeeping ran at settle
	TimedOut  bool // settled by the fallback timer
}

// Hooks observe the transition lifecycle. They run without the controller's
// lock held; panics are recovered and reported.
type Hooks struct {
	// BeforeTransition runs on the frame step before slides are tagged.
	BeforeTransition func(Event)
	// OnStart runs once the slides are tagged and the index advanced.
	OnStart func(Event)
	// AfterSettle runs once the controller is Idle again, before the
	// request's completion callback.
	AfterSettle func(Event)
}

// Config configures a Controller.
type Config struct {
	// Duration is the rendering layer's animation length.
	Duration time.Duration
	// Margin is added to Duration for the fallback timeout. Zero means
	// FallbackMargin.
	Margin time.Duration
	Clock  clock.Clock
	Logger *log.Logger
	// Report receives every trip the controller produces.
	Report func(*trip.Trip)
	Hooks  Hooks
}

// Controller is the navigation state machine. It is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	seq      Sequence
	clock    clock.Clock
	log      *log.Logger
	report   func(*trip.Trip)
	hooks    Hooks
	duration time.Duration
	margin   time.Duration

	phase      phase
	closed     bool
	nextID     uint64
	active     *Transition
	onComplete func()
	frame      clock.Timer
	fallback   clock.Timer
}

// New creates a controller over seq.
func New(seq Sequence, cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Margin <= 0 {
		cfg.Margin = FallbackMargin
	}

	return &Controller{
		seq:      seq,
		clock:    cfg.Clock,
		log:      cfg.Logger,
		report:   cfg.Report,
		hooks:    cfg.Hooks,
		duration: cfg.Duration,
		margin:   cfg.Margin,
	}
}

// Timeout is the fallback completion timeout.
func (c *Controller) Timeout() time.Duration {
	return c.duration + c.margin
}

// Navigate requests one step in dir. It returns nil when the request is
// dropped: a transition is already in flight, fewer than two slides exist,
// the direction is not a step, or the controller is closed. onComplete runs
// after the transition settles.
func (c *Controller) Navigate(dir slides.Direction, onComplete func()) *Transition {
	c.mu.Lock()
	defer c.mu.Unlock()

	reason := ""
	switch {
	case c.closed:
		reason = "closed"
	case c.phase != phaseIdle:
		reason = "transition in flight"
	case c.seq.RealCount() < 2:
		reason = "single slide"
	case dir != slides.Forward && dir != slides.Backward:
		reason = "no direction"
	}
	if reason != "" {
		c.log.Debug("navigation dropped", "direction", dir, "reason", reason)
		return nil
	}

	c.nextID++
	t := newTransition(c.nextID, dir)
	c.active = t
	c.onComplete = onComplete
	c.phase = phaseQueued

	// Yield one frame so the previous layout is committed before tagging.
	c.frame = c.clock.AfterFunc(0, func() { c.runFrame(t) })
	return t
}

// TransitionEnd is the rendering layer's completion signal for whatever
// transition is animating. It reports whether a transition settled.
func (c *Controller) TransitionEnd() bool {
	c.mu.Lock()
	t := c.active
	animating := c.phase == phaseAnimating
	c.mu.Unlock()

	if !animating || t == nil {
		return false
	}
	return c.settle(t.ID, false)
}

// Complete is TransitionEnd for a specific transition. Signals for stale
// transitions are ignored.
func (c *Controller) Complete(id uint64) bool {
	return c.settle(id, false)
}

// State reports Idle or Transitioning.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == phaseIdle {
		return Idle
	}
	return Transitioning
}

// Active returns the transition in flight, if any.
func (c *Controller) Active() *Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Current returns the panel index of the center slide.
func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.Current()
}

// Slides returns a snapshot of the slide sequence.
func (c *Controller) Slides() []slides.Slide {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.Slides()
}

// Close stops all timers. A transition in flight finishes with ErrClosed and
// later requests are dropped. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	t := c.active
	c.reset()
	c.mu.Unlock()

	if t != nil {
		t.finish(ErrClosed, false)
	}
}

// reset returns to Idle. Callers hold c.mu.
func (c *Controller) reset() {
	if c.frame != nil {
		c.frame.Stop()
		c.frame = nil
	}
	if c.fallback != nil {
		c.fallback.Stop()
		c.fallback = nil
	}
	c.phase = phaseIdle
	c.active = nil
	c.onComplete = nil
}

// locked runs fn under the lock, turning a panic into an error and leaving
// the controller Idle.
func (c *Controller) locked(step string, fn func() error) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			c.reset()
			err = fmt.Errorf("%s panicked: %v", step, r)
		}
	}()
	return fn()
}

func (c *Controller) runFrame(t *Transition) {
	c.mu.Lock()
	if c.closed || c.active != t {
		c.mu.Unlock()
		return
	}
	c.frame = nil
	from := c.seq.Current()
	n := c.seq.RealCount()
	before := c.hooks.BeforeTransition
	c.mu.Unlock()

	ev := Event{
		ID:        t.ID,
		Direction: t.Direction,
		From:      from,
		To:        ((from+t.Direction.Step())%n + n) % n,
	}
	c.call("before-transition", before, ev)

	started := false
	err := c.locked("frame", func() error {
		if c.closed || c.active != t {
			return nil
		}

		q, err := c.seq.Resolve(t.Direction)
		if err == nil {
			err = c.seq.BeginTransition(q, t.Direction)
		}
		if err != nil {
			c.reset()
			return err
		}

		ev.Quad = q
		ev.To = c.seq.Current()
		t.setEvent(ev)

		c.phase = phaseAnimating
		id := t.ID
		c.fallback = c.clock.AfterFunc(c.Timeout(), func() { c.expire(id) })
		started = true
		return nil
	})

	if err != nil {
		tr := trip.Wrap(err, trip.KindNavigation, trip.Error, trip.Context{
			"direction": t.Direction.String(),
			"from":      from,
		})
		c.emit(tr)
		t.finish(tr, false)
		return
	}
	if started {
		c.log.Debug("transition started", "id", ev.ID, "direction", ev.Direction, "from", ev.From, "to", ev.To)
		c.call("on-start", c.hooks.OnStart, ev)
	}
}

func (c *Controller) expire(id uint64) {
	c.settle(id, true)
}

func (c *Controller) settle(id uint64, timedOut bool) bool {
	var (
		t          *Transition
		ev         Event
		onComplete func()
	)

	err := c.locked("settle", func() error {
		if c.phase != phaseAnimating || c.active == nil || c.active.ID != id {
			return nil
		}
		t = c.active
		onComplete = c.onComplete

		ev = t.Event()
		ev.TimedOut = timedOut
		ev.Wrapped = c.seq.Settle(t.Direction)
		ev.To = c.seq.Current()
		t.setEvent(ev)

		c.reset()
		return nil
	})

	if err != nil {
		c.emit(trip.Wrap(err, trip.KindNavigation, trip.Error, trip.Context{"id": id}))
		if t != nil {
			t.finish(err, timedOut)
		}
		return false
	}
	if t == nil {
		return false
	}

	if timedOut {
		c.emit(trip.Wrap(fmt.Errorf("transition %d after %s: %w", id, c.Timeout(), ErrTransitionTimeout),
			trip.KindTimeout, trip.Stumble, trip.Context{
				"direction": ev.Direction.String(),
				"to":        ev.To,
			}))
	}
	c.log.Debug("transition settled", "id", id, "to", ev.To, "wrapped", ev.Wrapped, "timed_out", timedOut)

	c.call("after-settle", c.hooks.AfterSettle, ev)
	if onComplete != nil {
		c.call("on-complete", func(Event) { onComplete() }, ev)
	}
	t.finish(nil, timedOut)
	return true
}

// call runs a callback, recovering a panic into a reported trip.
func (c *Controller) call(name string, fn func(Event), ev Event) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.emit(trip.NewTrip(trip.KindNavigation, fmt.Sprintf("%s callback panicked: %v", name, r),
				trip.Context{"id": ev.ID}))
		}
	}()
	fn(ev)
}

func (c *Controller) emit(tr *trip.Trip) {
	switch tr.Severity {
	case trip.Stumble:
		c.log.Warn(tr.Message, tr.Keyvals()...)
	default:
		c.log.Error(tr.Message, tr.Keyvals()...)
	}
	if c.report != nil {
		c.report(tr)
	}
}

// Transition is the handle of one granted navigation request.
type Transition struct {
	ID        uint64
	Direction slides.Direction

	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	err      error
	timedOut bool
	event    Event
}

func newTransition(id uint64, dir slides.Direction) *Transition {
	return &Transition{
		ID:        id,
		Direction: dir,
		done:      make(chan struct{}),
		event:     Event{ID: id, Direction: dir},
	}
}

// Done is closed once the transition settled or failed.
func (t *Transition) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the transition is done or ctx ends.
func (t *Transition) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err is the failure of a transition that never started, or ErrClosed.
func (t *Transition) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// TimedOut reports whether the fallback timer settled the transition.
func (t *Transition) TimedOut() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timedOut
}

// Event returns what is known about the transition so far.
func (t *Transition) Event() Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.event
}

func (t *Transition) setEvent(ev Event) {
	t.mu.Lock()
	t.event = ev
	t.mu.Unlock()
}

func (t *Transition) finish(err error, timedOut bool) {
	t.once.Do(func() {
		t.mu.Lock()
		t.err = err
		t.timedOut = timedOut
		t.mu.Unlock()
		close(t.done)
	})
}
