// Package carousel is an infinite-loop slide carousel engine.
//
// A Carousel wires the slide sequence, the navigation gate, autoplay and
// swipe handling together and exposes the surface a rendering layer needs:
// navigation requests, the completion signal, gesture and visibility input,
// and positional tags to draw. The engine never renders anything itself.
package carousel

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/teranos/carousel/autoplay"
	"github.com/teranos/carousel/clock"
	"github.com/teranos/carousel/config"
	"github.com/teranos/carousel/logger"
	"github.com/teranos/carousel/navigation"
	"github.com/teranos/carousel/position"
	"github.com/teranos/carousel/slides"
	"github.com/teranos/carousel/swipe"
	"github.com/teranos/carousel/trip"
)

// ErrorHook receives every Error and Fall trip of a carousel. Stumbles are
// only logged and kept in the trip handler.
type ErrorHook func(id uuid.UUID, t *trip.Trip)

type options struct {
	clock   clock.Clock
	logger  *log.Logger
	hook    ErrorHook
	visible bool
	id      uuid.UUID
	policy  *trip.Policy
}

// Option configures New.
type Option func(*options)

// WithClock sets the clock every timer is scheduled on.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithErrorHook registers the embedding host's error hook.
func WithErrorHook(h ErrorHook) Option {
	return func(o *options) { o.hook = h }
}

// WithVisibility sets whether the carousel starts on screen. The default is
// visible.
func WithVisibility(visible bool) Option {
	return func(o *options) { o.visible = visible }
}

// WithID fixes the carousel's identity instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(o *options) { o.id = id }
}

// WithTripPolicy sets the retention policy of the trip handler.
func WithTripPolicy(p *trip.Policy) Option {
	return func(o *options) { o.policy = p }
}

// EventKind tells subscribers what happened.
type EventKind int

const (
	// TransitionStarted is sent once slides are tagged for a transition.
	TransitionStarted EventKind = iota
	// IndexChanged is sent after a transition settled.
	IndexChanged
)

func (k EventKind) String() string {
	if k == IndexChanged {
		return "index-changed"
	}
	return "transition-started"
}

// Event is delivered to subscribers.
type Event struct {
	Kind       EventKind
	Index      int // panel index of the center slide
	Transition navigation.Event
}

// Carousel is one carousel instance. It is safe for concurrent use.
type Carousel struct {
	id       uuid.UUID
	settings config.Settings
	log      *log.Logger
	hook     ErrorHook
	trips    *trip.Handler

	seq   *slides.Manager
	nav   *navigation.Controller
	auto  *autoplay.Manager
	swipe *swipe.Handler
	pos   *position.Manager // offset mode only

	mu     sync.Mutex
	subs   map[int]chan Event
	nextSu int
	closed bool
}

// New builds a carousel from settings and panels. Configuration errors are
// fatal to the instance: the returned error is a Fall trip, it is passed to
// the error hook and no carousel is returned. A panic during construction
// is converted the same way.
func New(settings config.Settings, panels []slides.Panel, opts ...Option) (c *Carousel, err error) {
	o := options{visible: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clock.NewReal()
	}
	if o.logger == nil {
		o.logger = logger.Discard()
	}
	if o.id == uuid.Nil {
		o.id = uuid.New()
	}

	trips := trip.NewHandler(o.id.String(), o.policy)
	fall := func(cause error, ctx trip.Context) error {
		t := trip.Wrap(cause, trip.KindConfiguration, trip.Fall, ctx)
		trips.Record(t)
		o.logger.Error("carousel disabled", t.Keyvals()...)
		if o.hook != nil {
			o.hook(o.id, t)
		}
		return t
	}

	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = fall(fmt.Errorf("initialise carousel: panic: %v", r), trip.Context{"id": o.id.String()})
		}
	}()

	if err := settings.Validate(); err != nil {
		return nil, fall(err, trip.Context{"id": o.id.String()})
	}

	seq, err := slides.NewManager(panels)
	if err != nil {
		return nil, fall(err, trip.Context{"id": o.id.String(), "panels": len(panels)})
	}

	c = &Carousel{
		id:       o.id,
		settings: settings,
		log:      o.logger.With("carousel", o.id.String()[:8]),
		hook:     o.hook,
		trips:    trips,
		seq:      seq,
		subs:     make(map[int]chan Event),
	}

	if settings.Mode == config.ModeOffset {
		c.pos = position.New(seq.RealCount(), seq.Current(), o.clock)
	}

	c.nav = navigation.New(seq, navigation.Config{
		Duration: settings.TransitionDuration,
		Clock:    o.clock,
		Logger:   c.log,
		Report:   c.report,
		Hooks: navigation.Hooks{
			BeforeTransition: c.beforeTransition,
			OnStart:          c.onStart,
			AfterSettle:      c.afterSettle,
		},
	})

	c.auto = autoplay.New(c.nav, autoplay.Config{
		Enabled:             settings.AutoplayAllowed() && seq.RealCount() > 1,
		ReducedMotion:       settings.ReducedMotion,
		Interval:            settings.AutoplayInterval,
		VisibilityThreshold: settings.VisibilityThreshold,
		Visible:             o.visible,
		Clock:               o.clock,
		Logger:              c.log,
	})

	c.swipe = swipe.New(c.nav, swipe.Config{
		Threshold:  settings.SwipeThreshold,
		Debounce:   settings.SwipeDebounce,
		OnComplete: c.auto.Restart,
		Clock:      o.clock,
		Logger:     c.log,
	})

	c.auto.Setup()
	c.log.Debug("carousel ready", "slides", seq.RealCount(), "current", seq.Current(), "mode", settings.Mode)
	return c, nil
}

// ID is the carousel's identity.
func (c *Carousel) ID() uuid.UUID { return c.id }

// Settings returns the settings the carousel was built with.
func (c *Carousel) Settings() config.Settings { return c.settings }

// Navigate requests one manual step. Autoplay cadence restarts once the
// transition settles. A nil result means the request was dropped.
func (c *Carousel) Navigate(dir slides.Direction) *navigation.Transition {
	return c.nav.Navigate(dir, c.auto.Restart)
}

// Next is Navigate(slides.Forward).
func (c *Carousel) Next() *navigation.Transition { return c.Navigate(slides.Forward) }

// Prev is Navigate(slides.Backward).
func (c *Carousel) Prev() *navigation.Transition { return c.Navigate(slides.Backward) }

// TransitionEnd is the rendering layer's completion signal.
func (c *Carousel) TransitionEnd() bool { return c.nav.TransitionEnd() }

// Complete is the completion signal for a specific transition.
func (c *Carousel) Complete(id uint64) bool { return c.nav.Complete(id) }

// GestureStart begins tracking a pointer.
func (c *Carousel) GestureStart(pointer int, x, y float64) {
	c.swipe.Begin(pointer, swipe.Point{X: x, Y: y})
}

// GestureMove updates the tracked pointer.
func (c *Carousel) GestureMove(pointer int, x, y float64) {
	c.swipe.Move(pointer, swipe.Point{X: x, Y: y})
}

// GestureEnd finishes a gesture and reports the direction it requested.
func (c *Carousel) GestureEnd(pointer int, x, y float64) slides.Direction {
	return c.swipe.End(pointer, swipe.Point{X: x, Y: y})
}

// SetVisibility reports the on-screen ratio of the carousel.
func (c *Carousel) SetVisibility(ratio float64) { c.auto.SetVisibility(ratio) }

// Interact reports a direct interaction that pauses or resumes autoplay.
func (c *Carousel) Interact(ev autoplay.Interaction) { c.auto.Interact(ev) }

// Autoplaying reports whether the autoplay timer is armed.
func (c *Carousel) Autoplaying() bool { return c.auto.Running() }

// Current returns the panel index of the center slide.
func (c *Carousel) Current() int { return c.nav.Current() }

// Slides returns the tagged slide sequence.
func (c *Carousel) Slides() []slides.Slide { return c.nav.Slides() }

// Panels returns the panel arena.
func (c *Carousel) Panels() []slides.Panel { return c.seq.Panels() }

// Placements returns virtual offsets in offset mode and nil otherwise.
func (c *Carousel) Placements() []position.Placement {
	if c.pos == nil {
		return nil
	}
	return c.pos.Placements()
}

// Translation returns the track offset in offset mode and zero otherwise.
func (c *Carousel) Translation() int {
	if c.pos == nil {
		return 0
	}
	return c.pos.Translation()
}

// State reports Idle or Transitioning.
func (c *Carousel) State() navigation.State { return c.nav.State() }

// Trips returns the carousel's trip handler.
func (c *Carousel) Trips() *trip.Handler { return c.trips }

// Subscribe returns a channel of events and a function that cancels the
// subscription. Events are dropped for a subscriber whose buffer is full.
func (c *Carousel) Subscribe(buffer int) (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Event, buffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSu
	c.nextSu++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Close tears the carousel down: timers are cancelled, a transition in
// flight ends and subscriptions are closed. It is idempotent.
func (c *Carousel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	c.auto.Close()
	c.swipe.Cancel()
	c.nav.Close()
	if c.pos != nil {
		c.pos.Close()
	}
	for _, ch := range subs {
		close(ch)
	}
	c.log.Debug("carousel closed", "trips", c.trips.Summary())
}

func (c *Carousel) beforeTransition(ev navigation.Event) {
	if c.pos != nil {
		c.pos.RepositionSlidesForInfiniteTransition(ev.From, ev.To, ev.Direction == slides.Forward)
	}
}

func (c *Carousel) onStart(ev navigation.Event) {
	c.publish(Event{Kind: TransitionStarted, Index: ev.To, Transition: ev})
}

func (c *Carousel) afterSettle(ev navigation.Event) {
	if c.pos != nil {
		c.pos.NormalizeSlidePositions(ev.To)
	}
	c.publish(Event{Kind: IndexChanged, Index: ev.To, Transition: ev})
}

func (c *Carousel) publish(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.log.Debug("event dropped", "subscriber", id, "kind", ev.Kind)
		}
	}
}

func (c *Carousel) report(t *trip.Trip) {
	c.trips.Record(t)
	if t.Severity != trip.Stumble && c.hook != nil {
		c.hook(c.id, t)
	}
}
