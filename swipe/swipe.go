// Package swipe turns drag gestures into navigation requests.
package swipe

import (
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/teranos/carousel/clock"
	"github.com/teranos/carousel/logger"
	"github.com/teranos/carousel/navigation"
	"github.com/teranos/carousel/slides"
	"github.com/teranos/carousel/trip"
)

// Navigator receives swipe requests. Locking is its business.
type Navigator interface {
	Navigate(dir slides.Direction, onComplete func()) *navigation.Transition
}

// Point is a pointer position in pixels.
type Point struct {
	X, Y float64
}

// Config configures a Handler.
type Config struct {
	// Threshold is the minimum horizontal distance of a swipe.
	Threshold float64
	// Debounce is the minimum time between two swipe navigations.
	Debounce time.Duration
	// OnComplete is passed to every navigation a swipe triggers.
	OnComplete func()
	Clock      clock.Clock
	Logger     *log.Logger
}

// Handler tracks one pointer at a time.
type Handler struct {
	mu  sync.Mutex
	nav Navigator
	cfg Config

	active    bool
	pointer   int
	start     Point
	last      Point
	startedAt time.Time

	swiped    bool
	lastSwipe time.Time
}

// New creates a handler.
func New(nav Navigator, cfg Config) *Handler {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	return &Handler{nav: nav, cfg: cfg}
}

// Begin starts tracking pointer at p. A second pointer while one is tracked
// cancels the gesture.
func (h *Handler) Begin(pointer int, p Point) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active && pointer != h.pointer {
		h.active = false
		h.ignore("multi-touch", trip.Context{"pointer": pointer, "tracked": h.pointer})
		return
	}

	h.active = true
	h.pointer = pointer
	h.start = p
	h.last = p
	h.startedAt = h.cfg.Clock.Now()
}

// Move records the tracked pointer's latest position.
func (h *Handler) Move(pointer int, p Point) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active && pointer == h.pointer {
		h.last = p
	}
}

// Cancel drops the gesture in progress.
func (h *Handler) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = false
}

// Active reports whether a gesture is being tracked.
func (h *Handler) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// End finishes the gesture at p and reports the direction it fired, or
// slides.None. A leftward drag goes forward.
func (h *Handler) End(pointer int, p Point) slides.Direction {
	h.mu.Lock()
	if !h.active || pointer != h.pointer {
		h.mu.Unlock()
		return slides.None
	}
	h.active = false
	h.last = p

	dx := p.X - h.start.X
	dy := p.Y - h.start.Y
	now := h.cfg.Clock.Now()
	elapsed := now.Sub(h.startedAt)

	ctx := trip.Context{"dx": dx, "dy": dy, "elapsed": elapsed}
	switch {
	case dx == 0:
		h.ignore("no horizontal displacement", ctx)
		h.mu.Unlock()
		return slides.None
	case math.Abs(dx) <= h.cfg.Threshold || math.Abs(dx) <= math.Abs(dy):
		h.mu.Unlock()
		return slides.None
	case h.swiped && now.Sub(h.lastSwipe) <= h.cfg.Debounce:
		h.ignore("debounced", ctx)
		h.mu.Unlock()
		return slides.None
	}

	dir := slides.Backward
	if dx < 0 {
		dir = slides.Forward
	}
	h.mu.Unlock()

	if h.nav.Navigate(dir, h.cfg.OnComplete) == nil {
		h.ignore("navigation dropped", ctx)
		return slides.None
	}

	// The debounce window opens on accepted swipes only.
	h.mu.Lock()
	h.swiped = true
	h.lastSwipe = now
	h.mu.Unlock()

	h.cfg.Logger.Debug("swipe", "direction", dir, "dx", dx, "elapsed", elapsed)
	return dir
}

func (h *Handler) ignore(reason string, ctx trip.Context) {
	tr := trip.NewStumble(trip.KindGesture, reason, ctx)
	h.cfg.Logger.Debug("gesture ignored: "+tr.Message, tr.Keyvals()...)
}
