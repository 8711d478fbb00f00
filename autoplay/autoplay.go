// Package autoplay advances the carousel on a timer.
//
// The timer only runs while autoplay is set up, the carousel is sufficiently
// on screen and nobody is interacting with it. Each tick asks the navigator
// for one forward step; a tick landing while a transition is in flight is
// simply dropped by the navigator.
package autoplay

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/teranos/carousel/clock"
	"github.com/teranos/carousel/logger"
	"github.com/teranos/carousel/navigation"
	"github.com/teranos/carousel/slides"
)

// Navigator receives the timer's forward requests.
type Navigator interface {
	Navigate(dir slides.Direction, onComplete func()) *navigation.Transition
}

// Interaction is a direct interaction event that pauses or resumes autoplay.
type Interaction string

const (
	PointerEnter Interaction = "pointer-enter"
	PointerLeave Interaction = "pointer-leave"
	FocusIn      Interaction = "focus-in"
	FocusOut     Interaction = "focus-out"
	TouchStart   Interaction = "touch-start"
	TouchEnd     Interaction = "touch-end"
)

type source int

const (
	sourcePointer source = iota
	sourceFocus
	sourceTouch
)

// classify maps an interaction to its source and whether it pauses.
func classify(ev Interaction) (source, bool, bool) {
	switch ev {
	case PointerEnter:
		return sourcePointer, true, true
	case PointerLeave:
		return sourcePointer, false, true
	case FocusIn:
		return sourceFocus, true, true
	case FocusOut:
		return sourceFocus, false, true
	case TouchStart:
		return sourceTouch, true, true
	case TouchEnd:
		return sourceTouch, false, true
	}
	return 0, false, false
}

// Config configures a Manager.
type Config struct {
	Enabled       bool
	ReducedMotion bool
	Interval      time.Duration
	// VisibilityThreshold is the on-screen ratio at which the timer runs.
	VisibilityThreshold float64
	// Visible is the initial visibility.
	Visible bool
	Clock   clock.Clock
	Logger  *log.Logger
}

// Manager runs the autoplay timer. It is safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	nav Navigator
	cfg Config

	ready   bool
	closed  bool
	visible bool
	paused  map[source]bool
	timer   clock.Timer
	gen     uint64
	ticks   int
}

// New creates a manager driving nav. Nothing runs until Setup.
func New(nav Navigator, cfg Config) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	return &Manager{
		nav:     nav,
		cfg:     cfg,
		visible: cfg.Visible,
		paused:  make(map[source]bool),
	}
}

// Setup enables autoplay and starts the timer when the carousel is visible.
// It does nothing when autoplay is disabled or reduced motion is preferred,
// and reports whether autoplay was set up.
func (m *Manager) Setup() bool {
	m.mu.Lock()
	if !m.cfg.Enabled || m.cfg.ReducedMotion || m.cfg.Interval <= 0 {
		m.mu.Unlock()
		m.cfg.Logger.Debug("autoplay not set up",
			"enabled", m.cfg.Enabled, "reduced_motion", m.cfg.ReducedMotion)
		return false
	}
	m.ready = true
	m.mu.Unlock()

	m.Start()
	return true
}

// Start arms the timer. It is a no-op unless autoplay is set up, visible and
// not paused, and when the timer already runs. It reports whether the timer
// is running afterwards.
func (m *Manager) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		return true
	}
	if !m.ready || m.closed || !m.visible || m.pausedLocked() {
		return false
	}
	m.armLocked()
	m.cfg.Logger.Debug("autoplay started", "interval", m.cfg.Interval)
	return true
}

// Stop cancels the timer. It is idempotent.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Restart resets the cadence so the next tick is a full interval away.
func (m *Manager) Restart() {
	m.Stop()
	m.Start()
}

// SetVisibility starts the timer when ratio reaches the visibility threshold
// and stops it otherwise.
func (m *Manager) SetVisibility(ratio float64) {
	m.mu.Lock()
	m.visible = ratio >= m.cfg.VisibilityThreshold
	visible := m.visible
	m.mu.Unlock()

	if visible {
		m.Start()
	} else {
		m.Stop()
	}
}

// Interact pauses on enter/focus-in/touch-start and resumes on the matching
// leave/focus-out/touch-end. Pauses are tracked per source: leaving with the
// pointer does not resume while focus is still inside.
func (m *Manager) Interact(ev Interaction) {
	src, pause, ok := classify(ev)
	if !ok {
		return
	}

	m.mu.Lock()
	if pause {
		m.paused[src] = true
	} else {
		delete(m.paused, src)
	}
	m.mu.Unlock()

	if pause {
		m.Stop()
	} else {
		m.Start()
	}
}

// Running reports whether the timer is armed.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timer != nil
}

// Ticks counts the timer firings so far.
func (m *Manager) Ticks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticks
}

// Close stops the timer for good.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.stopLocked()
}

func (m *Manager) pausedLocked() bool {
	return len(m.paused) > 0
}

func (m *Manager) armLocked() {
	m.gen++
	gen := m.gen
	m.timer = m.cfg.Clock.AfterFunc(m.cfg.Interval, func() { m.tick(gen) })
}

func (m *Manager) stopLocked() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) tick(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.timer == nil {
		m.mu.Unlock()
		return
	}
	m.ticks++
	m.armLocked()
	m.mu.Unlock()

	if m.nav.Navigate(slides.Forward, nil) == nil {
		m.cfg.Logger.Debug("autoplay tick dropped")
	}
}
