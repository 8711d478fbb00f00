// Package tui is a terminal rendering layer for a carousel. It draws the
// tagged slides, animates transitions and sends the completion signal when
// an animation finishes, the way a browser fires transitionend.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/teranos/carousel"
	"github.com/teranos/carousel/autoplay"
	"github.com/teranos/carousel/navigation"
)

// FrameInterval is the animation frame rate of the terminal renderer.
const FrameInterval = time.Second / 30

// CellWidth converts terminal columns to the pixel distances the swipe
// threshold is expressed in.
const CellWidth = 8

// mousePointer is the pointer identity of the terminal mouse.
const mousePointer = 0

type eventMsg carousel.Event

type closedMsg struct{}

type frameMsg struct {
	id    uint64
	frame int
}

// Model is a bubbletea model over one carousel.
type Model struct {
	c      *carousel.Carousel
	keys   KeyMap
	help   help.Model
	events <-chan carousel.Event
	cancel func()

	width     int
	frames    int    // frames per transition
	animating uint64 // transition being animated, zero when idle
	frame     int
	paused    bool
	last      carousel.Event
	closed    bool
}

// Option configures New.
type Option func(*Model)

// WithKeyMap replaces the default bindings.
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) { m.keys = k }
}

// WithWidth sets the initial width before the first WindowSizeMsg.
func WithWidth(w int) Option {
	return func(m *Model) { m.width = w }
}

// New subscribes to the carousel's events and returns a model ready to run.
func New(c *carousel.Carousel, opts ...Option) Model {
	events, cancel := c.Subscribe(16)
	m := Model{
		c:      c,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		events: events,
		cancel: cancel,
		width:  80,
		frames: int(c.Settings().TransitionDuration / FrameInterval),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.listen()
}

// listen waits for the next carousel event.
func (m Model) listen() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) tick(id uint64, frame int) tea.Cmd {
	return tea.Tick(FrameInterval, func(time.Time) tea.Msg {
		return frameMsg{id: id, frame: frame}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.FocusMsg:
		m.c.SetVisibility(1)
		return m, nil

	case tea.BlurMsg:
		m.c.SetVisibility(0)
		return m, nil

	case eventMsg:
		return m.handleEvent(carousel.Event(msg))

	case frameMsg:
		if msg.id != m.animating {
			return m, nil
		}
		m.frame = msg.frame
		if m.frame >= m.frames {
			m.c.Complete(msg.id)
			return m, nil
		}
		return m, m.tick(msg.id, m.frame+1)

	case closedMsg:
		m.closed = true
		m.animating = 0
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.c.Next()
	case key.Matches(msg, m.keys.Prev):
		m.c.Prev()
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if m.paused {
			m.c.Interact(autoplay.FocusIn)
		} else {
			m.c.Interact(autoplay.FocusOut)
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) {
	x, y := float64(msg.X*CellWidth), float64(msg.Y*CellWidth)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		m.c.Interact(autoplay.TouchStart)
		m.c.GestureStart(mousePointer, x, y)
	case tea.MouseActionMotion:
		m.c.GestureMove(mousePointer, x, y)
	case tea.MouseActionRelease:
		m.c.GestureEnd(mousePointer, x, y)
		m.c.Interact(autoplay.TouchEnd)
	}
}

func (m Model) handleEvent(ev carousel.Event) (tea.Model, tea.Cmd) {
	m.last = ev
	switch ev.Kind {
	case carousel.TransitionStarted:
		m.animating = ev.Transition.ID
		m.frame = 0
		if m.frames <= 0 {
			m.c.Complete(ev.Transition.ID)
			return m, m.listen()
		}
		return m, tea.Batch(m.listen(), m.tick(ev.Transition.ID, 1))
	case carousel.IndexChanged:
		if m.animating == ev.Transition.ID {
			m.animating = 0
		}
	}
	return m, m.listen()
}

// CurrentIndex is the panel index of the center slide.
func (m Model) CurrentIndex() int { return m.c.Current() }

// CurrentMode is "transitioning" while slides move and "idle" otherwise.
func (m Model) CurrentMode() string {
	if m.c.State() == navigation.Transitioning {
		return "transitioning"
	}
	return "idle"
}

// CheckCondition answers named conditions: autoplaying, paused, animating,
// wrapped (the last settled transition crossed a boundary) and closed.
func (m Model) CheckCondition(condition string) bool {
	switch condition {
	case "autoplaying":
		return m.c.Autoplaying()
	case "paused":
		return m.paused
	case "animating":
		return m.animating != 0
	case "wrapped":
		return m.last.Kind == carousel.IndexChanged && m.last.Transition.Wrapped
	case "closed":
		return m.closed
	}
	return false
}

// Carousel returns the carousel the model draws.
func (m Model) Carousel() *carousel.Carousel { return m.c }

// Close cancels the event subscription. The carousel itself stays open.
func (m Model) Close() error {
	m.cancel()
	return nil
}
