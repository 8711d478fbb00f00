package stage

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Send delivers msg to the model and returns once it has been handled.
func (d *Director) Send(msg tea.Msg) *Director {
	if !d.running() {
		return d
	}
	d.program.Send(msg)
	// The event loop handles messages in order: once the barrier is taken,
	// msg has been through Update.
	d.program.Send(barrierMsg{})
	return d
}

func (d *Director) running() bool {
	if d.program == nil || d.failed() {
		return false
	}
	select {
	case <-d.done:
		return false
	default:
		return true
	}
}

func (d *Director) press(name string, msg tea.KeyMsg) *Director {
	d.Send(msg)
	d.recordAction("keypress", name)
	d.captureSnapshot("keypress " + name)
	return d
}

// PressRight requests the next slide.
func (d *Director) PressRight() *Director {
	return d.press("right", tea.KeyMsg{Type: tea.KeyRight})
}

// PressLeft requests the previous slide.
func (d *Director) PressLeft() *Director {
	return d.press("left", tea.KeyMsg{Type: tea.KeyLeft})
}

// PressSpace toggles the autoplay pause.
func (d *Director) PressSpace() *Director {
	return d.press("space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
}

// PressKey sends a single rune key.
func (d *Director) PressKey(r rune) *Director {
	return d.press(string(r), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// Drag presses the left button at fromX, moves along row y in single-column
// steps and releases at toX.
func (d *Director) Drag(fromX, toX, y int) *Director {
	d.Send(tea.MouseMsg{X: fromX, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	step := 1
	if toX < fromX {
		step = -1
	}
	for x := fromX + step; x != toX; x += step {
		d.Send(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	}
	d.Send(tea.MouseMsg{X: toX, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	d.recordAction("drag", fmt.Sprintf("%d->%d@%d", fromX, toX, y))
	d.captureSnapshot("drag")
	return d
}

// Focus tells the model its terminal gained focus.
func (d *Director) Focus() *Director {
	d.Send(tea.FocusMsg{})
	d.recordAction("focus", true)
	return d
}

// Blur tells the model its terminal lost focus.
func (d *Director) Blur() *Director {
	d.Send(tea.BlurMsg{})
	d.recordAction("focus", false)
	return d
}

// Resize sends a window size.
func (d *Director) Resize(width, height int) *Director {
	d.Send(tea.WindowSizeMsg{Width: width, Height: height})
	d.recordAction("resize", fmt.Sprintf("%dx%d", width, height))
	return d
}

// Wait pauses for duration. Prefer the WaitFor methods for state changes.
func (d *Director) Wait(duration time.Duration) *Director {
	time.Sleep(duration)
	d.recordAction("wait", duration)
	d.captureSnapshot("wait")
	return d
}
