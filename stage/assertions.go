package stage

import (
	"fmt"
	"strings"
	"time"

	"github.com/teranos/carousel/trip"
)

// waitFor polls cond until it holds or the timeout passes.
func (d *Director) waitFor(what string, cond func(Subject) bool, ctx func(Subject) trip.Context) *Director {
	if d.failed() {
		return d
	}

	timeout := time.NewTimer(d.config.Timeout)
	defer timeout.Stop()
	poll := time.NewTicker(d.config.PollInterval)
	defer poll.Stop()

	for {
		if m := d.Model(); cond(m) {
			d.recordAction("wait", what)
			return d
		}
		select {
		case <-timeout.C:
			m := d.Model()
			c := ctx(m)
			c["timeout"] = d.config.Timeout
			d.recordTrip(trip.NewTrip(trip.KindStage, "timeout waiting for "+what, c))
			d.captureSnapshot("timeout")
			return d
		case <-poll.C:
		}
	}
}

// WaitForIndex waits until the panel at index is centered.
func (d *Director) WaitForIndex(index int) *Director {
	return d.waitFor(fmt.Sprintf("index %d", index),
		func(m Subject) bool { return m.CurrentIndex() == index },
		func(m Subject) trip.Context { return trip.Context{"expected": index, "current": m.CurrentIndex()} })
}

// WaitForMode waits for the model's mode.
func (d *Director) WaitForMode(mode string) *Director {
	return d.waitFor("mode "+mode,
		func(m Subject) bool { return m.CurrentMode() == mode },
		func(m Subject) trip.Context { return trip.Context{"expected": mode, "current": m.CurrentMode()} })
}

// WaitForCondition waits for a named condition of the model.
func (d *Director) WaitForCondition(condition string) *Director {
	return d.waitFor("condition "+condition,
		func(m Subject) bool { return m.CheckCondition(condition) },
		func(Subject) trip.Context { return trip.Context{"condition": condition} })
}

// WaitForText waits until the view contains text.
func (d *Director) WaitForText(text string) *Director {
	return d.waitFor(fmt.Sprintf("text %q", text),
		func(m Subject) bool { return strings.Contains(m.View(), text) },
		func(m Subject) trip.Context { return trip.Context{"text": text, "view": m.View()} })
}

func (d *Director) assert(ok bool, message string, ctx trip.Context) *Director {
	if d.failed() {
		return d
	}
	d.recordAction("assert", message)
	if !ok {
		d.recordTrip(trip.NewTrip(trip.KindStage, "assertion failed: "+message, ctx))
	}
	return d
}

// AssertIndex checks the centered panel.
func (d *Director) AssertIndex(index int) *Director {
	got := d.Model().CurrentIndex()
	return d.assert(got == index, fmt.Sprintf("index is %d", index), trip.Context{"current": got})
}

// AssertMode checks the model's mode.
func (d *Director) AssertMode(mode string) *Director {
	got := d.Model().CurrentMode()
	return d.assert(got == mode, "mode is "+mode, trip.Context{"current": got})
}

// AssertCondition checks a named condition.
func (d *Director) AssertCondition(condition string) *Director {
	return d.assert(d.Model().CheckCondition(condition), "condition "+condition, trip.Context{})
}

// AssertNotCondition checks that a named condition does not hold.
func (d *Director) AssertNotCondition(condition string) *Director {
	return d.assert(!d.Model().CheckCondition(condition), "not condition "+condition, trip.Context{})
}

// AssertViewContains checks the rendered view.
func (d *Director) AssertViewContains(text string) *Director {
	view := d.View()
	return d.assert(strings.Contains(view, text), fmt.Sprintf("view contains %q", text), trip.Context{"view": view})
}
