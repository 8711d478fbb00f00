package film

import (
	"testing"
	"time"

	"github.com/teranos/carousel/stage"
)

// Operator is a stage director that also captures tracking shots into a
// reel.
type Operator struct {
	*stage.Director
	reel *Reel
	err  error
}

// NewOperator creates an operator filming subject into reel.
func NewOperator(t testing.TB, subject stage.Subject, reel *Reel) *Operator {
	return &Operator{
		Director: stage.New(t, subject),
		reel:     reel,
	}
}

// WithTimeout wraps the director's WithTimeout.
func (op *Operator) WithTimeout(timeout time.Duration) *Operator {
	op.Director.WithTimeout(timeout)
	return op
}

// Start wraps the director's Start.
func (op *Operator) Start() *Operator {
	op.Director.Start()
	return op
}

// CaptureTrackingShot writes the current view as a frame. The first
// capture error is kept and returned by Stop.
func (op *Operator) CaptureTrackingShot(label string) *Operator {
	if op.err != nil {
		return op
	}
	m := op.Model()
	if _, err := op.reel.Capture(label, m.CurrentIndex(), m.CurrentMode(), m.View()); err != nil {
		op.err = err
	}
	return op
}

// PressRightWithTrackingShot navigates forward and captures the result.
func (op *Operator) PressRightWithTrackingShot(label string) *Operator {
	op.PressRight()
	return op.CaptureTrackingShot(label)
}

// PressLeftWithTrackingShot navigates backward and captures the result.
func (op *Operator) PressLeftWithTrackingShot(label string) *Operator {
	op.PressLeft()
	return op.CaptureTrackingShot(label)
}

// WaitForIndexWithTrackingShot waits for a centered panel and captures it.
func (op *Operator) WaitForIndexWithTrackingShot(index int, label string) *Operator {
	op.WaitForIndex(index)
	return op.CaptureTrackingShot(label)
}

// WaitForModeWithTrackingShot waits for a mode and captures it.
func (op *Operator) WaitForModeWithTrackingShot(mode, label string) *Operator {
	op.WaitForMode(mode)
	return op.CaptureTrackingShot(label)
}

// Stop ends the run and finishes the reel.
func (op *Operator) Stop() (*stage.Result, *Manifest, error) {
	res := op.Director.Stop()
	if op.err != nil {
		return res, nil, op.err
	}
	m, err := op.reel.Finish()
	return res, m, err
}
