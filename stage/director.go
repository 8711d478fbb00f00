// Package stage drives a bubbletea carousel model headlessly for tests.
//
// A Director runs the model in a tea.Program without a renderer or input
// reader, sends it keys, drags and focus changes, and waits on the model's
// state with a fluent API:
//
//	result := stage.New(t, tui.New(c)).
//		WithTimeout(2 * time.Second).
//		Start().
//		PressRight().
//		WaitForIndex(1).
//		WaitForMode("idle").
//		AssertViewContains("Panel 1").
//		Stop()
//
//	assert.True(t, result.Success)
//
// Failed waits and assertions are collected as trips and reported through
// the final Result; with AutoReportErrors they also fail the test.
package stage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teranos/carousel/trip"
)

// Subject is a model a Director can inspect.
type Subject interface {
	tea.Model
	// CurrentIndex returns the panel index at the center.
	CurrentIndex() int
	// CurrentMode returns the model's mode, e.g. "idle" or "transitioning".
	CurrentMode() string
	// CheckCondition answers named conditions for waits and assertions.
	CheckCondition(condition string) bool
}

// Closeable models have Close called when the director stops.
type Closeable interface {
	Close() error
}

// Config tunes a Director.
type Config struct {
	Timeout          time.Duration // per wait, and for startup
	PollInterval     time.Duration
	CaptureViews     bool
	AutoReportErrors bool // report failures through t.Error as they happen
}

// DefaultConfig returns the configuration New uses.
func DefaultConfig() Config {
	return Config{
		Timeout:          5 * time.Second,
		PollInterval:     5 * time.Millisecond,
		CaptureViews:     true,
		AutoReportErrors: true,
	}
}

// Action is one recorded interaction.
type Action struct {
	Type      string
	Details   interface{}
	Timestamp time.Time
}

// Snapshot is the model's state at one point of the run.
type Snapshot struct {
	Reason    string
	View      string
	Index     int
	Mode      string
	Timestamp time.Time
}

// Result summarises a run.
type Result struct {
	Actions      []Action
	Snapshots    []Snapshot
	Success      bool
	Duration     time.Duration
	ErrorMessage string
	Error        error
	TripReport   string
}

// readyMsg and barrierMsg never reach the subject.
type readyMsg struct{}

type barrierMsg struct{}

// Director orchestrates a headless run of one Subject.
type Director struct {
	t       testing.TB
	subject Subject
	config  Config

	program   *tea.Program
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	startedAt time.Time
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}

	modelMu sync.RWMutex
	latest  Subject
	updates int64

	mu        sync.Mutex
	actions   []Action
	snapshots []Snapshot
	trips     *trip.Handler
	lastTrip  *trip.Trip
}

// New prepares a director for subject. Nothing runs until Start.
func New(t testing.TB, subject Subject) *Director {
	return &Director{
		t:       t,
		subject: subject,
		config:  DefaultConfig(),
		latest:  subject,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		trips:   trip.NewHandler("stage", nil),
	}
}

// WithTimeout sets the wait timeout. It is ignored after Start.
func (d *Director) WithTimeout(timeout time.Duration) *Director {
	if d.started {
		d.t.Logf("stage: cannot change timeout after start, ignoring %v", timeout)
		return d
	}
	d.config.Timeout = timeout
	return d
}

// WithConfig replaces the configuration. It is ignored after Start.
func (d *Director) WithConfig(cfg Config) *Director {
	if d.started {
		d.t.Logf("stage: cannot change config after start")
		return d
	}
	d.config = cfg
	return d
}

// Start runs the subject in a headless program and waits until its event
// loop accepts messages.
func (d *Director) Start() *Director {
	if d.started {
		d.t.Logf("stage: already started")
		return d
	}
	d.started = true
	d.startedAt = time.Now()
	d.ctx, d.cancel = context.WithCancel(context.Background())

	d.program = tea.NewProgram(wrapper{Subject: d.subject, director: d},
		tea.WithContext(d.ctx),
		tea.WithoutRenderer(),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
	)

	go func() {
		defer close(d.done)
		defer func() {
			if r := recover(); r != nil {
				d.recordTrip(trip.NewFall(trip.KindStage, fmt.Sprintf("program panicked: %v", r), nil))
			}
		}()
		if _, err := d.program.Run(); err != nil && d.ctx.Err() == nil {
			d.recordTrip(trip.Wrap(fmt.Errorf("program stopped: %w", err), trip.KindStage, trip.Error, nil))
		}
	}()

	if err := d.waitForProgramReady(); err != nil {
		d.recordTrip(trip.Wrap(err, trip.KindStage, trip.Fall, trip.Context{"timeout": d.config.Timeout}))
		return d
	}
	d.captureSnapshot("start")
	return d
}

func (d *Director) waitForProgramReady() error {
	go d.program.Send(readyMsg{})

	timer := time.NewTimer(d.config.Timeout)
	defer timer.Stop()
	select {
	case <-d.ready:
		return nil
	case <-d.done:
		return fmt.Errorf("program exited before it was ready")
	case <-timer.C:
		return fmt.Errorf("timeout waiting for program to be ready")
	}
}

// Stop quits the program, closes the subject when it is Closeable and
// returns the run's result.
func (d *Director) Stop() *Result {
	if d.started {
		d.captureSnapshot("stop")
	}

	if c, ok := d.Model().(Closeable); ok {
		if err := c.Close(); err != nil {
			d.recordTrip(trip.Wrap(err, trip.KindStage, trip.Stumble, nil))
		}
	}
	if d.program != nil {
		d.program.Quit()
		select {
		case <-d.done:
		case <-time.After(time.Second):
			d.t.Logf("stage: program did not exit, cancelling")
		}
	}
	if d.cancel != nil {
		d.cancel()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	res := &Result{
		Actions:   append([]Action(nil), d.actions...),
		Snapshots: append([]Snapshot(nil), d.snapshots...),
		Success:   d.lastTrip == nil,
		Duration:  time.Since(d.startedAt),
	}
	if d.lastTrip != nil {
		res.ErrorMessage = fmt.Sprintf("[%s] %s", d.lastTrip.Kind, d.lastTrip.Message)
		res.Error = d.lastTrip
		res.TripReport = d.trips.DetailedReport()
	}
	return res
}

// Model returns the latest model state.
func (d *Director) Model() Subject {
	d.modelMu.RLock()
	defer d.modelMu.RUnlock()
	return d.latest
}

// View renders the latest model state.
func (d *Director) View() string {
	return d.Model().View()
}

// Updates is the number of model updates observed.
func (d *Director) Updates() int64 {
	return atomic.LoadInt64(&d.updates)
}

// Snapshots returns the snapshots captured so far.
func (d *Director) Snapshots() []Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Snapshot(nil), d.snapshots...)
}

// HasFailed reports whether any wait or assertion failed.
func (d *Director) HasFailed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastTrip != nil
}

// Err returns the last failure.
func (d *Director) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastTrip == nil {
		return nil
	}
	return d.lastTrip
}

// Trips returns the director's trip handler.
func (d *Director) Trips() *trip.Handler { return d.trips }

func (d *Director) store(s Subject) {
	d.modelMu.Lock()
	d.latest = s
	d.modelMu.Unlock()
	atomic.AddInt64(&d.updates, 1)
}

func (d *Director) recordAction(kind string, details interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, Action{Type: kind, Details: details, Timestamp: time.Now()})
}

func (d *Director) captureSnapshot(reason string) {
	if !d.config.CaptureViews {
		return
	}
	m := d.Model()
	snap := Snapshot{Reason: reason, Timestamp: time.Now()}
	func() {
		defer func() {
			if r := recover(); r != nil {
				snap.View = fmt.Sprintf("view panicked: %v", r)
			}
		}()
		snap.View = m.View()
		snap.Index = m.CurrentIndex()
		snap.Mode = m.CurrentMode()
	}()

	d.mu.Lock()
	d.snapshots = append(d.snapshots, snap)
	d.mu.Unlock()
}

func (d *Director) recordTrip(t *trip.Trip) {
	d.trips.Record(t)
	if t.Severity == trip.Stumble {
		d.t.Logf("stage: %s", t.Message)
		return
	}

	d.mu.Lock()
	d.lastTrip = t
	d.mu.Unlock()

	if d.config.AutoReportErrors {
		d.t.Errorf("stage: %s", t.DetailedString())
	} else {
		d.t.Logf("stage: %s", t.Message)
	}
}

func (d *Director) failed() bool {
	return d.HasFailed()
}

// wrapper keeps the director in sync with every model the program produces.
type wrapper struct {
	Subject
	director *Director
}

func (w wrapper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case readyMsg:
		w.director.readyOnce.Do(func() { close(w.director.ready) })
		return w, nil
	case barrierMsg:
		return w, nil
	}

	next, cmd := w.Subject.Update(msg)
	s, ok := next.(Subject)
	if !ok {
		w.director.recordTrip(trip.NewTrip(trip.KindStage,
			fmt.Sprintf("update returned %T, not a stage subject", next),
			trip.Context{"msg": fmt.Sprintf("%T", msg)}))
		return w, cmd
	}
	w.director.store(s)
	return wrapper{Subject: s, director: w.director}, cmd
}
