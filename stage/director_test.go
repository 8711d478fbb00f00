package stage

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/carousel"
	"github.com/teranos/carousel/config"
	"github.com/teranos/carousel/slides"
	"github.com/teranos/carousel/tui"
)

func newSubject(t *testing.T, n int, mutate func(*config.Settings)) (tui.Model, *carousel.Carousel) {
	t.Helper()
	s := config.Defaults()
	s.TransitionDuration = 60 * time.Millisecond
	if mutate != nil {
		mutate(&s)
	}
	ps := make([]slides.Panel, n)
	for i := range ps {
		ps[i] = slides.Panel{ID: fmt.Sprintf("p%d", i), Title: fmt.Sprintf("Panel %d", i)}
	}
	c, err := carousel.New(s, ps)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return tui.New(c, tui.WithWidth(120)), c
}

func TestDirector_KeyNavigation(t *testing.T) {
	m, c := newSubject(t, 4, nil)

	result := New(t, m).
		WithTimeout(2 * time.Second).
		Start().
		PressRight().
		WaitForIndex(1).
		WaitForMode("idle").
		AssertViewContains("Panel 1").
		PressLeft().
		WaitForIndex(0).
		WaitForMode("idle").
		AssertIndex(0).
		Stop()

	require.True(t, result.Success, result.ErrorMessage)
	assert.Equal(t, 0, c.Current())
	assert.NotEmpty(t, result.Actions)
	require.NotEmpty(t, result.Snapshots)
	assert.Equal(t, "start", result.Snapshots[0].Reason)
	assert.Equal(t, "stop", result.Snapshots[len(result.Snapshots)-1].Reason)
}

func TestDirector_WrapBackward(t *testing.T) {
	m, _ := newSubject(t, 3, nil)

	result := New(t, m).
		WithTimeout(2 * time.Second).
		Start().
		PressLeft().
		WaitForIndex(2).
		WaitForMode("idle").
		WaitForCondition("wrapped").
		Stop()

	assert.True(t, result.Success, result.ErrorMessage)
}

func TestDirector_DragSwipes(t *testing.T) {
	m, c := newSubject(t, 5, nil)

	d := New(t, m).WithTimeout(2 * time.Second).Start()
	d.Drag(40, 30, 5).
		WaitForIndex(1).
		WaitForMode("idle")
	result := d.Stop()

	assert.True(t, result.Success, result.ErrorMessage)
	assert.Equal(t, 1, c.Current())
	assert.Positive(t, d.Updates())
}

func TestDirector_PauseAndFocus(t *testing.T) {
	m, _ := newSubject(t, 3, func(s *config.Settings) {
		s.AutoplayEnabled = true
		s.AutoplayInterval = time.Hour
	})

	result := New(t, m).
		Start().
		AssertCondition("autoplaying").
		PressSpace().
		AssertCondition("paused").
		AssertNotCondition("autoplaying").
		PressSpace().
		AssertCondition("autoplaying").
		Blur().
		AssertNotCondition("autoplaying").
		Focus().
		AssertCondition("autoplaying").
		Stop()

	assert.True(t, result.Success, result.ErrorMessage)
}

func TestDirector_WaitTimeoutFailsRun(t *testing.T) {
	m, _ := newSubject(t, 3, nil)
	cfg := DefaultConfig()
	cfg.Timeout = 50 * time.Millisecond
	cfg.AutoReportErrors = false

	d := New(t, m).WithConfig(cfg).Start()
	d.WaitForIndex(2).AssertIndex(99)
	result := d.Stop()

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "timeout waiting for index 2")
	assert.Contains(t, result.TripReport, "stage")
	assert.Len(t, d.Trips().GetTrips(), 1, "later steps are skipped after a failure")
	assert.Error(t, d.Err())
}

func TestDirector_QuitStopsProgram(t *testing.T) {
	m, c := newSubject(t, 3, nil)

	d := New(t, m).Start()
	d.PressKey('q')
	assert.Eventually(t, func() bool { return !d.running() }, time.Second, 5*time.Millisecond)

	d.PressRight()
	result := d.Stop()
	assert.True(t, result.Success)
	assert.Equal(t, 0, c.Current())
}

func TestDirector_SettingsIgnoredAfterStart(t *testing.T) {
	m, _ := newSubject(t, 2, nil)

	d := New(t, m).WithTimeout(time.Second).Start()
	d.WithTimeout(time.Minute)
	assert.Equal(t, time.Second, d.config.Timeout)
	d.Stop()
}

type plainModel struct{}

func (plainModel) Init() tea.Cmd                       { return nil }
func (plainModel) Update(tea.Msg) (tea.Model, tea.Cmd) { return plainModel{}, nil }
func (plainModel) View() string                        { return "plain" }

// strayModel turns into a model the director cannot inspect.
type strayModel struct{ plainModel }

func (strayModel) Update(tea.Msg) (tea.Model, tea.Cmd) { return plainModel{}, nil }
func (strayModel) CurrentIndex() int                   { return 0 }
func (strayModel) CurrentMode() string                 { return "idle" }
func (strayModel) CheckCondition(string) bool          { return false }

func TestDirector_NonSubjectUpdate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoReportErrors = false

	d := New(t, strayModel{}).WithConfig(cfg).Start()
	d.PressRight()
	result := d.Stop()

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "not a stage subject")
	assert.Equal(t, "plain", d.View())
}
