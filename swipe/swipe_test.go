package swipe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/carousel/clock"
	"github.com/teranos/carousel/navigation"
	"github.com/teranos/carousel/slides"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type recordingNavigator struct {
	calls []slides.Direction
	drop  bool
}

func (n *recordingNavigator) Navigate(dir slides.Direction, onComplete func()) *navigation.Transition {
	n.calls = append(n.calls, dir)
	if n.drop {
		return nil
	}
	return &navigation.Transition{Direction: dir}
}

func newHandler() (*Handler, *recordingNavigator, *clock.Manual) {
	clk := clock.NewManual(epoch)
	nav := &recordingNavigator{}
	return New(nav, Config{Threshold: 50, Debounce: 50 * time.Millisecond, Clock: clk}), nav, clk
}

func TestSwipe_LeftwardGoesForward(t *testing.T) {
	h, nav, clk := newHandler()

	h.Begin(1, Point{X: 200, Y: 100})
	clk.Advance(20 * time.Millisecond)
	h.Move(1, Point{X: 180, Y: 102})
	clk.Advance(30 * time.Millisecond)
	h.Move(1, Point{X: 150, Y: 104})
	clk.Advance(30 * time.Millisecond)

	dir := h.End(1, Point{X: 140, Y: 105})

	assert.Equal(t, slides.Forward, dir)
	assert.Equal(t, []slides.Direction{slides.Forward}, nav.calls)
	assert.False(t, h.Active())
}

func TestSwipe_RightwardGoesBackward(t *testing.T) {
	h, nav, _ := newHandler()

	h.Begin(1, Point{X: 100, Y: 0})
	assert.Equal(t, slides.Backward, h.End(1, Point{X: 170, Y: 10}))
	assert.Equal(t, []slides.Direction{slides.Backward}, nav.calls)
}

func TestSwipe_Ignored(t *testing.T) {
	cases := map[string]Point{
		"below threshold":   {X: 130, Y: 100},
		"at threshold":      {X: 50, Y: 100},
		"vertical dominant": {X: 30, Y: 200},
		"no displacement":   {X: 100, Y: 180},
	}
	for name, end := range cases {
		t.Run(name, func(t *testing.T) {
			h, nav, _ := newHandler()
			h.Begin(1, Point{X: 100, Y: 100})
			assert.Equal(t, slides.None, h.End(1, end))
			assert.Empty(t, nav.calls)
		})
	}
}

func TestSwipe_MultiTouchCancels(t *testing.T) {
	h, nav, _ := newHandler()

	h.Begin(1, Point{X: 200})
	h.Begin(2, Point{X: 300})
	assert.False(t, h.Active())

	assert.Equal(t, slides.None, h.End(1, Point{X: 0}))
	assert.Equal(t, slides.None, h.End(2, Point{X: 0}))
	assert.Empty(t, nav.calls)
}

func TestSwipe_OtherPointerIgnored(t *testing.T) {
	h, nav, _ := newHandler()

	h.Begin(1, Point{X: 200})
	h.Move(2, Point{X: 0})
	assert.Equal(t, slides.None, h.End(2, Point{X: 0}))
	assert.True(t, h.Active())

	assert.Equal(t, slides.Forward, h.End(1, Point{X: 100}))
	assert.Len(t, nav.calls, 1)
}

func TestSwipe_Debounce(t *testing.T) {
	h, nav, clk := newHandler()

	h.Begin(1, Point{X: 200})
	require.Equal(t, slides.Forward, h.End(1, Point{X: 100}))

	clk.Advance(30 * time.Millisecond)
	h.Begin(1, Point{X: 200})
	assert.Equal(t, slides.None, h.End(1, Point{X: 100}))

	clk.Advance(30 * time.Millisecond)
	h.Begin(1, Point{X: 200})
	assert.Equal(t, slides.Forward, h.End(1, Point{X: 100}))

	assert.Len(t, nav.calls, 2)
}

func TestSwipe_DroppedNavigationSkipsDebounce(t *testing.T) {
	h, nav, clk := newHandler()

	nav.drop = true
	h.Begin(1, Point{X: 200})
	assert.Equal(t, slides.None, h.End(1, Point{X: 100}))
	require.Len(t, nav.calls, 1)

	nav.drop = false
	clk.Advance(10 * time.Millisecond)
	h.Begin(1, Point{X: 200})
	assert.Equal(t, slides.Forward, h.End(1, Point{X: 100}), "a dropped swipe does not debounce the next one")
	assert.Len(t, nav.calls, 2)
}

func TestSwipe_Cancel(t *testing.T) {
	h, nav, _ := newHandler()

	h.Begin(1, Point{X: 200})
	h.Cancel()
	assert.Equal(t, slides.None, h.End(1, Point{X: 0}))
	assert.Empty(t, nav.calls)
}

func TestSwipe_DrivesController(t *testing.T) {
	seq, err := slides.NewManager([]slides.Panel{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	require.NoError(t, err)
	clk := clock.NewManual(epoch)
	ctrl := navigation.New(seq, navigation.Config{Duration: 300 * time.Millisecond, Clock: clk})

	completed := 0
	h := New(ctrl, Config{
		Threshold:  50,
		Debounce:   50 * time.Millisecond,
		Clock:      clk,
		OnComplete: func() { completed++ },
	})

	// Sub-threshold swipes never move the center.
	h.Begin(1, Point{X: 100})
	h.End(1, Point{X: 60})
	clk.Advance(time.Second)
	assert.Equal(t, 0, ctrl.Current())

	h.Begin(1, Point{X: 100})
	h.Move(1, Point{X: 70})
	clk.Advance(80 * time.Millisecond)
	h.End(1, Point{X: 40, Y: 5})
	clk.Advance(0)
	require.True(t, ctrl.TransitionEnd())

	assert.Equal(t, 1, ctrl.Current())
	assert.Equal(t, 1, completed)
}
