package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	clk := NewManual(epoch)
	var fired []string

	clk.AfterFunc(30*time.Millisecond, func() { fired = append(fired, "c") })
	clk.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "a") })
	clk.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "b") })

	clk.Advance(20 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, epoch.Add(20*time.Millisecond), clk.Now())

	clk.Advance(10 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Equal(t, 0, clk.Pending())
}

func TestManual_ZeroDelayWaitsForAdvance(t *testing.T) {
	clk := NewManual(epoch)
	ran := false

	clk.AfterFunc(0, func() { ran = true })
	assert.False(t, ran, "callbacks never run inside AfterFunc")

	clk.Advance(0)
	assert.True(t, ran)
}

func TestManual_CallbackSchedulesInsideWindow(t *testing.T) {
	clk := NewManual(epoch)
	var at []time.Duration

	var tick func()
	tick = func() {
		at = append(at, clk.Now().Sub(epoch))
		clk.AfterFunc(100*time.Millisecond, tick)
	}
	clk.AfterFunc(100*time.Millisecond, tick)

	clk.Advance(350 * time.Millisecond)
	require.Len(t, at, 3)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, at)
	assert.Equal(t, 1, clk.Pending())
}

func TestManual_Stop(t *testing.T) {
	clk := NewManual(epoch)
	ran := false

	timer := clk.AfterFunc(time.Second, func() { ran = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports false")

	clk.Advance(2 * time.Second)
	assert.False(t, ran)
}

func TestManual_StopAfterFire(t *testing.T) {
	clk := NewManual(epoch)
	timer := clk.AfterFunc(time.Millisecond, func() {})
	clk.Advance(time.Millisecond)
	assert.False(t, timer.Stop())
}

func TestReal_AfterFunc(t *testing.T) {
	clk := NewReal()
	done := make(chan struct{})
	clk.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer never fired")
	}
	assert.WithinDuration(t, time.Now(), clk.Now(), time.Second)
}
