package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/carousel/clock"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// navigate mirrors how the carousel drives the map around one transition.
func navigate(m *Manager, n int, forward bool) {
	from := m.Center()
	to := mod(from+1, n)
	if !forward {
		to = mod(from-1, n)
	}
	m.RepositionSlidesForInfiniteTransition(from, to, forward)
	m.NormalizeSlidePositions(to)
}

func TestNew_Baseline(t *testing.T) {
	m := New(5, 2, clock.NewManual(epoch))

	assert.Equal(t, 0, m.Offset(0))
	assert.Equal(t, 100, m.Offset(1))
	assert.Equal(t, 200, m.Offset(2))
	assert.Equal(t, 300, m.Offset(3))
	assert.Equal(t, -200, m.Translation())
	assert.True(t, m.Animated())
}

func TestUpdateAdjacent_Wraps(t *testing.T) {
	m := New(5, 0, clock.NewManual(epoch))

	assert.Equal(t, -100, m.Offset(4), "predecessor of 0 wraps to the left")
	assert.Equal(t, 100, m.Offset(1))

	// Neighbors follow the center's current offset, not its baseline.
	m.UpdateAdjacentSlidePositions(4)
	assert.Equal(t, -100, m.Offset(4))
	assert.Equal(t, 0, m.Offset(0))
	assert.Equal(t, -200, m.Offset(3))

	m.NormalizeSlidePositions(4)
	assert.Equal(t, 400, m.Offset(4))
	assert.Equal(t, 500, m.Offset(0))
	assert.Equal(t, 300, m.Offset(3))
}

func TestReposition_ForwardAcrossWrap(t *testing.T) {
	m := New(5, 4, clock.NewManual(epoch))
	m.NormalizeSlidePositions(4)

	// Slide 0 already waits at 500 after normalisation.
	assert.False(t, m.RepositionSlidesForInfiniteTransition(4, 0, true))
	assert.Equal(t, 500, m.Offset(0))
	assert.Equal(t, -500, m.Translation())

	m.UpdateAdjacentSlidePositions(4)
	m.offsets[0] = 0
	assert.True(t, m.RepositionSlidesForInfiniteTransition(4, 0, true))
	assert.Equal(t, m.Offset(4)+Unit, m.Offset(0))
	assert.Equal(t, 0, m.Center())
}

func TestReposition_Backward(t *testing.T) {
	m := New(4, 0, clock.NewManual(epoch))

	m.RepositionSlidesForInfiniteTransition(0, 3, false)
	assert.Equal(t, -100, m.Offset(3))
	assert.Equal(t, 100, m.Translation())
}

func TestNormalize_SuspendsAndRestores(t *testing.T) {
	clk := clock.NewManual(epoch)
	m := New(3, 0, clk)

	navigate(m, 3, true)
	assert.False(t, m.Animated())
	assert.Equal(t, 1, m.Flushes())
	assert.Equal(t, -100, m.Translation())

	clk.Advance(0)
	assert.True(t, m.Animated())
}

func TestNormalize_NoCollisions(t *testing.T) {
	for _, n := range []int{2, 3, 5, 7} {
		m := New(n, 0, clock.NewManual(epoch))
		for center := 0; center < n; center++ {
			m.NormalizeSlidePositions(center)

			seen := map[int]int{}
			for _, p := range m.Placements() {
				if prev, ok := seen[p.Offset]; ok {
					t.Fatalf("n=%d center=%d: slides %d and %d share offset %d", n, center, prev, p.Index, p.Offset)
				}
				seen[p.Offset] = p.Index
			}
		}
	}
}

func TestOffsetsStayBounded(t *testing.T) {
	const n = 4
	clk := clock.NewManual(epoch)
	m := New(n, 0, clk)

	for i := 0; i < 200; i++ {
		navigate(m, n, i%7 != 3)
		clk.Advance(0)

		center := m.Center()
		offsets := m.Placements()
		assert.Equal(t, offsets[center].Offset-Unit, offsets[mod(center-1, n)].Offset)
		assert.Equal(t, offsets[center].Offset+Unit, offsets[mod(center+1, n)].Offset)
		for _, p := range offsets {
			require.GreaterOrEqual(t, p.Offset, -Unit)
			require.LessOrEqual(t, p.Offset, n*Unit)
		}
	}
}

func TestTwoSlides(t *testing.T) {
	m := New(2, 0, clock.NewManual(epoch))
	assert.Equal(t, 100, m.Offset(1))

	navigate(m, 2, false)
	assert.Equal(t, 1, m.Center())
	assert.Equal(t, 100, m.Offset(1))
	assert.Equal(t, 200, m.Offset(0))
}

func TestSingleSlide(t *testing.T) {
	m := New(1, 0, clock.NewManual(epoch))
	assert.False(t, m.RepositionSlidesForInfiniteTransition(0, 0, true))
	m.NormalizeSlidePositions(0)
	assert.Equal(t, 0, m.Translation())
	require.Len(t, m.Placements(), 1)
	assert.True(t, m.Placements()[0].Center)
}

func TestClose_CancelsRestore(t *testing.T) {
	clk := clock.NewManual(epoch)
	m := New(3, 0, clk)
	m.NormalizeSlidePositions(1)
	require.Equal(t, 1, clk.Pending())

	m.Close()
	assert.Zero(t, clk.Pending())
}
