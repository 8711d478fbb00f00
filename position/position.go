// Package position places slides at numeric virtual offsets for the
// translation-based layout mode.
//
// Offsets are in units of one slide width times 100. A slide's baseline is
// its index times 100 and the track is translated so the center slide sits
// at zero. Neighbors of the center are always placed at center±100,
// whatever their storage index, which is what lets the track wrap.
package position

import (
	"sync"

	"github.com/teranos/carousel/clock"
)

// Unit is the offset distance between adjacent slides.
const Unit = 100

// Placement is one slide's virtual offset.
type Placement struct {
	Index  int
	Offset int
	Center bool
}

// Manager owns the virtual position map.
type Manager struct {
	mu sync.Mutex

	clock    clock.Clock
	offsets  []int
	center   int
	animated bool
	flushes  int
	restore  clock.Timer
}

// New creates a map for n slides centered on center.
func New(n, center int, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.NewReal()
	}
	m := &Manager{
		clock:    clk,
		offsets:  make([]int, n),
		animated: true,
	}
	m.baselineLocked()
	if n > 0 {
		m.updateAdjacentLocked(mod(center, n))
	}
	return m
}

// Offset returns slide i's virtual offset.
func (m *Manager) Offset(i int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offsets[i]
}

// Center returns the index the track is centered on.
func (m *Manager) Center() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center
}

// Translation is the track offset that brings the center into view.
func (m *Manager) Translation() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.offsets) == 0 {
		return 0
	}
	return -m.offsets[m.center]
}

// Animated reports whether transition effects are enabled.
func (m *Manager) Animated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.animated
}

// Flushes counts forced layout flushes.
func (m *Manager) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// Placements returns every slide's offset.
func (m *Manager) Placements() []Placement {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Placement, len(m.offsets))
	for i, off := range m.offsets {
		out[i] = Placement{Index: i, Offset: off, Center: i == m.center}
	}
	return out
}

// UpdateAdjacentSlidePositions places the predecessor of center at
// center-100 and the successor at center+100.
func (m *Manager) UpdateAdjacentSlidePositions(center int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.offsets) == 0 {
		return
	}
	m.updateAdjacentLocked(mod(center, len(m.offsets)))
}

// RepositionSlidesForInfiniteTransition moves to next to from's current
// offset so the coming transition animates one slide width, even across the
// wrap boundary. The track is centered on to afterwards. It reports whether
// to had to move.
func (m *Manager) RepositionSlidesForInfiniteTransition(from, to int, forward bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.offsets)
	if n < 2 {
		return false
	}
	from, to = mod(from, n), mod(to, n)

	want := m.offsets[from] + Unit
	if !forward {
		want = m.offsets[from] - Unit
	}
	moved := m.offsets[to] != want
	m.offsets[to] = want
	m.center = to
	return moved
}

// NormalizeSlidePositions runs after a transition settles. With transition
// effects suspended it resets baselines around center, flushes layout and
// re-enables effects on the next frame.
func (m *Manager) NormalizeSlidePositions(center int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.offsets)
	if n == 0 {
		return
	}

	m.animated = false
	m.baselineLocked()
	m.updateAdjacentLocked(mod(center, n))
	m.flushes++

	if m.restore != nil {
		m.restore.Stop()
	}
	m.restore = m.clock.AfterFunc(0, func() {
		m.mu.Lock()
		m.animated = true
		m.restore = nil
		m.mu.Unlock()
	})
}

// Close cancels a pending animation restore.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.restore != nil {
		m.restore.Stop()
		m.restore = nil
	}
}

func (m *Manager) baselineLocked() {
	for i := range m.offsets {
		m.offsets[i] = i * Unit
	}
}

func (m *Manager) updateAdjacentLocked(center int) {
	n := len(m.offsets)
	m.center = center
	if n < 2 {
		return
	}

	pred, succ := mod(center-1, n), mod(center+1, n)
	base := m.offsets[center]

	// With two slides the only neighbor is both predecessor and successor;
	// it waits on the successor side.
	if pred != succ {
		m.offsets[pred] = base - Unit
	}
	m.offsets[succ] = base + Unit
}

func mod(i, n int) int {
	return ((i % n) + n) % n
}
