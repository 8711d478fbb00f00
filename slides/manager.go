package slides

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSlides is returned when a manager is built without panels.
	ErrNoSlides = errors.New("carousel has no slides")

	// ErrSequenceTooShort is returned when the four slides of a transition
	// cannot be resolved around the center.
	ErrSequenceTooShort = errors.New("slide sequence too short for transition")
)

// Quad holds the sequence indices of the four slides a transition moves.
type Quad struct {
	Exiting  int // neighbor behind the center, leaves the view
	Center   int // current center, becomes the trailing neighbor
	Target   int // becomes the center
	Entering int // enters the view as the leading neighbor
}

// State is the index bookkeeping of a manager.
type State struct {
	Current   int // panel index of the center slide
	Sequence  int // sequence index of the center slide
	RealCount int
	Clones    int
}

// Manager owns the slide sequence.
//
// Manager is not safe for concurrent use; the navigation controller
// serialises every call.
type Manager struct {
	panels []Panel
	seq    []Slide
	center int
}

// NewManager builds the initial sequence: the active panel at the designated
// center offset, clones at both boundaries and tags derived.
func NewManager(panels []Panel) (*Manager, error) {
	if len(panels) == 0 {
		return nil, ErrNoSlides
	}

	m := &Manager{panels: append([]Panel(nil), panels...)}
	m.seq = make([]Slide, len(panels))
	for i := range panels {
		m.seq[i] = Slide{Index: i, Panel: i, Role: RoleReal}
	}

	m.PositionActiveSlide()
	return m, nil
}

// Panels returns the panel arena.
func (m *Manager) Panels() []Panel {
	return append([]Panel(nil), m.panels...)
}

// Panel returns the content a slide points at.
func (m *Manager) Panel(s Slide) Panel {
	return m.panels[s.Panel]
}

// RealCount is the number of real slides. It never changes.
func (m *Manager) RealCount() int {
	return len(m.panels)
}

// Current returns the panel index of the center slide.
func (m *Manager) Current() int {
	return m.seq[m.center].Panel
}

// Slides returns a copy of the sequence.
func (m *Manager) Slides() []Slide {
	return append([]Slide(nil), m.seq...)
}

// designatedSlot is the storage slot the center occupies at rest.
func (m *Manager) designatedSlot() int {
	return min(1, m.RealCount()-1)
}

// PositionActiveSlide moves the panel flagged active (the first panel when
// none is) to the designated center offset, then rebuilds clones and tags.
func (m *Manager) PositionActiveSlide() {
	reals := m.realSlides()

	active := 0
	for i, s := range reals {
		if m.panels[s.Panel].Active {
			active = i
			break
		}
	}

	if shift := active - m.designatedSlot(); shift != 0 {
		reals = rotate(reals, shift)
	}
	for i := range reals {
		reals[i].Current = false
	}
	reals[m.designatedSlot()].Current = true

	m.seq = reals
	m.ResetCopySlides()
	m.reindexCurrent()
	m.UpdatePositions()
}

// ResetCopySlides removes existing clones and creates exactly two: a copy of
// the last real slide before the sequence and a copy of the first after it.
// A single slide gets no clones.
func (m *Manager) ResetCopySlides() {
	reals := m.realSlides()
	if len(reals) < 2 {
		m.seq = reals
		m.renumber()
		return
	}

	head := cloneOf(reals[len(reals)-1], OffscreenLeft)
	tail := cloneOf(reals[0], OffscreenRight)

	seq := make([]Slide, 0, len(reals)+2)
	seq = append(seq, head)
	seq = append(seq, reals...)
	seq = append(seq, tail)
	m.seq = seq
	m.renumber()
}

// cloneOf copies a slide's content reference only. Markers that would make
// the copy look active or mid-transition are not carried over.
func cloneOf(s Slide, pos Position) Slide {
	return Slide{Panel: s.Panel, Role: RoleClone, Position: pos}
}

// UpdateCentralSlidePositions clears every tag and derives center, left and
// right from the center index.
func (m *Manager) UpdateCentralSlidePositions() {
	for i := range m.seq {
		m.seq[i].Position = Unplaced
	}

	m.seq[m.center].Position = Center
	if l := m.center - 1; l >= 0 {
		m.seq[l].Position = Left
	}
	if r := m.center + 1; r < len(m.seq) {
		m.seq[r].Position = Right
	}
}

// UpdateOffsetSlidePositions tags everything beyond the neighbors offscreen.
// A moving slide already carrying the matching tag is left alone.
func (m *Manager) UpdateOffsetSlidePositions() {
	for i := range m.seq {
		var want Position
		switch {
		case i < m.center-1:
			want = OffscreenLeft
		case i > m.center+1:
			want = OffscreenRight
		default:
			continue
		}

		s := &m.seq[i]
		if s.Moving() && s.Position == want {
			continue
		}
		s.Position = want
	}
}

// UpdateNextSlidePositions marks the slides two steps from center.
func (m *Manager) UpdateNextSlidePositions() {
	for i := range m.seq {
		m.seq[i].Next = false
	}
	for _, i := range []int{m.center - 2, m.center + 2} {
		if i >= 0 && i < len(m.seq) {
			m.seq[i].Next = true
		}
	}
}

// UpdatePositions re-derives every tag.
func (m *Manager) UpdatePositions() {
	m.UpdateCentralSlidePositions()
	m.UpdateOffsetSlidePositions()
	m.UpdateNextSlidePositions()
}

// IsCopySlide reports whether s is a boundary clone.
func (m *Manager) IsCopySlide(s Slide) bool {
	return s.IsClone()
}

// DeleteDuplication runs after a transition settles. When a clone is now
// adjacent to the center, the real duplicate on the opposite boundary is
// deleted, the clone becomes real and fresh clones are created. The side
// the carousel moved toward is checked first. It reports whether the
// sequence changed.
func (m *Manager) DeleteDuplication(dir Direction) bool {
	sides := []Direction{Forward, Backward}
	if dir == Backward {
		sides = []Direction{Backward, Forward}
	}

	for _, side := range sides {
		n := m.center + side.Step()
		if n < 0 || n >= len(m.seq) || !m.IsCopySlide(m.seq[n]) {
			continue
		}

		// The trailing clone copies the first real slide and the leading
		// clone copies the last.
		dup := 1
		if side == Backward {
			dup = len(m.seq) - 2
		}

		m.seq[n].Role = RoleReal
		m.seq = append(m.seq[:dup], m.seq[dup+1:]...)
		m.ResetCopySlides()
		m.reindexCurrent()
		return true
	}
	return false
}

// UpdateIndex moves the center to a sequence index and the current marker
// with it.
func (m *Manager) UpdateIndex(newIndex int) error {
	if newIndex < 0 || newIndex >= len(m.seq) {
		return fmt.Errorf("center index %d outside sequence of %d", newIndex, len(m.seq))
	}
	m.seq[m.center].Current = false
	m.center = newIndex
	m.seq[m.center].Current = true
	return nil
}

// CurrentState returns the index bookkeeping.
func (m *Manager) CurrentState() State {
	clones := 0
	for _, s := range m.seq {
		if s.IsClone() {
			clones++
		}
	}
	return State{
		Current:   m.Current(),
		Sequence:  m.center,
		RealCount: m.RealCount(),
		Clones:    clones,
	}
}

// Resolve finds the four slides a transition in dir moves. When the center
// sits too close to an edge, as a two-slide deck always does in one
// direction, storage is rotated away from that edge first.
func (m *Manager) Resolve(dir Direction) (Quad, error) {
	if dir != Forward && dir != Backward {
		return Quad{}, fmt.Errorf("resolve %s: %w", dir, ErrSequenceTooShort)
	}

	step := dir.Step()
	if m.RealCount() >= 2 {
		for tries := 0; !m.resolvable(step) && tries < m.RealCount(); tries++ {
			m.rotateReals(step)
		}
	}

	if !m.resolvable(step) {
		return Quad{}, fmt.Errorf("resolve %s around %d of %d: %w",
			dir, m.center, len(m.seq), ErrSequenceTooShort)
	}

	return Quad{
		Exiting:  m.center - step,
		Center:   m.center,
		Target:   m.center + step,
		Entering: m.center + 2*step,
	}, nil
}

func (m *Manager) resolvable(step int) bool {
	for _, i := range []int{m.center - step, m.center + 2*step} {
		if i < 0 || i >= len(m.seq) {
			return false
		}
	}
	return true
}

// BeginTransition tags the four slides with direction and target markers and
// advances the center to the target.
func (m *Manager) BeginTransition(q Quad, dir Direction) error {
	trailing, leading := Left, Right
	exit := OffscreenLeft
	if dir == Backward {
		trailing, leading = Right, Left
		exit = OffscreenRight
	}

	marks := []struct {
		index  int
		target Position
	}{
		{q.Exiting, exit},
		{q.Center, trailing},
		{q.Target, Center},
		{q.Entering, leading},
	}
	for _, mk := range marks {
		if mk.index < 0 || mk.index >= len(m.seq) {
			return fmt.Errorf("tag slide %d: %w", mk.index, ErrSequenceTooShort)
		}
	}
	for _, mk := range marks {
		m.seq[mk.index].Motion = dir
		m.seq[mk.index].Target = mk.target
	}

	return m.UpdateIndex(q.Target)
}

// Settle finishes a transition: positions are recomputed, clone bookkeeping
// runs and transition markers are cleared. It reports whether a wrap was
// cleaned up.
func (m *Manager) Settle(dir Direction) bool {
	m.UpdatePositions()
	wrapped := m.DeleteDuplication(dir)

	for i := range m.seq {
		m.seq[i].Motion = None
		m.seq[i].Target = Unplaced
	}
	m.UpdatePositions()
	return wrapped
}

func (m *Manager) realSlides() []Slide {
	reals := make([]Slide, 0, len(m.panels))
	for _, s := range m.seq {
		if !s.IsClone() {
			reals = append(reals, s)
		}
	}
	return reals
}

// rotateReals shifts storage left by step slots, clones rebuilt.
func (m *Manager) rotateReals(step int) {
	m.seq = rotate(m.realSlides(), step)
	m.ResetCopySlides()
	m.reindexCurrent()
}

func (m *Manager) reindexCurrent() {
	for i, s := range m.seq {
		if s.Current {
			m.center = i
			return
		}
	}
	m.center = min(m.center, len(m.seq)-1)
	m.seq[m.center].Current = true
}

func (m *Manager) renumber() {
	for i := range m.seq {
		m.seq[i].Index = i
	}
}

func rotate(s []Slide, shift int) []Slide {
	n := len(s)
	shift = ((shift % n) + n) % n
	out := make([]Slide, 0, n)
	out = append(out, s[shift:]...)
	return append(out, s[:shift]...)
}
