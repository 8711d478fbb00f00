// Package slides owns the carousel's slide sequence.
//
// Panels are stored once in an arena; the sequence holds lightweight display
// records pointing into it. When at least two panels exist the sequence is
// framed by two clone records, one copy of the last real slide before it and
// one copy of the first after it, so a transition across the wrap boundary
// always has a neighbor to animate in. After such a transition settles the
// clone becomes real, its duplicate on the far boundary is deleted and fresh
// clones are created.
package slides

import (
	"fmt"
	"strings"
)

// Panel is one piece of content in the arena.
type Panel struct {
	ID     string `mapstructure:"id" yaml:"id"`
	Title  string `mapstructure:"title" yaml:"title"`
	Body   string `mapstructure:"body" yaml:"body"`
	Active bool   `mapstructure:"active" yaml:"active"` // initially active
}

// Role distinguishes real slides from boundary clones.
type Role int

const (
	RoleReal Role = iota
	RoleClone
)

func (r Role) String() string {
	if r == RoleClone {
		return "clone"
	}
	return "real"
}

// Position is the positional tag a rendering layer acts on.
type Position string

const (
	Unplaced       Position = ""
	Center         Position = "center"
	Left           Position = "left"
	Right          Position = "right"
	OffscreenLeft  Position = "offscreen-left"
	OffscreenRight Position = "offscreen-right"
)

// Direction is a navigation direction. The zero value means no motion.
type Direction int

const (
	None     Direction = 0
	Forward  Direction = 1
	Backward Direction = -1
)

// Step is the index delta of one navigation in this direction.
func (d Direction) Step() int { return int(d) }

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction { return -d }

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "none"
	}
}

// ParseDirection accepts forward/next and backward/prev.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "next":
		return Forward, nil
	case "backward", "prev", "previous":
		return Backward, nil
	}
	return None, fmt.Errorf("unknown direction %q", s)
}

// Slide is a display record in the sequence.
type Slide struct {
	Index    int      // position in the sequence, clones included
	Panel    int      // index into the panel arena
	Role     Role     // real or clone
	Position Position // positional tag
	Next     bool     // one step beyond left/right
	Motion   Direction
	Target   Position // tag the slide animates toward while Motion is set
	Current  bool     // marks the center slide across reindexing
}

// IsClone reports whether the slide is a boundary copy.
func (s Slide) IsClone() bool { return s.Role == RoleClone }

// Moving reports whether the slide carries transition markers.
func (s Slide) Moving() bool { return s.Motion != None }
