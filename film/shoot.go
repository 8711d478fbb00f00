package film

import (
	"errors"
	"fmt"

	"github.com/teranos/carousel"
	"github.com/teranos/carousel/clock"
	"github.com/teranos/carousel/slides"
)

// ErrNothingToFilm is returned when the carousel refuses to move, e.g. a
// deck with a single panel.
var ErrNothingToFilm = errors.New("carousel did not move")

// Camera renders what a frame shows.
type Camera interface {
	View() string
}

// Script films a carousel on a manual clock: a frame at rest, then for each
// step a frame mid-transition and one after it settled.
type Script struct {
	Carousel  *carousel.Carousel
	Clock     *clock.Manual
	Camera    Camera
	Steps     int
	Direction slides.Direction
}

// Shoot runs the script into reel and finishes it.
func Shoot(s Script, reel *Reel) (*Manifest, error) {
	if s.Direction == slides.None {
		s.Direction = slides.Forward
	}
	c := s.Carousel

	capture := func(label string) error {
		_, err := reel.Capture(label, c.Current(), c.State().String(), s.Camera.View())
		return err
	}

	if err := capture("rest-0"); err != nil {
		return nil, err
	}
	for i := 1; i <= s.Steps; i++ {
		if c.Navigate(s.Direction) == nil {
			return nil, fmt.Errorf("step %d: %w", i, ErrNothingToFilm)
		}
		s.Clock.Advance(0)
		if err := capture(fmt.Sprintf("moving-%d", i)); err != nil {
			return nil, err
		}
		c.TransitionEnd()
		if err := capture(fmt.Sprintf("rest-%d", i)); err != nil {
			return nil, err
		}
	}
	return reel.Finish()
}
