// Package config derives carousel parameters from declared settings.
//
// Settings arrive the way an embedding page declares them: a flat set of
// string attributes such as "transition-duration" or "data-autoplay". Read
// turns them into typed Settings, applying defaults for anything missing.
// LoadDeck reads the same attributes plus the panel list from a deck file,
// and HostFromEnv picks up host preferences such as reduced motion.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSetting is wrapped by every parse or validation failure.
var ErrInvalidSetting = errors.New("invalid carousel setting")

// Mode selects the layout scheme.
type Mode string

const (
	// ModeTags places slides with positional tags and boundary clones.
	ModeTags Mode = "tags"
	// ModeOffset places slides at numeric virtual offsets.
	ModeOffset Mode = "offset"
)

// Attribute names understood by Read. A "data-" prefix and underscores in
// place of hyphens are accepted too.
const (
	AttrTransitionDuration  = "transition-duration"
	AttrAutoplay            = "autoplay"
	AttrAutoplayInterval    = "autoplay-interval"
	AttrSwipeThreshold      = "swipe-threshold"
	AttrSwipeDebounce       = "swipe-debounce"
	AttrReducedMotion       = "reduced-motion"
	AttrVisibilityThreshold = "visibility-threshold"
	AttrMode                = "mode"
)

// Attributes is the declared, untyped form of the settings.
type Attributes map[string]string

// Settings holds the typed carousel parameters.
type Settings struct {
	// TransitionDuration is how long the rendering layer animates one step.
	// The fallback completion timeout is derived from it.
	TransitionDuration time.Duration
	// AutoplayEnabled turns on timer-driven forward navigation.
	AutoplayEnabled bool
	// AutoplayInterval is the cadence of autoplay navigations.
	AutoplayInterval time.Duration
	// SwipeThreshold is the minimum horizontal drag distance, in pixels.
	SwipeThreshold float64
	// SwipeDebounce is the minimum gap between two swipe navigations.
	SwipeDebounce time.Duration
	// ReducedMotion disables autoplay regardless of AutoplayEnabled.
	ReducedMotion bool
	// VisibilityThreshold is the on-screen ratio at which autoplay runs.
	VisibilityThreshold float64
	// Mode is the layout scheme.
	Mode Mode
}

// Defaults returns the settings used for undeclared attributes.
func Defaults() Settings {
	return Settings{
		TransitionDuration:  500 * time.Millisecond,
		AutoplayEnabled:     false,
		AutoplayInterval:    5 * time.Second,
		SwipeThreshold:      50,
		SwipeDebounce:       50 * time.Millisecond,
		ReducedMotion:       false,
		VisibilityThreshold: 0.5,
		Mode:                ModeTags,
	}
}

// Read derives Settings from declared attributes. Unknown attributes are
// ignored; malformed ones fail with an error wrapping ErrInvalidSetting.
func Read(attrs Attributes) (Settings, error) {
	s := Defaults()

	for rawKey, raw := range attrs {
		key := normalizeKey(rawKey)
		value := strings.TrimSpace(raw)

		var err error
		switch key {
		case AttrTransitionDuration:
			s.TransitionDuration, err = parseDuration(value)
		case AttrAutoplay:
			s.AutoplayEnabled, err = parseFlag(value)
		case AttrAutoplayInterval:
			s.AutoplayInterval, err = parseDuration(value)
		case AttrSwipeThreshold:
			s.SwipeThreshold, err = strconv.ParseFloat(value, 64)
		case AttrSwipeDebounce:
			s.SwipeDebounce, err = parseDuration(value)
		case AttrReducedMotion:
			s.ReducedMotion, err = parseFlag(value)
		case AttrVisibilityThreshold:
			s.VisibilityThreshold, err = strconv.ParseFloat(value, 64)
		case AttrMode:
			s.Mode = Mode(strings.ToLower(value))
		default:
			continue
		}
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %s=%q: %v", ErrInvalidSetting, key, raw, err)
		}
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	switch {
	case s.TransitionDuration < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidSetting, AttrTransitionDuration)
	case s.AutoplayEnabled && s.AutoplayInterval <= 0:
		return fmt.Errorf("%w: %s must be positive when autoplay is on", ErrInvalidSetting, AttrAutoplayInterval)
	case math.IsNaN(s.SwipeThreshold) || math.IsInf(s.SwipeThreshold, 0):
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidSetting, AttrSwipeThreshold)
	case math.IsNaN(s.VisibilityThreshold):
		return fmt.Errorf("%w: %s must be a number", ErrInvalidSetting, AttrVisibilityThreshold)
	case s.SwipeThreshold < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidSetting, AttrSwipeThreshold)
	case s.SwipeDebounce < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidSetting, AttrSwipeDebounce)
	case s.VisibilityThreshold < 0 || s.VisibilityThreshold > 1:
		return fmt.Errorf("%w: %s must be within [0, 1]", ErrInvalidSetting, AttrVisibilityThreshold)
	case s.Mode != ModeTags && s.Mode != ModeOffset:
		return fmt.Errorf("%w: unknown %s %q", ErrInvalidSetting, AttrMode, s.Mode)
	}
	return nil
}

// AutoplayAllowed reports whether autoplay may ever run.
func (s Settings) AutoplayAllowed() bool {
	return s.AutoplayEnabled && !s.ReducedMotion
}

// Attributes renders the settings back into declared form.
func (s Settings) Attributes() Attributes {
	return Attributes{
		AttrTransitionDuration:  s.TransitionDuration.String(),
		AttrAutoplay:            strconv.FormatBool(s.AutoplayEnabled),
		AttrAutoplayInterval:    s.AutoplayInterval.String(),
		AttrSwipeThreshold:      strconv.FormatFloat(s.SwipeThreshold, 'f', -1, 64),
		AttrSwipeDebounce:       s.SwipeDebounce.String(),
		AttrReducedMotion:       strconv.FormatBool(s.ReducedMotion),
		AttrVisibilityThreshold: strconv.FormatFloat(s.VisibilityThreshold, 'f', -1, 64),
		AttrMode:                string(s.Mode),
	}
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.TrimPrefix(key, "data-")
	return strings.ReplaceAll(key, "_", "-")
}

// parseDuration accepts Go durations ("450ms", "1.5s") and bare numbers,
// which are milliseconds.
func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, errors.New("empty duration")
	}
	if ms, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
	return time.ParseDuration(value)
}

// parseFlag treats a present-but-empty attribute as true.
func parseFlag(value string) (bool, error) {
	if value == "" {
		return true, nil
	}
	return strconv.ParseBool(value)
}
