package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Defaults(t *testing.T) {
	s, err := Read(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.Equal(t, 500*time.Millisecond, s.TransitionDuration)
	assert.Equal(t, 50.0, s.SwipeThreshold)
	assert.False(t, s.AutoplayAllowed())
}

func TestRead_Attributes(t *testing.T) {
	s, err := Read(Attributes{
		"data-transition-duration": "450",
		"autoplay":                 "",
		"autoplay_interval":        "3s",
		"swipe-threshold":          "60",
		"swipe-debounce":           "80ms",
		"visibility-threshold":     "0.25",
		"mode":                     "OFFSET",
		"aria-label":               "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, 450*time.Millisecond, s.TransitionDuration)
	assert.True(t, s.AutoplayEnabled)
	assert.Equal(t, 3*time.Second, s.AutoplayInterval)
	assert.Equal(t, 60.0, s.SwipeThreshold)
	assert.Equal(t, 80*time.Millisecond, s.SwipeDebounce)
	assert.Equal(t, 0.25, s.VisibilityThreshold)
	assert.Equal(t, ModeOffset, s.Mode)
	assert.True(t, s.AutoplayAllowed())
}

func TestRead_ReducedMotionBlocksAutoplay(t *testing.T) {
	s, err := Read(Attributes{"autoplay": "true", "reduced-motion": "true"})
	require.NoError(t, err)
	assert.True(t, s.AutoplayEnabled)
	assert.False(t, s.AutoplayAllowed())
}

func TestRead_Invalid(t *testing.T) {
	cases := map[string]Attributes{
		"duration":   {"transition-duration": "soon"},
		"negative":   {"transition-duration": "-5ms"},
		"flag":       {"autoplay": "perhaps"},
		"threshold":  {"swipe-threshold": "far"},
		"visibility": {"visibility-threshold": "1.5"},
		"nan swipe":  {"swipe-threshold": "NaN"},
		"inf swipe":  {"swipe-threshold": "+Inf"},
		"nan view":   {"visibility-threshold": "NaN"},
		"mode":       {"mode": "carousel"},
		"interval":   {"autoplay": "true", "autoplay-interval": "0"},
	}
	for name, attrs := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(attrs)
			assert.ErrorIs(t, err, ErrInvalidSetting)
		})
	}
}

func TestAttributes_RoundTrip(t *testing.T) {
	want := Defaults()
	want.AutoplayEnabled = true
	want.AutoplayInterval = 1500 * time.Millisecond

	got, err := Read(want.Attributes())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

const deckYAML = `
settings:
  transition_duration: 300ms
  autoplay: true
  autoplay_interval: 4s
  swipe_threshold: 40
panels:
  - id: intro
    title: Welcome
    body: First panel
  - title: Second
    body: Second panel
    active: true
  - id: outro
    title: Goodbye
`

func writeDeck(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDeck(t *testing.T) {
	deck, err := LoadDeck(writeDeck(t, deckYAML))
	require.NoError(t, err)

	assert.Equal(t, 300*time.Millisecond, deck.Settings.TransitionDuration)
	assert.True(t, deck.Settings.AutoplayEnabled)
	assert.Equal(t, 4*time.Second, deck.Settings.AutoplayInterval)
	assert.Equal(t, 40.0, deck.Settings.SwipeThreshold)
	assert.Equal(t, Defaults().SwipeDebounce, deck.Settings.SwipeDebounce)

	require.Len(t, deck.Panels, 3)
	assert.Equal(t, "intro", deck.Panels[0].ID)
	assert.Equal(t, "panel-2", deck.Panels[1].ID)
	assert.True(t, deck.Panels[1].Active)
	assert.Equal(t, "Goodbye", deck.Panels[2].Title)
}

func TestLoadDeck_EnvOverride(t *testing.T) {
	t.Setenv("CAROUSEL_SETTINGS_AUTOPLAY_INTERVAL", "2s")

	deck, err := LoadDeck(writeDeck(t, deckYAML))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, deck.Settings.AutoplayInterval)
}

func TestLoadDeck_Errors(t *testing.T) {
	_, err := LoadDeck(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadDeck(writeDeck(t, "settings:\n  swipe_threshold: wide\n"))
	assert.ErrorIs(t, err, ErrInvalidSetting)
}

func TestHostFromEnv(t *testing.T) {
	t.Setenv("CAROUSEL_REDUCED_MOTION", "true")
	t.Setenv("CAROUSEL_LOG_LEVEL", "debug")

	h, err := HostFromEnv()
	require.NoError(t, err)
	assert.True(t, h.ReducedMotion)
	assert.Equal(t, "debug", h.LogLevel)

	s := Defaults()
	s.AutoplayEnabled = true
	assert.False(t, s.WithHost(h).AutoplayAllowed())
}

func TestHostFromEnv_Invalid(t *testing.T) {
	t.Setenv("CAROUSEL_REDUCED_MOTION", "sometimes")
	_, err := HostFromEnv()
	assert.Error(t, err)
}
