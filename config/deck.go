package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/carousel/slides"
)

// Deck is a carousel described in a file: its settings and its panels.
type Deck struct {
	Settings Settings
	Panels   []slides.Panel
}

// deckKeys maps file keys under "settings" to attribute names.
var deckKeys = map[string]string{
	"transition_duration":  AttrTransitionDuration,
	"autoplay":             AttrAutoplay,
	"autoplay_interval":    AttrAutoplayInterval,
	"swipe_threshold":      AttrSwipeThreshold,
	"swipe_debounce":       AttrSwipeDebounce,
	"reduced_motion":       AttrReducedMotion,
	"visibility_threshold": AttrVisibilityThreshold,
	"mode":                 AttrMode,
}

// LoadDeck reads a deck file (YAML, TOML or JSON by extension). Settings can
// be overridden with CAROUSEL_SETTINGS_* environment variables, for example
// CAROUSEL_SETTINGS_AUTOPLAY_INTERVAL=2s.
func LoadDeck(path string) (Deck, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("CAROUSEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return Deck{}, fmt.Errorf("read deck %s: %w", path, err)
	}

	attrs := Attributes{}
	for key, attr := range deckKeys {
		full := "settings." + key
		if v.IsSet(full) {
			attrs[attr] = v.GetString(full)
		}
	}

	settings, err := Read(attrs)
	if err != nil {
		return Deck{}, fmt.Errorf("deck %s: %w", path, err)
	}

	var panels []slides.Panel
	if err := v.UnmarshalKey("panels", &panels); err != nil {
		return Deck{}, fmt.Errorf("decode panels in %s: %w", path, err)
	}
	for i := range panels {
		if panels[i].ID == "" {
			panels[i].ID = fmt.Sprintf("panel-%d", i+1)
		}
	}

	return Deck{Settings: settings, Panels: panels}, nil
}
