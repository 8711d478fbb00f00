package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the carousel's key bindings.
type KeyMap struct {
	Next  key.Binding
	Prev  key.Binding
	Pause key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the bindings used by the run command.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next:  key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/l", "next")),
		Prev:  key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←/h", "prev")),
		Pause: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Pause, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Prev, k.Next}, {k.Pause, k.Help, k.Quit}}
}
