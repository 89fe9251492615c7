package player

import "github.com/charmbracelet/bubbles/key"

// keyMap is the player's key bindings. It implements help.KeyMap.
type keyMap struct {
	Toggle key.Binding
	Prev   key.Binding
	Next   key.Binding
	Faster key.Binding
	Slower key.Binding
	Start  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev frame")),
		Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next frame")),
		Faster: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Slower: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
		Start:  key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first frame")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Prev, k.Next, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Prev, k.Next, k.Start},
		{k.Faster, k.Slower},
		{k.Help, k.Quit},
	}
}
