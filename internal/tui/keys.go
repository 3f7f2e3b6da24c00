package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	NextPane key.Binding
	PrevPane key.Binding
	Enter    key.Binding
	Escape   key.Binding
	Filter   key.Binding

	// Transport
	Toggle      key.Binding
	Next        key.Binding
	Previous    key.Binding
	SeekForward key.Binding
	SeekBack    key.Binding
	Shuffle     key.Binding
	Repeat      key.Binding

	// Library
	PlayAlbum key.Binding
	PlayNext  key.Binding
	Rescan    key.Binding

	// Queue
	Grab   key.Binding
	Remove key.Binding
	Undo   key.Binding

	// Lyrics and sleep timer
	RefreshLyrics key.Binding
	Sleep         key.Binding
	CancelSleep   key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		NextPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		PrevPane: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "previous pane"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play/drop"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		Next: key.NewBinding(
			key.WithKeys(">", "."),
			key.WithHelp(">", "next track"),
		),
		Previous: key.NewBinding(
			key.WithKeys("<", ","),
			key.WithHelp("<", "previous track"),
		),
		SeekForward: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "seek +10s"),
		),
		SeekBack: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "seek -10s"),
		),
		Shuffle: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "shuffle"),
		),
		Repeat: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "repeat"),
		),
		PlayAlbum: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "play album"),
		),
		PlayNext: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "play next"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "rescan library"),
		),
		Grab: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move row"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "d"),
			key.WithHelp("x", "remove row"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo remove"),
		),
		RefreshLyrics: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "reload lyrics"),
		),
		Sleep: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "sleep timer"),
		),
		CancelSleep: key.NewBinding(
			key.WithKeys("Z"),
			key.WithHelp("Z", "cancel sleep"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Next, k.NextPane, k.Filter, k.Sleep, k.Help, k.Quit}
}

// FullHelp returns every binding, grouped for the help overlay
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPane, k.PrevPane, k.Enter, k.Escape, k.Filter},
		{k.Toggle, k.Next, k.Previous, k.SeekForward, k.SeekBack, k.Shuffle, k.Repeat},
		{k.PlayAlbum, k.PlayNext, k.Rescan, k.Grab, k.Remove, k.Undo},
		{k.RefreshLyrics, k.Sleep, k.CancelSleep, k.Help, k.Quit},
	}
}
