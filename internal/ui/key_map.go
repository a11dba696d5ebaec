package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	left       key.Binding
	right      key.Binding
	monthsDown key.Binding
	monthsUp   key.Binding
	milesDown  key.Binding
	milesUp    key.Binding
	toggle     key.Binding
	kind       key.Binding
	notes      key.Binding
	enter      key.Binding
	submit     key.Binding
	back       key.Binding
	discard    key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "earlier")),
		right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "later")),
		monthsDown: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "-1 month")),
		monthsUp:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "+1 month")),
		milesDown:  key.NewBinding(key.WithKeys("{"), key.WithHelp("{", "-1,000 mi")),
		milesUp:    key.NewBinding(key.WithKeys("}"), key.WithHelp("}", "+1,000 mi")),
		toggle:     key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		kind:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "drop-off/wait")),
		notes:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notes")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		submit:     key.NewBinding(key.WithKeys("s", "ctrl+s"), key.WithHelp("s", "book")),
		back:       key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
		discard:    key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "discard")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.left, k.right, k.monthsDown, k.monthsUp, k.milesDown, k.milesUp},
		{k.up, k.down, k.toggle, k.kind, k.notes},
		{k.enter, k.submit, k.back, k.discard, k.quit},
	}
}

// notesKeys are active while the notes field has focus.
type notesKeys struct {
	done key.Binding
}

func newNotesKeys() notesKeys {
	return notesKeys{done: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "done"))}
}
