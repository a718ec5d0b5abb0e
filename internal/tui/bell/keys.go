package bell

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the set of bindings the bell responds to.
type KeyMap struct {
	Toggle  key.Binding
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	ReadAll key.Binding
	Clear   key.Binding
	Retry   key.Binding
	Close   key.Binding
	Quit    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle:  key.NewBinding(key.WithKeys("n", "b"), key.WithHelp("n", "notifications")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "mark read")),
		ReadAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "mark all read")),
		Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear all")),
		Retry:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry connection")),
		Close:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Retry, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Up, k.Down, k.Select},
		{k.ReadAll, k.Clear, k.Retry, k.Close, k.Quit},
	}
}

// dropdownHelp is shown while the list is open.
func (k KeyMap) dropdownHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.ReadAll, k.Clear, k.Close}
}
