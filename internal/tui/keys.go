package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	PrevPage    key.Binding
	NextPage    key.Binding
	Search      key.Binding
	Filter      key.Binding
	Sort        key.Binding
	Select      key.Binding
	ClearSel    key.Binding
	Deactivate  key.Binding
	Reactivate  key.Binding
	ResetMFA    key.Binding
	CycleRole   key.Binding
	ApplyRole   key.Binding
	Refresh     key.Binding
	Help        key.Binding
	Quit        key.Binding
	SubmitInput key.Binding
	CancelInput key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage:    key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h", "prev page")),
		NextPage:    key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l", "next page")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "status filter")),
		Sort:        key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6"), key.WithHelp("1-6", "sort column")),
		Select:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		ClearSel:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear selection")),
		Deactivate:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "deactivate")),
		Reactivate:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "reactivate")),
		ResetMFA:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "reset MFA")),
		CycleRole:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "next role")),
		ApplyRole:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "set role on selection")),
		Refresh:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		SubmitInput: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		CancelInput: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Filter, k.Sort, k.Select, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage, k.Refresh},
		{k.Search, k.Filter, k.Sort},
		{k.Select, k.ClearSel, k.CycleRole, k.ApplyRole},
		{k.Deactivate, k.Reactivate, k.ResetMFA},
		{k.Help, k.Quit},
	}
}
