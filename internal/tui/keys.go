package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Send          key.Binding
	Newline       key.Binding
	ToggleConfig  key.Binding
	Clear         key.Binding
	CycleModel    key.Binding
	FlipMemory    key.Binding
	FlipPersist   key.Binding
	EditContext   key.Binding
	RefreshModels key.Binding
	Copy          key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
	Quit          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("enter", "ctrl+s"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "newline"),
		),
		ToggleConfig: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "settings"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear"),
		),
		CycleModel: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "model"),
		),
		FlipMemory: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "memory"),
		),
		FlipPersist: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "persist context"),
		),
		EditContext: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "edit context"),
		),
		RefreshModels: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh models"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy reply"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.ToggleConfig, k.CycleModel, k.EditContext, k.Clear, k.Copy, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Newline, k.Clear, k.Copy},
		{k.ToggleConfig, k.CycleModel, k.FlipMemory, k.EditContext, k.FlipPersist, k.RefreshModels},
		{k.ScrollUp, k.ScrollDown, k.Quit},
	}
}

// contextKeyMap is active while the input box edits the initial context.
type contextKeyMap struct {
	Apply   key.Binding
	Newline key.Binding
	Cancel  key.Binding
	Quit    key.Binding
}

func newContextKeyMap(k keyMap) contextKeyMap {
	return contextKeyMap{
		Apply: key.NewBinding(
			key.WithKeys(k.Send.Keys()...),
			key.WithHelp("enter", "apply context"),
		),
		Newline: k.Newline,
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: k.Quit,
	}
}

// ShortHelp implements help.KeyMap.
func (k contextKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Apply, k.Newline, k.Cancel, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k contextKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
