package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit key.Binding
	Next   key.Binding
	Prev   key.Binding
	Copy   key.Binding
	Speak  key.Binding
	PageUp key.Binding
	PageDn key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Next:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next reply")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev reply")),
		Copy:   key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
		Speak:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "speak")),
		PageUp: key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDn: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "scroll down")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Next, k.Copy, k.Speak, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Quit},
		{k.Next, k.Prev, k.Copy, k.Speak},
		{k.PageUp, k.PageDn},
	}
}
