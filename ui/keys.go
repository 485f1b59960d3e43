package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Advance   key.Binding
	Start     key.Binding
	Pause     key.Binding
	Stop      key.Binding
	Back      key.Binding
	NextScene key.Binding
	PrevScene key.Binding
	Jump      key.Binding
	Up        key.Binding
	Down      key.Binding
	Improv    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Advance:   key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "next line")),
		Start:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Pause:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume")),
		Stop:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Back:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "back a line")),
		NextScene: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next scene")),
		PrevScene: key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "prev scene")),
		Jump:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "jump to cursor")),
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "cursor up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "cursor down")),
		Improv:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "improv")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Advance, k.Start, k.Pause, k.Stop, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Advance, k.Start, k.Pause, k.Stop},
		{k.Back, k.NextScene, k.PrevScene, k.Jump},
		{k.Up, k.Down, k.Improv, k.Quit},
	}
}
