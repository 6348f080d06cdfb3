package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/calendard/internal/views"
)

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Dismiss    key.Binding
	DismissAll key.Binding
	Refresh    key.Binding
	Rearm      key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "previous")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next")),
		Dismiss:    key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "dismiss")),
		DismissAll: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "dismiss all")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh agenda")),
		Rearm:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "re-arm reminders")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Dismiss, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Dismiss, k.DismissAll},
		{k.Refresh, k.Rearm},
		{k.Help, k.Quit},
	}
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	var plain []string
	for _, group := range m.keys.FullHelp() {
		for _, b := range group {
			h := b.Help()
			plain = append(plain, fmt.Sprintf("- %s: %s", h.Key, h.Desc))
		}
	}
	full := m.helpModel
	full.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: plain,
		HelpView: full.View(m.keys),
	})
}
