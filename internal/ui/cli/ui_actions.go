package cli

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	// While the filter prompt is open every key belongs to it.
	if m.commandList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.commandList, cmd = m.commandList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		return m, refreshCmd(m.refresh)
	}

	var cmd tea.Cmd
	m.commandList, cmd = m.commandList.Update(msg)
	return m, cmd
}

// refreshCmd asks the session for a new snapshot. The result arrives as a
// snapshotMsg sent by the session.
func refreshCmd(refresh func()) tea.Cmd {
	if refresh == nil {
		return nil
	}
	return func() tea.Msg {
		refresh()
		return nil
	}
}
