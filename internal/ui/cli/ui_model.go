package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"histop/internal/engine/bar"
	"histop/internal/ui/report"
)

const uiBarWidth = 20

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type commandItem struct {
	rank  int
	name  string
	count int
	share string
	bar   string
}

func (i commandItem) Title() string { return fmt.Sprintf("%d. %s", i.rank, i.name) }
func (i commandItem) Description() string {
	return fmt.Sprintf("%s  %d uses  %s", i.bar, i.count, i.share)
}
func (i commandItem) FilterValue() string { return i.name }

type model struct {
	commandList list.Model
	source      string
	dialect     string
	lines       int
	undecodable int
	distinct    int
	total       int
	lastUpdate  time.Time
	lastErr     string
	refresh     func()
}

// snapshotMsg carries one refresh of the watch session.
type snapshotMsg struct {
	st   settings
	snap snapshot
	err  error
}

func initialModel(source string, refresh func()) model {
	commandList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	commandList.Title = "Top Commands"
	commandList.SetShowStatusBar(false)
	commandList.SetFilteringEnabled(true)

	return model{
		commandList: commandList,
		source:      source,
		refresh:     refresh,
		lastUpdate:  time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		height := msg.Height - v - 4
		if height < 5 {
			height = 5
		}
		m.commandList.SetSize(msg.Width-h, height)
	case snapshotMsg:
		m = m.apply(msg)
	}

	var cmd tea.Cmd
	m.commandList, cmd = m.commandList.Update(msg)
	return m, cmd
}

// apply replaces the list with a new snapshot. A failed refresh keeps the
// previous rows and shows the error.
func (m model) apply(msg snapshotMsg) model {
	m.lastUpdate = time.Now()
	if msg.err != nil {
		m.lastErr = msg.err.Error()
		return m
	}
	m.lastErr = ""
	m.source = msg.snap.source
	m.dialect = msg.snap.result.Dialect.String()
	m.lines = msg.snap.result.Lines
	m.undecodable = msg.snap.result.Undecodable
	m.distinct = len(msg.snap.result.Counts)
	m.total = msg.snap.result.Counts.Total()

	cfg := msg.st.bar
	cfg.Width = uiBarWidth
	rows := bar.Render(report.BarItems(msg.snap.ranked), cfg)
	items := make([]list.Item, 0, len(rows))
	for i, row := range rows {
		items = append(items, commandItem{
			rank:  i + 1,
			name:  report.TruncateLabel(row.Label, msg.st.maxLabelWidth),
			count: row.Value,
			share: row.Percentage,
			bar:   report.PlainBar(row.Segments),
		})
	}
	m.commandList.SetItems(items)
	return m
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | %s (%s) | %d lines | %d commands | %d distinct",
		m.lastUpdate.Format("15:04:05"), m.source, m.dialect, m.lines, m.total, m.distinct))

	summary := successStyle.Render("Watching")
	if m.lastErr != "" {
		summary = errorStyle.Render("Refresh failed: " + m.lastErr)
	} else if m.undecodable > 0 {
		summary = errorStyle.Render(fmt.Sprintf("%d undecodable lines skipped", m.undecodable))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Shell History Ranking"), status, summary)
	help := statusStyle.Render("Keys: / filter | r refresh | q quit")
	return docStyle.Render(header + "\n" + help + "\n\n" + m.commandList.View())
}
