package history

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	ledgerdto "tally/internal/modules/ledger/dto"
	"tally/internal/platform/timefmt"
	"tally/internal/ui/theme"
)

type TasksPort interface {
	Tasks(ctx context.Context) ([]ledgerdto.TaskOutput, error)
}

type TasksLoadedMsg struct {
	Tasks []ledgerdto.TaskOutput
	Err   error
}

// Model lists individual runs, newest first.
type Model struct {
	port   TasksPort
	table  table.Model
	err    error
	width  int
	height int
}

func New(port TasksPort) Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Surface1).
		BorderBottom(true).
		Foreground(theme.Sapphire)
	styles.Selected = styles.Selected.Foreground(theme.Base).Background(theme.Lavender)
	t.SetStyles(styles)
	return Model{port: port, table: t}
}

func (m Model) Init() tea.Cmd {
	return m.Reload()
}

func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.port.Tasks(context.Background())
		return TasksLoadedMsg{Tasks: tasks, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(m.width))
		m.table.SetHeight(max(m.height-2, 3))
	case TasksLoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.table.SetRows(rows(msg.Tasks))
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.err != nil {
		return theme.Error.Render("history: " + m.err.Error())
	}
	return m.table.View()
}

func columns(width int) []table.Column {
	name := width - 10 - 20 - 20 - 10 - 8
	if name < 12 {
		name = 12
	}
	return []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Task", Width: name},
		{Title: "Project", Width: 18},
		{Title: "Started", Width: 19},
		{Title: "Spent", Width: 9},
	}
}

func rows(tasks []ledgerdto.TaskOutput) []table.Row {
	out := make([]table.Row, 0, len(tasks))
	for i := len(tasks) - 1; i >= 0; i-- {
		t := tasks[i]
		spent := timefmt.FormatDuration(t.TimeSpent)
		if t.Open {
			spent += "*"
		}
		out = append(out, table.Row{fmt.Sprint(t.ID), t.Name, t.ProjectName, t.StartTime, spent})
	}
	return out
}
