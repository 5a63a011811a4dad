package stacks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	ledgerdto "tally/internal/modules/ledger/dto"
	"tally/internal/platform/timefmt"
	"tally/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type StacksPort interface {
	Stacks(ctx context.Context) ([]ledgerdto.StackOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type StacksLoadedMsg struct {
	Stacks []ledgerdto.StackOutput
	Err    error
}

// ─── list item ───────────────────────────────────────────────────────────────

type stackItem struct {
	stack ledgerdto.StackOutput
	// live is running time not yet in the stored total.
	live    int64
	running bool
}

func (i stackItem) Title() string {
	if i.running {
		return "● " + i.stack.BaseName
	}
	return i.stack.BaseName
}

func (i stackItem) Description() string {
	total := i.stack.TotalSeconds
	if i.running {
		total += i.live
	}
	where := whereLabel(i.stack.ProjectName, i.stack.ClientName)
	return fmt.Sprintf("%s  %s  ×%d", timefmt.FormatDuration(total), where, i.stack.Count)
}

func (i stackItem) FilterValue() string { return i.stack.BaseName + " " + i.stack.ProjectName }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    StacksPort
	list    list.Model
	stacks  []ledgerdto.StackOutput
	detail  viewport.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int

	runningKey string
	runningSec int64
	// baseline is how much of runningSec the loaded totals already hold
	// through checkpoints.
	baseline int64
}

func New(port StacksPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Tasks"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		list:    l,
		detail:  vp,
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case StacksLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Tasks: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "Tasks"
		m.stacks = msg.Stacks
		m.baseline = m.runningSec
		cmds = append(cmds, m.list.SetItems(m.items()))
		m.detail.SetContent(m.renderDetail())

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			m.detail.SetContent(m.renderDetail())
		}

		var vCmd tea.Cmd
		m.detail, vCmd = m.detail.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading tasks…")
	}

	listW := m.width * 5 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Reload fetches stacks again, e.g. after a session stops.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		stacks, err := m.port.Stacks(context.Background())
		return StacksLoadedMsg{Stacks: stacks, Err: err}
	}
}

// Highlight marks the row for groupKey as running with elapsed seconds on
// top of its stored total. An empty key clears the highlight.
func (m *Model) Highlight(groupKey string, elapsed int64) tea.Cmd {
	if groupKey != m.runningKey {
		m.baseline = 0
	}
	m.runningKey = groupKey
	m.runningSec = elapsed
	if m.loading {
		return nil
	}
	cmd := m.list.SetItems(m.items())
	m.detail.SetContent(m.renderDetail())
	return cmd
}

// GroupKeys lists the keys currently shown, for per-row observers.
func (m Model) GroupKeys() []string {
	keys := make([]string, 0, len(m.stacks))
	for _, s := range m.stacks {
		keys = append(keys, s.GroupKey)
	}
	return keys
}

// Selected returns the highlighted stack, if any.
func (m Model) Selected() (ledgerdto.StackOutput, bool) {
	if item, ok := m.list.SelectedItem().(stackItem); ok {
		return item.stack, true
	}
	return ledgerdto.StackOutput{}, false
}

// Filtering reports whether the list's search filter is currently active.
// The app model checks this to avoid consuming global keys during a search.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) items() []list.Item {
	items := make([]list.Item, len(m.stacks))
	for i, s := range m.stacks {
		running := s.GroupKey == m.runningKey && m.runningKey != ""
		items[i] = stackItem{stack: s, running: running, live: m.unsaved()}
	}
	return items
}

func (m Model) unsaved() int64 {
	if d := m.runningSec - m.baseline; d > 0 {
		return d
	}
	return 0
}

func (m *Model) resize() {
	listW := m.width * 5 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.detail.Width = detailW - 4
	m.detail.Height = m.height - 4
}

func (m Model) renderDetail() string {
	s, ok := m.Selected()
	if !ok {
		return theme.Muted.Render("No tasks yet. Press : and type start <name>.")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(s.BaseName) + "\n\n")
	sb.WriteString(theme.Muted.Render("project: ") + orDash(s.ProjectName) + "\n")
	sb.WriteString(theme.Muted.Render("client:  ") + orDash(s.ClientName) + "\n")
	sb.WriteString(theme.Muted.Render("runs:    ") + fmt.Sprint(s.Count) + "\n")
	total := s.TotalSeconds
	if s.GroupKey == m.runningKey {
		total += m.unsaved()
		sb.WriteString(theme.Muted.Render("now:     ") + theme.Hot.Render(timefmt.FormatDuration(m.runningSec)) + "\n")
	}
	sb.WriteString(theme.Muted.Render("total:   ") + timefmt.FormatDuration(total) + "\n")
	sb.WriteString(theme.Muted.Render("last:    ") + s.LastStart + "\n")
	if s.Open && s.GroupKey != m.runningKey {
		sb.WriteString("\n" + theme.Error.Render("has an unfinished run, see `tally stale list`") + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("s: start again  x: stop"))
	return sb.String()
}

func whereLabel(project, client string) string {
	switch {
	case project != "" && client != "":
		return project + " · " + client
	case project != "":
		return project
	case client != "":
		return client
	}
	return "no project"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
