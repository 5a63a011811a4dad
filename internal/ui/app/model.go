package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	catalogdto "tally/internal/modules/catalog/dto"
	ledgerdto "tally/internal/modules/ledger/dto"
	trackingdto "tally/internal/modules/tracking/dto"
	apperrors "tally/internal/platform/errors"
	"tally/internal/platform/money"
	"tally/internal/platform/timefmt"
	"tally/internal/ui/components"
	"tally/internal/ui/theme"
	historyview "tally/internal/ui/views/history"
	stacksview "tally/internal/ui/views/stacks"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type trackerPort interface {
	Start(ctx context.Context, name string, projectID, clientID int64) (trackingdto.StartOutput, error)
	Stop(ctx context.Context) (trackingdto.StopOutput, error)
	Active() (trackingdto.StateOutput, error)
	Watch(kind trackingdto.ObserverKind, scope string, fn func(trackingdto.Event)) func()
}

type ledgerPort interface {
	Stacks(ctx context.Context) ([]ledgerdto.StackOutput, error)
	Tasks(ctx context.Context) ([]ledgerdto.TaskOutput, error)
}

type catalogPort interface {
	ListProjects(ctx context.Context) ([]catalogdto.ProjectOutput, error)
	ListClients(ctx context.Context) ([]catalogdto.ClientOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabStacks tabID = iota
	tabHistory
	tabCount
)

var tabLabels = [tabCount]string{"Tasks", "History"}

// ─── async messages ───────────────────────────────────────────────────────────

// EventMsg carries one observer callback into the update loop.
type EventMsg struct {
	Observer trackingdto.ObserverKind
	Event    trackingdto.Event
}

type activeLoadedMsg struct {
	active trackingdto.StateOutput
	err    error
}

type startedMsg struct {
	out trackingdto.StartOutput
	err error
}

type stoppedMsg struct {
	out trackingdto.StopOutput
	err error
}

type refsLoadedMsg struct {
	refs []string
	err  error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Start   key.Binding
	Stop    key.Binding
	Compact key.Binding
	Reload  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start selected")),
		Stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Compact: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "compact")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Palette, k.Stop, k.Compact, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Palette},
		{k.Tab, k.Compact, k.Reload},
		{k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. Tracker state shown here comes only
// from observer events; the model never polls the session.
type Model struct {
	tracker  trackerPort
	catalog  catalogPort
	currency string
	fwd      *forwarder
	rows     *rowWatches

	stackView   stacksview.Model
	historyView historyview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	compact   bool
	status    string
	width     int
	height    int

	tracking   bool
	header     string
	timeLabel  string
	moneyLabel string
	button     string
	compactTxt string
}

func NewModel(tracker trackerPort, ledger ledgerPort, catalog catalogPort, currency string, compact bool) Model {
	fwd := &forwarder{}
	return Model{
		tracker:     tracker,
		catalog:     catalog,
		currency:    currency,
		fwd:         fwd,
		rows:        newRowWatches(tracker, fwd),
		stackView:   stacksview.New(ledger),
		historyView: historyview.New(ledger),
		activeTab:   tabStacks,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		compact:     compact,
		status:      "ready",
		header:      "idle",
		timeLabel:   timefmt.FormatDuration(0),
		button:      "▶ start",
		compactTxt:  "idle",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.stackView.Init(),
		m.historyView.Init(),
		m.loadActiveCmd(),
		m.loadRefsCmd(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case EventMsg:
		return m.applyEvent(msg)

	case activeLoadedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, apperrors.ErrNoActiveSession) {
				m.status = "active session check: " + msg.err.Error()
			}
			return m, nil
		}
		m.tracking = true
		m.header = headerText(msg.active.TaskName, msg.active.ProjectName, msg.active.ClientName)
		m.timeLabel = timefmt.FormatDuration(msg.active.ElapsedSeconds)
		m.button = "■ stop"
		return m, nil

	case startedMsg:
		if msg.err != nil {
			m.status = "start failed: " + msg.err.Error()
		} else {
			m.status = "started " + msg.out.TaskName
		}
		return m, nil

	case stoppedMsg:
		switch {
		case msg.err != nil:
			m.status = "stop not saved: " + msg.err.Error()
		case !msg.out.Stopped:
			m.status = "nothing to stop"
		default:
			m.status = fmt.Sprintf("stopped %s after %s", msg.out.TaskName, timefmt.FormatDuration(msg.out.ElapsedSeconds))
		}
		return m, nil

	case refsLoadedMsg:
		if msg.err != nil {
			m.status = "catalog: " + msg.err.Error()
		} else {
			m.palette.SetRefs(msg.refs)
		}
		return m, nil

	case stacksview.StacksLoadedMsg:
		var cmd tea.Cmd
		m.stackView, cmd = m.stackView.Update(msg)
		m.rows.sync(m.stackView.GroupKeys())
		return m, cmd

	case historyview.TasksLoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to sub-view when its search filter is active.
		if m.activeTab == tabStacks && m.stackView.Filtering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open("")
		case "c":
			m.compact = !m.compact
			return m, nil
		case "x":
			return m, m.stopCmd()
		case "r":
			return m, m.reloadCmd()
		case "s":
			if m.activeTab == tabStacks {
				if s, ok := m.stackView.Selected(); ok {
					return m, m.startCmd(s.BaseName, s.ProjectID, s.ClientID)
				}
			}
			return m, nil
		}
	}

	// Propagate the message to the active tab's sub-view.
	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabStacks:
		m.stackView, tabCmd = m.stackView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// applyEvent updates exactly the surface the observer kind owns.
func (m Model) applyEvent(msg EventMsg) (tea.Model, tea.Cmd) {
	e := msg.Event
	stopped := e.Kind == trackingdto.EventStop
	switch msg.Observer {
	case trackingdto.ObserverButton:
		m.tracking = !stopped
		if stopped {
			m.button = "▶ start"
		} else {
			m.button = "■ stop"
		}

	case trackingdto.ObserverTimeLabel:
		m.timeLabel = timefmt.FormatDuration(e.ElapsedSeconds)

	case trackingdto.ObserverMoneyLabel:
		m.moneyLabel = ""
		if e.RateCents > 0 {
			m.moneyLabel = money.Format(e.EarnedCents, m.currency)
		}

	case trackingdto.ObserverHeader:
		if stopped {
			m.header = "idle"
			if e.Err != nil {
				m.status = "stop not saved: " + e.Err.Error()
			}
		} else {
			m.header = headerText(e.TaskName, e.ProjectName, e.ClientName)
		}
		if e.Kind != trackingdto.EventTick {
			return m, m.reloadCmd()
		}

	case trackingdto.ObserverCompactTracker:
		if stopped {
			m.compactTxt = "idle · last " + e.TaskName + " " + timefmt.FormatCompact(e.ElapsedSeconds)
		} else {
			m.compactTxt = e.TaskName + " " + timefmt.FormatCompact(e.ElapsedSeconds)
		}

	case trackingdto.ObserverRowHighlight:
		if stopped {
			return m, m.stackView.Highlight("", 0)
		}
		return m, m.stackView.Highlight(e.GroupKey, e.ElapsedSeconds)
	}
	return m, nil
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.compact {
		return m.compactView()
	}
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	tabBarH := lipgloss.Height(tabBar)
	statusBarH := lipgloss.Height(statusBar)

	contentH := m.height - tabBarH - statusBarH
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) compactView() string {
	line := m.compactTxt
	if m.tracking {
		line = theme.Hot.Render("● ") + line
	}
	if m.moneyLabel != "" {
		line += "  " + theme.Money.Render(m.moneyLabel)
	}
	box := theme.Compact.Render(line + "\n" + theme.Muted.Render("x:stop  c:expand  q:quit"))
	if m.palette.Visible() {
		box = lipgloss.JoinVertical(lipgloss.Left, box, m.palette.View())
	}
	return box
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabStacks:
		return m.stackView.View()
	case tabHistory:
		return m.historyView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	left := "tally  " + strings.Join(parts, sep)
	right := theme.Muted.Render(m.header)
	if m.tracking {
		right = theme.Hot.Render(m.header)
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	clock := theme.Muted.Render(m.timeLabel)
	if m.tracking {
		clock = theme.Hot.Render(m.timeLabel)
	}
	left := m.button + "  " + clock
	if m.moneyLabel != "" {
		left += "  " + theme.Money.Render(m.moneyLabel)
	}
	left += "  " + m.status
	right := theme.Muted.Render("?:help  :cmd  x:stop  c:compact  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "start":
		name, projectID, clientID, err := parseStart(parts[1:])
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, m.startCmd(name, projectID, clientID)

	case "stop":
		return m, m.stopCmd()

	case "compact":
		m.compact = !m.compact

	case "reload":
		return m, tea.Batch(m.reloadCmd(), m.loadRefsCmd())

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// parseStart reads "start" arguments: @N picks a project, +N a client and
// every other word is part of the task name.
func parseStart(args []string) (name string, projectID, clientID int64, err error) {
	var words []string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "@") && len(arg) > 1:
			projectID, err = strconv.ParseInt(arg[1:], 10, 64)
			if err != nil {
				return "", 0, 0, fmt.Errorf("bad project %q", arg)
			}
		case strings.HasPrefix(arg, "+") && len(arg) > 1:
			clientID, err = strconv.ParseInt(arg[1:], 10, 64)
			if err != nil {
				return "", 0, 0, fmt.Errorf("bad client %q", arg)
			}
		default:
			words = append(words, arg)
		}
	}
	if len(words) == 0 {
		return "", 0, 0, fmt.Errorf("usage: start <name> [@project] [+client]")
	}
	return strings.Join(words, " "), projectID, clientID, nil
}

func headerText(name, project, client string) string {
	parts := []string{name}
	if project != "" {
		parts = append(parts, project)
	}
	if client != "" {
		parts = append(parts, client)
	}
	return strings.Join(parts, " · ")
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.stackView, _ = m.stackView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
}

// ─── async commands ───────────────────────────────────────────────────────────
// Tracker calls run as commands, off the update loop: observers deliver
// into that loop while the tracker holds its lock.

func (m Model) loadActiveCmd() tea.Cmd {
	return func() tea.Msg {
		active, err := m.tracker.Active()
		return activeLoadedMsg{active: active, err: err}
	}
}

func (m Model) startCmd(name string, projectID, clientID int64) tea.Cmd {
	return func() tea.Msg {
		out, err := m.tracker.Start(context.Background(), name, projectID, clientID)
		return startedMsg{out: out, err: err}
	}
}

func (m Model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.tracker.Stop(context.Background())
		return stoppedMsg{out: out, err: err}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	return tea.Batch(m.stackView.Reload(), m.historyView.Reload())
}

func (m Model) loadRefsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.catalog == nil {
			return refsLoadedMsg{}
		}
		ctx := context.Background()
		projects, err := m.catalog.ListProjects(ctx)
		if err != nil {
			return refsLoadedMsg{err: err}
		}
		clients, err := m.catalog.ListClients(ctx)
		if err != nil {
			return refsLoadedMsg{err: err}
		}
		refs := make([]string, 0, len(projects)+len(clients))
		for _, p := range projects {
			label := fmt.Sprintf("@%d %s", p.ID, p.Name)
			if p.ClientName != "" {
				label += " (" + p.ClientName + ")"
			}
			refs = append(refs, label)
		}
		for _, c := range clients {
			refs = append(refs, fmt.Sprintf("+%d %s", c.ID, c.Name))
		}
		return refsLoadedMsg{refs: refs}
	}
}
