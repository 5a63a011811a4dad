package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tally/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// commandHints must stay in sync with the switch in app/model.go executePalette.
var commandHints = []string{
	"start <name> [@project] [+client]",
	"stop",
	"compact",
	"reload",
}

const maxHints = 6

// Palette is the command prompt overlay. Besides the fixed commands it
// completes "@" and "+" tokens from the project and client hints it was given.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
	refs    []string
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "start Write report @2"
	ti.CharLimit = 256
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the palette with initial text and returns the focus command.
func (p *Palette) Open(initial string) tea.Cmd {
	p.visible = true
	p.input.SetValue(initial)
	p.input.CursorEnd()
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

// SetRefs replaces the "@id name" and "+id name" completions.
func (p *Palette) SetRefs(refs []string) { p.refs = refs }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	matching := p.suggestions(p.input.Value())

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("tally") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if len(matching) > 0 {
		sb.WriteString("\n")
		for _, h := range matching {
			sb.WriteString(hintStyle.Render("  "+h) + "\n")
		}
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}

// suggestions completes the last token when it starts with @ or +, and the
// command name otherwise.
func (p Palette) suggestions(value string) []string {
	fields := strings.Fields(value)
	last := ""
	if len(fields) > 0 && !strings.HasSuffix(value, " ") {
		last = fields[len(fields)-1]
	}
	var pool []string
	prefix := strings.ToLower(value)
	if strings.HasPrefix(last, "@") || strings.HasPrefix(last, "+") {
		pool = p.refs
		prefix = strings.ToLower(last)
	} else if len(fields) <= 1 {
		pool = commandHints
	}
	var out []string
	for _, h := range pool {
		if prefix == "" || strings.HasPrefix(strings.ToLower(h), prefix) {
			out = append(out, h)
			if len(out) == maxHints {
				break
			}
		}
	}
	return out
}
