package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sleepsun/internal/ui/theme"
)

// PaletteCommand describes one command the palette accepts.
type PaletteCommand struct {
	Name  string
	Args  []string
	Short string
}

func (c PaletteCommand) Usage() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " <" + strings.Join(c.Args, "> <") + ">"
}

// PaletteSubmitMsg carries a command whose argument count already matched.
type PaletteSubmitMsg struct {
	Name string
	Args []string
}

type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	usageStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
	shortStyle = lipgloss.NewStyle().Foreground(theme.Overlay0)
)

// Palette is a one-line command prompt over a fixed command set.
type Palette struct {
	input    textinput.Model
	commands []PaletteCommand
	problem  string
	visible  bool
	width    int
}

func NewPalette(commands []PaletteCommand) Palette {
	ti := textinput.New()
	ti.Placeholder = "command, tab completes"
	ti.CharLimit = 64
	return Palette{input: ti, commands: commands}
}

func (p Palette) Visible() bool { return p.visible }

func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.problem = ""
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

// matches returns the commands whose name starts with the typed name.
func (p Palette) matches() []PaletteCommand {
	fields := strings.Fields(strings.ToLower(p.input.Value()))
	if len(fields) == 0 {
		return p.commands
	}
	var out []PaletteCommand
	for _, c := range p.commands {
		if strings.HasPrefix(c.Name, fields[0]) {
			out = append(out, c)
		}
	}
	return out
}

func (p Palette) parse() (PaletteSubmitMsg, error) {
	fields := strings.Fields(p.input.Value())
	if len(fields) == 0 {
		return PaletteSubmitMsg{}, nil
	}
	name := strings.ToLower(fields[0])
	for _, c := range p.commands {
		if c.Name != name {
			continue
		}
		if len(fields)-1 != len(c.Args) {
			return PaletteSubmitMsg{}, fmt.Errorf("usage: %s", c.Usage())
		}
		return PaletteSubmitMsg{Name: name, Args: fields[1:]}, nil
	}
	return PaletteSubmitMsg{}, fmt.Errorf("unknown command %q", fields[0])
}

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "tab":
			if m := p.matches(); len(m) == 1 {
				p.input.SetValue(m[0].Name + " ")
				p.input.CursorEnd()
			}
			return p, nil
		case "enter":
			submit, err := p.parse()
			if err != nil {
				p.problem = err.Error()
				return p, nil
			}
			p.close()
			if submit.Name == "" {
				return p, func() tea.Msg { return PaletteCancelMsg{} }
			}
			return p, func() tea.Msg { return submit }
		}
	}
	p.problem = ""
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if p.problem != "" {
		sb.WriteString(theme.Error.Render(p.problem) + "\n")
	}
	sb.WriteString("\n")
	for _, c := range p.matches() {
		sb.WriteString(usageStyle.Render(fmt.Sprintf("  %-18s", c.Usage())) + shortStyle.Render(c.Short) + "\n")
	}
	w := p.width
	if w < 20 {
		w = 56
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}
