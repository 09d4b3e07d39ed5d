package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	recorddomain "sleepsun/internal/modules/record/domain"
	sessiondto "sleepsun/internal/modules/session/dto"
	statsdto "sleepsun/internal/modules/stats/dto"
	suntimesdto "sleepsun/internal/modules/suntimes/dto"
	apperrors "sleepsun/internal/platform/errors"
	"sleepsun/internal/platform/location"
	"sleepsun/internal/ui/components"
	"sleepsun/internal/ui/theme"
	statsview "sleepsun/internal/ui/views/stats"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type sessionPort interface {
	Start(ctx context.Context, lat, lon *float64) (sessiondto.StartOutput, error)
	Stop(ctx context.Context, lat, lon *float64) (sessiondto.SessionOutput, error)
	GetActive(ctx context.Context) (sessiondto.ActiveSessionOutput, error)
}

type sunPort interface {
	Progress(ctx context.Context, at string, lat, lon float64) (suntimesdto.ProgressOutput, error)
}

type statsPort interface {
	Graph(ctx context.Context, rangeStart, rangeEnd string, sessionIDs []string, maxHeight float64) ([]statsdto.GraphBucketOutput, error)
	Averages(ctx context.Context, rangeStart, rangeEnd string) (statsdto.AveragesOutput, error)
}

// ─── tabs ────────────────────────────────────────────────────────────────────

type tabID int

const (
	tabTracker tabID = iota
	tabStats
	tabCount
)

var tabLabels = [tabCount]string{"Tracker", "Stats"}

// ─── async messages ──────────────────────────────────────────────────────────

type activeLoadedMsg struct {
	active sessiondto.ActiveSessionOutput
	err    error
}

type trackingStartedMsg struct {
	out sessiondto.StartOutput
	err error
}

type trackingStoppedMsg struct {
	out sessiondto.SessionOutput
	err error
}

type sunLoadedMsg struct {
	out suntimesdto.ProgressOutput
	err error
}

type tickMsg time.Time

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Toggle  key.Binding
	Refresh key.Binding
	Tab     key.Binding
	Palette key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Toggle:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start/stop sleep")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Refresh, k.Tab, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Refresh},
		{k.Tab, k.Palette},
		{k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model: the tracker pane, the stats tab and
// the command palette. Business logic stays behind the port interfaces.
type Model struct {
	session sessionPort
	sun     sunPort

	coords    location.Coordinates
	statsView statsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	dayBar    progress.Model

	active    sessiondto.ActiveSessionOutput
	hasActive bool
	busy      bool
	day       suntimesdto.ProgressOutput
	dayDate   string
	hasDay    bool
	now       time.Time
	status    string
	width     int
	height    int
}

func NewModel(session sessionPort, sun sunPort, stats statsPort, coords location.Coordinates) Model {
	bar := progress.New(progress.WithGradient(string(theme.Peach), string(theme.Yellow)))
	return Model{
		session:   session,
		sun:       sun,
		coords:    coords,
		statsView: statsview.New(stats, 14),
		activeTab: tabTracker,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(paletteCommands),
		dayBar:    bar,
		now:       time.Now(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadActiveCmd(),
		m.loadSunCmd(),
		m.statsView.Init(),
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if _, isKey := msg.(tea.KeyMsg); isKey && m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.palette.SetWidth(min(m.width-4, 60))
		m.dayBar.Width = max(min(m.width-16, 60), 10)
		var cmd tea.Cmd
		m.statsView, cmd = m.statsView.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height - 4})
		return m, cmd

	case tickMsg:
		m.now = time.Time(msg)
		if m.hasDay && m.now.Local().Format(recorddomain.DateLayout) != m.dayDate {
			m.hasDay = false
			cmds = append(cmds, m.loadSunCmd())
		}
		cmds = append(cmds, tick())
		return m, tea.Batch(cmds...)

	case activeLoadedMsg:
		switch {
		case msg.err == nil:
			m.hasActive, m.active = true, msg.active
			m.status = "tracking resumed"
		case errors.Is(msg.err, apperrors.ErrNoActiveSession):
			m.hasActive = false
		default:
			m.status = "active session check: " + msg.err.Error()
		}

	case trackingStartedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "start failed: " + msg.err.Error()
			break
		}
		m.hasActive = true
		m.active = sessiondto.ActiveSessionOutput{ID: msg.out.ID, StartedAt: msg.out.StartedAt, Lat: msg.out.Lat, Lon: msg.out.Lon}
		m.status = "sleep started " + msg.out.StartedAt.Local().Format("15:04")
		if msg.out.Replaced != nil {
			m.status += " (replaced session from " + msg.out.Replaced.Local().Format("15:04") + ")"
		}

	case trackingStoppedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "stop failed: " + msg.err.Error()
			if errors.Is(msg.err, apperrors.ErrNoActiveSession) {
				m.hasActive = false
			}
			break
		}
		m.hasActive = false
		m.active = sessiondto.ActiveSessionOutput{}
		m.status = "slept " + msg.out.Duration
		cmds = append(cmds, m.statsView.Reload())

	case sunLoadedMsg:
		if msg.err != nil {
			m.status = "sun times: " + msg.err.Error()
			break
		}
		m.day, m.hasDay = msg.out, true
		m.dayDate = m.now.Local().Format(recorddomain.DateLayout)

	case components.PaletteSubmitMsg:
		return m.executePalette(msg)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case progress.FrameMsg:
		updated, cmd := m.dayBar.Update(msg)
		m.dayBar = updated.(progress.Model)
		return m, cmd

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabStats && m.statsView.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.activeTab = (m.activeTab + 1) % tabCount
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open()
		case key.Matches(msg, m.keys.Toggle):
			return m.toggleTracking()
		case key.Matches(msg, m.keys.Refresh):
			m.status = "refreshing"
			return m, tea.Batch(m.loadActiveCmd(), m.loadSunCmd(), m.statsView.Reload())
		}
	}

	if m.activeTab == tabStats {
		var cmd tea.Cmd
		m.statsView, cmd = m.statsView.Update(msg)
		cmds = append(cmds, cmd)
	} else if _, ok := msg.(statsview.LoadedMsg); ok {
		var cmd tea.Cmd
		m.statsView, cmd = m.statsView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) toggleTracking() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	if m.hasActive {
		m.status = "stopping…"
		return m, m.stopCmd()
	}
	m.status = "starting…"
	return m, m.startCmd()
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabStats:
		content = m.statsView.View()
	default:
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.renderTracker())
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTracker() string {
	var sb strings.Builder
	if m.hasActive {
		elapsed := m.now.Sub(m.active.StartedAt).Truncate(time.Second)
		sb.WriteString(theme.Night.Render("● asleep") + "  " + theme.Muted.Render("since "+m.active.StartedAt.Local().Format("Mon 15:04")) + "\n")
		sb.WriteString(theme.Title.Render(recorddomain.FormatClock(int64(elapsed/time.Second))) + "\n\n")
	} else {
		sb.WriteString(theme.Day.Render("○ awake") + "\n")
		sb.WriteString(theme.Muted.Render("press s to start tracking") + "\n\n")
	}

	if !m.hasDay {
		sb.WriteString(theme.Muted.Render("loading sun times…"))
	} else {
		rec := m.day.Record
		sb.WriteString(fmt.Sprintf("%s  %s   %s  %s   %s\n",
			theme.Day.Render("☀ "+time.Unix(rec.Sunrise, 0).Local().Format("15:04")),
			theme.Muted.Render("sunrise"),
			theme.Night.Render("☾ "+time.Unix(rec.Sunset, 0).Local().Format("15:04")),
			theme.Muted.Render("sunset"),
			theme.Muted.Render("["+rec.Source+"]"),
		))
		sb.WriteString(m.dayBar.ViewAs(dayFraction(m.now.Unix(), rec)) + "\n")
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("%s at %s, %s",
			rec.Date,
			recorddomain.FormatCoordinate(m.coords.Lat),
			recorddomain.FormatCoordinate(m.coords.Lon))))
		if m.coords.Approximate {
			sb.WriteString(theme.Muted.Render(" (approximate)"))
		}
	}
	return theme.PaneActive.Render(sb.String())
}

// dayFraction clamps daylight progress into the bar's [0, 1] range.
func dayFraction(now int64, rec suntimesdto.SunTimesOutput) float64 {
	if rec.Daylength <= 0 {
		return 0
	}
	p := float64(now-rec.Sunrise) / float64(rec.Daylength)
	return max(0, min(1, p))
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "sleepsun  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.hasActive {
		left = theme.Night.Render("● tracking") + "  " + left
	}
	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ───────────────────────────────────────────────────────

var paletteCommands = []components.PaletteCommand{
	{Name: "track:start", Short: "start a sleep session"},
	{Name: "track:stop", Short: "stop and save the session"},
	{Name: "loc", Args: []string{"lat", "lon"}, Short: "use these coordinates"},
	{Name: "days", Args: []string{"n"}, Short: "stats window in days"},
	{Name: "sun:refresh", Short: "reload today's sun times"},
}

func (m Model) executePalette(msg components.PaletteSubmitMsg) (tea.Model, tea.Cmd) {
	switch msg.Name {
	case "track:start":
		if m.hasActive {
			m.status = "already tracking"
			return m, nil
		}
		return m.toggleTracking()

	case "track:stop":
		if !m.hasActive {
			m.status = "not tracking"
			return m, nil
		}
		return m.toggleTracking()

	case "loc":
		lat, errLat := strconv.ParseFloat(msg.Args[0], 64)
		lon, errLon := strconv.ParseFloat(msg.Args[1], 64)
		if errLat != nil || errLon != nil || recorddomain.ValidateCoordinates(&lat, &lon) != nil {
			m.status = "invalid coordinates"
			return m, nil
		}
		m.coords = location.Coordinates{Lat: recorddomain.RoundCoordinate(lat), Lon: recorddomain.RoundCoordinate(lon)}
		m.hasDay = false
		m.status = "location set"
		return m, m.loadSunCmd()

	case "days":
		n, err := strconv.Atoi(msg.Args[0])
		if err != nil || n <= 0 {
			m.status = "days must be a positive integer"
			return m, nil
		}
		m.activeTab = tabStats
		return m, m.statsView.SetDays(n)

	case "sun:refresh":
		return m, m.loadSunCmd()
	}
	return m, nil
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) loadActiveCmd() tea.Cmd {
	return func() tea.Msg {
		active, err := m.session.GetActive(context.Background())
		return activeLoadedMsg{active: active, err: err}
	}
}

func (m Model) startCmd() tea.Cmd {
	lat, lon := m.coords.Lat, m.coords.Lon
	return func() tea.Msg {
		out, err := m.session.Start(context.Background(), &lat, &lon)
		return trackingStartedMsg{out: out, err: err}
	}
}

func (m Model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.session.Stop(context.Background(), nil, nil)
		return trackingStoppedMsg{out: out, err: err}
	}
}

func (m Model) loadSunCmd() tea.Cmd {
	coords := m.coords
	return func() tea.Msg {
		out, err := m.sun.Progress(context.Background(), "", coords.Lat, coords.Lon)
		return sunLoadedMsg{out: out, err: err}
	}
}
