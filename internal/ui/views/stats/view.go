package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	statsdto "sleepsun/internal/modules/stats/dto"
	apperrors "sleepsun/internal/platform/errors"
	"sleepsun/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	Graph(ctx context.Context, rangeStart, rangeEnd string, sessionIDs []string, maxHeight float64) ([]statsdto.GraphBucketOutput, error)
	Averages(ctx context.Context, rangeStart, rangeEnd string) (statsdto.AveragesOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Buckets  []statsdto.GraphBucketOutput
	Averages statsdto.AveragesOutput
	Err      error
}

// ─── list item ───────────────────────────────────────────────────────────────

type bucketItem struct {
	bucket statsdto.GraphBucketOutput
}

func (i bucketItem) Title() string       { return i.bucket.Date }
func (i bucketItem) Description() string { return i.bucket.DurationTime + " asleep" }
func (i bucketItem) FilterValue() string { return i.bucket.Date }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     Port
	list     list.Model
	detail   viewport.Model
	spinner  spinner.Model
	buckets  []statsdto.GraphBucketOutput
	averages statsdto.AveragesOutput
	days     int
	empty    bool
	loading  bool
	width    int
	height   int
}

func New(port Port, days int) Model {
	if days <= 0 {
		days = 14
	}
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Green).BorderForeground(theme.Green)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Green)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Nights"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Green)

	return Model{port: port, list: l, detail: vp, spinner: sp, days: days, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

func (m Model) Days() int { return m.days }

// SetDays changes the window and returns the reload command.
func (m *Model) SetDays(days int) tea.Cmd {
	if days > 0 {
		m.days = days
	}
	m.loading = true
	return m.Reload()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case LoadedMsg:
		m.loading = false
		m.empty = errors.Is(msg.Err, apperrors.ErrValidation)
		if msg.Err != nil && !m.empty {
			m.list.Title = "Nights: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = fmt.Sprintf("Nights (last %d days)", m.days)
		m.buckets, m.averages = msg.Buckets, msg.Averages
		items := make([]list.Item, 0, len(msg.Buckets))
		for i := len(msg.Buckets) - 1; i >= 0; i-- {
			items = append(items, bucketItem{bucket: msg.Buckets[i]})
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.detail.SetContent(m.renderDetail())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.loading {
		var lCmd tea.Cmd
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)

		var vCmd tea.Cmd
		m.detail, vCmd = m.detail.Update(msg)
		cmds = append(cmds, vCmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading statistics…")
	}
	listW := m.width * 30 / 100
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Filtering reports whether the list's search filter is open, in which case
// global keys must yield.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Reload queries the trailing window ending now.
func (m Model) Reload() tea.Cmd {
	days := m.days
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{}
		}
		now := time.Now().UTC()
		start := now.AddDate(0, 0, -days).Format(time.RFC3339)
		end := now.Format(time.RFC3339)
		ctx := context.Background()
		buckets, err := m.port.Graph(ctx, start, end, nil, 1)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		avg, err := m.port.Averages(ctx, start, end)
		return LoadedMsg{Buckets: buckets, Averages: avg, Err: err}
	}
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 30 / 100
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.detail.Width = detailW - 4
	m.detail.Height = m.height - 4
	m.detail.SetContent(m.renderDetail())
}

func (m Model) renderDetail() string {
	if m.empty || len(m.buckets) == 0 {
		return theme.Muted.Render("No sleep recorded in this window")
	}
	barW := max(m.detail.Width-24, 10)

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Sleep per night") + "\n\n")
	for _, b := range m.buckets {
		filled := int(b.Height * float64(barW))
		sb.WriteString(fmt.Sprintf("%s %s %s\n",
			theme.Muted.Render(b.Date[5:]),
			theme.Bar.Render(strings.Repeat("█", filled))+theme.Muted.Render(strings.Repeat("░", barW-filled)),
			b.DurationTime))
	}
	a := m.averages
	sb.WriteString("\n" + theme.Title.Render("Averages") + theme.Muted.Render(fmt.Sprintf("  %d sessions", a.Count)) + "\n")
	sb.WriteString(fmt.Sprintf("  bedtime  %s  %s\n", theme.Night.Render(a.Start.MeanTime), consistency(a.Start.Concentration)))
	sb.WriteString(fmt.Sprintf("  wake-up  %s  %s\n", theme.Day.Render(a.End.MeanTime), consistency(a.End.Concentration)))
	sb.WriteString(fmt.Sprintf("  duration %s\n", a.DurationMeanTime))
	return sb.String()
}

func consistency(r float64) string {
	label := "irregular"
	switch {
	case r >= 0.9:
		label = "very regular"
	case r >= 0.7:
		label = "regular"
	}
	return theme.Muted.Render(fmt.Sprintf("(%s, R=%.2f)", label, r))
}
