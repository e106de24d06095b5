// Package ui renders terminal progress for long kstub runs.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"kstub/internal/index"
)

// maxRows bounds the unit list; stores often hold thousands of units.
const maxRows = 12

const statusWidth = 12

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	countsStyle = lipgloss.NewStyle().Faint(true)
	// statusStyles colors a unit row by its label; other labels use "queued".
	statusStyles = map[string]lipgloss.Style{
		"queued":   lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		"loading":  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"building": lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"done":     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"error":    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
	// stageWeight is the share of a unit's work finished once it enters a stage.
	stageWeight = map[index.Stage]float64{
		index.StageLoad:  0.2,
		index.StageBuild: 0.6,
	}
)

type progressModel struct {
	title      string
	events     <-chan index.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []unitItem
	byUnit     map[string]int
	stageLabel string
	width      int
	done       bool
}

type unitItem struct {
	unit   string
	status string
	stage  index.Stage
}

func (it unitItem) finished() bool { return it.status == "done" || it.status == "error" }

type eventMsg index.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that follows index events for
// the given units until events is closed.
func NewProgressModel(title string, units []string, events <-chan index.Event) tea.Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		items:   make([]unitItem, len(units)),
		byUnit:  make(map[string]int, len(units)),
		width:   80,
	}
	for i, unit := range units {
		m.items[i] = unitItem{unit: unit, status: "queued"}
		m.byUnit[unit] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(index.Event(msg)), m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		next, cmd := m.prog.Update(msg)
		m.prog = next.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.header()))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-4, 20)
	for _, item := range m.visible() {
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(item.unit, nameWidth))
	}
	done, failed := m.counts()
	b.WriteString(countsStyle.Render(fmt.Sprintf("\n  %d/%d units, %d failed", done+failed, len(m.items), failed)))
	b.WriteString("\n\n")

	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) header() string {
	h := m.title
	if m.stageLabel != "" {
		h = fmt.Sprintf("%s (%s)", h, m.stageLabel)
	}
	if m.done {
		return "done: " + h
	}
	return m.spinner.View() + " " + h
}

// visible lists failed units first, then working ones, up to maxRows.
func (m *progressModel) visible() []unitItem {
	if len(m.items) <= maxRows {
		return m.items
	}
	out := make([]unitItem, 0, maxRows)
	for _, want := range []func(unitItem) bool{
		func(it unitItem) bool { return it.status == "error" },
		func(it unitItem) bool { return !it.finished() && it.status != "queued" },
	} {
		for _, item := range m.items {
			if len(out) == maxRows {
				return out
			}
			if want(item) {
				out = append(out, item)
			}
		}
	}
	return out
}

func (m *progressModel) counts() (done, failed int) {
	for _, item := range m.items {
		switch item.status {
		case "done":
			done++
		case "error":
			failed++
		}
	}
	return done, failed
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

// applyEvent records ev; an event without a unit describes the whole run.
func (m *progressModel) applyEvent(ev index.Event) tea.Cmd {
	label := statusLabel(ev.Stage, ev.Status)
	if ev.Unit == "" {
		if label != "" {
			m.stageLabel = label
		}
		return nil
	}
	i, ok := m.byUnit[ev.Unit]
	if !ok || label == "" {
		return nil
	}
	m.items[i].status = label
	m.items[i].stage = ev.Stage
	return m.prog.SetPercent(m.percent())
}

// percent counts finished units as whole and working ones by stage.
func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	var total float64
	for _, item := range m.items {
		if item.finished() {
			total++
			continue
		}
		if item.status != "queued" {
			total += stageWeight[item.stage]
		}
	}
	return total / float64(len(m.items))
}

func statusLabel(stage index.Stage, status index.Status) string {
	switch status {
	case index.StatusQueued, index.StatusDone, index.StatusError:
		return string(status)
	case index.StatusWorking:
		switch stage {
		case index.StageLoad:
			return "loading"
		case index.StageBuild:
			return "building"
		}
	}
	return ""
}

func styleStatus(status string) lipgloss.Style {
	if st, ok := statusStyles[status]; ok {
		return st
	}
	return statusStyles["queued"]
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
