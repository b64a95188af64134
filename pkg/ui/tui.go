package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	electrumDomain "github.com/fd1az/electrum-core/business/electrum/domain"
	feesDomain "github.com/fd1az/electrum-core/business/fees/domain"
	"github.com/fd1az/electrum-core/internal/i18n"
	"github.com/fd1az/electrum-core/pkg/ui/components"
)

const (
	statusInterval = time.Second
	feeInterval    = time.Minute
	feeTimeout     = 20 * time.Second
	feedSize       = 8
)

// Source is what the monitor polls.
type Source interface {
	Status() electrumDomain.Status
	EstimateFees(ctx context.Context) (feesDomain.FeeRates, error)
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	ctx    context.Context
	source Source
	l      *i18n.Localizer

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	connection *components.ConnectionPanel
	fees       *components.FeePanel
	feed       *components.LogFeed

	status   electrumDomain.Status
	alert    *AlertMsg
	width    int
	quitting bool
}

// New creates a new TUI model.
func New(ctx context.Context, source Source, l *i18n.Localizer) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = StatusReconnecting

	return Model{
		ctx:        ctx,
		source:     source,
		l:          l,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		connection: components.NewConnectionPanel(),
		fees:       components.NewFeePanel(),
		feed:       components.NewLogFeed(feedSize),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.pollStatus(), m.fetchFees())
}

func tickCmd() tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg { return TickMsg{} })
}

func feeTickCmd() tea.Cmd {
	return tea.Tick(feeInterval, func(time.Time) tea.Msg { return feeTickMsg{} })
}

func (m Model) pollStatus() tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Status: m.source.Status()}
	}
}

func (m Model) fetchFees() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, feeTimeout)
		defer cancel()
		rates, err := m.source.EstimateFees(ctx)
		return FeesMsg{Rates: rates, Err: err}
	}
}

func (m Model) runAction(name string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: name, err: fn(m.ctx)}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, m.pollStatus()

	case feeTickMsg:
		return m, m.fetchFees()

	case StatusMsg:
		m.status = msg.Status
		m.connection.Update(m.connectionView())
		return m, tickCmd()

	case FeesMsg:
		if msg.Err != nil {
			m.fees.SetError(msg.Err.Error())
		} else {
			m.fees.Update([]components.FeeRow{
				{Label: "Fast", Rate: msg.Rates.Fast},
				{Label: "Medium", Rate: msg.Rates.Medium},
				{Label: "Slow", Rate: msg.Rates.Slow},
			})
		}
		return m, feeTickCmd()

	case AlertMsg:
		m.alert = &msg
		m.feed.Add(components.LogLine{Time: time.Now(), Level: "error", Message: msg.Notice.Message})

	case actionDoneMsg:
		level, text := "info", msg.action+" done"
		if msg.err != nil {
			level, text = "error", msg.action+": "+msg.err.Error()
		}
		m.feed.Add(components.LogLine{Time: time.Now(), Level: level, Message: text})

	case LogMsg:
		m.feed.Add(components.LogLine{Time: time.Now(), Level: msg.Level, Message: msg.Message})
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.alert != nil {
		actions := m.alert.Actions
		if actions == nil {
			m.alert = nil
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Retry):
			m.alert = nil
			return m, m.runAction(m.l.T(i18n.MsgTryAgain), actions.Retry)
		case key.Matches(msg, m.keys.Reset):
			m.alert = nil
			return m, m.runAction(m.l.T(i18n.MsgReset), actions.ResetToDefault)
		case key.Matches(msg, m.keys.Dismiss):
			m.alert = nil
			actions.Cancel()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchFees()
	case key.Matches(msg, m.keys.Clear):
		m.feed.Clear()
	}
	return m, nil
}

func (m Model) connectionView() components.ConnectionView {
	s := m.status
	v := components.ConnectionView{
		Peer:        s.Peer.String(),
		Banner:      s.ServerName,
		Batching:    !s.Quirks.BatchingDisabled,
		TipHeight:   s.Tip.Height,
		TipSeen:     s.Tip.ObservedAt,
		Reconnects:  s.Reconnects,
		LastRequest: s.LastRequestAt,
	}
	if s.Peer.IsZero() {
		v.Peer = ""
	}

	switch s.State {
	case electrumDomain.StateConnected:
		v.State, v.StateStyle, v.Indicator = m.l.T(i18n.MsgStatusConnected), StatusConnected, "●"
	case electrumDomain.StateConnecting:
		v.State, v.StateStyle, v.Indicator = m.l.T(i18n.MsgStatusConnecting), StatusReconnecting, m.spinner.View()
	case electrumDomain.StateDegraded:
		v.State, v.StateStyle, v.Indicator = m.l.T(i18n.MsgStatusDegraded), StatusReconnecting, "◐"
	default:
		v.State, v.StateStyle, v.Indicator = m.l.T(i18n.MsgStatusDisconnected), StatusDisconnected, "○"
	}
	if s.Exhausted {
		v.State += fmt.Sprintf(" (%d attempts)", s.Attempts)
	}
	return v
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	// refresh the spinner frame between status polls
	m.connection.Update(m.connectionView())

	var b strings.Builder
	b.WriteString(TitleStyle.Render(" electrum-core "))
	b.WriteString("\n\n")

	if m.alert != nil {
		b.WriteString(m.renderAlert())
		b.WriteString("\n\n")
	}

	left := m.connection.View()
	right := m.fees.View()
	if m.width > 100 {
		half := m.width/2 - 2
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			BoxStyle.Width(half).Render(left),
			BoxStyle.Width(half).Render(right)))
	} else {
		width := max(m.width-4, 40)
		b.WriteString(BoxStyle.Width(width).Render(left))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(right))
	}
	b.WriteString("\n")

	feedWidth := max(m.width-4, 40)
	b.WriteString(BoxStyle.Width(feedWidth).Render(m.feed.View()))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderAlert() string {
	n := m.alert.Notice
	var sb strings.Builder
	sb.WriteString(AlertTitleStyle.Render(n.Title))
	sb.WriteString("\n\n")
	sb.WriteString(n.Message)
	sb.WriteString("\n\n")

	hotkeys := []string{"r", "d", "esc"}
	opts := make([]string, 0, len(n.Actions))
	for i, a := range n.Actions {
		if i < len(hotkeys) {
			opts = append(opts, fmt.Sprintf("[%s] %s", hotkeys[i], a))
		}
	}
	sb.WriteString(MutedValue.Render(strings.Join(opts, "   ")))
	return AlertStyle.Render(sb.String())
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
