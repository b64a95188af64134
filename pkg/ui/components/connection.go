// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
)

// ConnectionView is what the connection panel shows.
type ConnectionView struct {
	State       string // localized
	StateStyle  lipgloss.Style
	Indicator   string
	Peer        string
	Banner      string
	Batching    bool
	TipHeight   int64
	TipSeen     time.Time
	Reconnects  int64
	LastRequest time.Time
}

// ConnectionPanel renders the Electrum connection.
type ConnectionPanel struct {
	view ConnectionView
}

// NewConnectionPanel creates an empty panel.
func NewConnectionPanel() *ConnectionPanel {
	return &ConnectionPanel{}
}

// Update replaces the displayed values.
func (p *ConnectionPanel) Update(v ConnectionView) {
	p.view = v
}

// View renders the panel.
func (p *ConnectionPanel) View() string {
	v := p.view
	var sb strings.Builder

	sb.WriteString(headStyle.Render("ELECTRUM"))
	sb.WriteString("\n\n")

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label))
		sb.WriteString(value)
		sb.WriteString("\n")
	}

	row("State", v.StateStyle.Render(strings.TrimSpace(v.Indicator+" "+v.State)))
	row("Server", valueStyle.Render(orDash(v.Peer)))
	row("Banner", valueStyle.Render(orDash(v.Banner)))

	batching := "on"
	if !v.Batching {
		batching = "off"
	}
	row("Batching", valueStyle.Render(batching))

	tip := "-"
	if v.TipHeight > 0 {
		tip = fmt.Sprintf("#%d (%s ago)", v.TipHeight, since(v.TipSeen))
	}
	row("Tip", valueStyle.Render(tip))
	row("Reconnects", valueStyle.Render(fmt.Sprintf("%d", v.Reconnects)))

	last := "-"
	if !v.LastRequest.IsZero() {
		last = since(v.LastRequest) + " ago"
	}
	row("Last request", valueStyle.Render(last))

	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func since(t time.Time) string {
	return time.Since(t).Round(time.Second).String()
}
