package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// LogLine is one entry in the feed.
type LogLine struct {
	Time    time.Time
	Level   string
	Message string
}

// LogFeed keeps the most recent log lines.
type LogFeed struct {
	lines []LogLine
	max   int
}

// NewLogFeed creates a feed keeping at most size lines.
func NewLogFeed(size int) *LogFeed {
	return &LogFeed{lines: make([]LogLine, 0, size), max: size}
}

// Add appends a line, dropping the oldest once full.
func (f *LogFeed) Add(l LogLine) {
	f.lines = append(f.lines, l)
	if len(f.lines) > f.max {
		f.lines = f.lines[len(f.lines)-f.max:]
	}
}

// Clear drops every line.
func (f *LogFeed) Clear() {
	f.lines = f.lines[:0]
}

// Len returns the number of lines held.
func (f *LogFeed) Len() int {
	return len(f.lines)
}

// View renders the feed, oldest first.
func (f *LogFeed) View() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	sb.WriteString(headStyle.Render("LOG"))
	sb.WriteString("\n\n")

	if len(f.lines) == 0 {
		sb.WriteString(muted.Render("  Nothing yet"))
		return sb.String()
	}

	for _, l := range f.lines {
		style := muted
		switch strings.ToLower(l.Level) {
		case "warn":
			style = warn
		case "error":
			style = errStyle
		}
		sb.WriteString(style.Render(fmt.Sprintf("  [%s] %-5s %s", l.Time.Format("15:04:05"), l.Level, l.Message)))
		sb.WriteString("\n")
	}
	return sb.String()
}
