package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// TypicalTxVSize is the size of a one-input, two-output segwit spend.
const TypicalTxVSize = 141

// FeeRow is one priority level in sat/vB.
type FeeRow struct {
	Label string
	Rate  int64
}

// FeePanel renders fee estimates.
type FeePanel struct {
	rows []FeeRow
	err  string
}

// NewFeePanel creates an empty panel.
func NewFeePanel() *FeePanel {
	return &FeePanel{}
}

// Update replaces the estimates and clears any error.
func (p *FeePanel) Update(rows []FeeRow) {
	p.rows = rows
	p.err = ""
}

// SetError keeps the last estimates but shows err.
func (p *FeePanel) SetError(err string) {
	p.err = err
}

// TypicalCost returns the coin amount a TypicalTxVSize transaction pays at rate.
func TypicalCost(rate int64) decimal.Decimal {
	return decimal.New(rate*TypicalTxVSize, -8)
}

// View renders the panel.
func (p *FeePanel) View() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	rate := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	sb.WriteString(headStyle.Render("FEES"))
	sb.WriteString("\n\n")

	if len(p.rows) == 0 {
		sb.WriteString(muted.Render("  Waiting for estimates..."))
		sb.WriteString("\n")
	}
	for _, r := range p.rows {
		sb.WriteString(labelStyle.Render(r.Label))
		sb.WriteString(rate.Render(fmt.Sprintf("%4d sat/vB", r.Rate)))
		sb.WriteString(muted.Render(fmt.Sprintf("  ~%s per %d vB", TypicalCost(r.Rate).StringFixed(8), TypicalTxVSize)))
		sb.WriteString("\n")
	}
	if p.err != "" {
		sb.WriteString(errStyle.Render("  " + p.err))
		sb.WriteString("\n")
	}
	return sb.String()
}
