package ui

import (
	"context"

	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/business/electrum/infra/alert"
	"github.com/fd1az/electrum-core/internal/i18n"
)

// Alerter shows connection alerts as a modal in the running program.
type Alerter struct {
	l *i18n.Localizer
}

// NewAlerter creates an Alerter.
func NewAlerter(l *i18n.Localizer) *Alerter {
	return &Alerter{l: l}
}

// ConnectionLost implements the electrum alerter port.
func (a *Alerter) ConnectionLost(_ context.Context, al domain.ConnectionAlert) {
	Send(AlertMsg{Notice: alert.Render(a.l, al), Actions: al.Actions})
}
