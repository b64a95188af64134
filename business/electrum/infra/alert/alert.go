// Package alert reports lost Electrum connections to the user.
package alert

import (
	"context"

	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/internal/i18n"
	"github.com/fd1az/electrum-core/internal/logger"
)

// Notice is a rendered connectivity alert.
type Notice struct {
	Title   string
	Message string
	Actions []string // retry, reset, cancel, in display order
}

// Render localizes alert.
func Render(l *i18n.Localizer, alert domain.ConnectionAlert) Notice {
	msg := l.T(i18n.MsgErrorConnect)
	if !alert.Peer.IsZero() {
		msg = l.T(i18n.MsgUnableToConnect, map[string]any{"Server": alert.Peer.Address()})
	}
	return Notice{
		Title:   l.T(i18n.MsgNetworkError),
		Message: msg,
		Actions: []string{l.T(i18n.MsgTryAgain), l.T(i18n.MsgReset), l.T(i18n.MsgCancel)},
	}
}

// LogAlerter writes alerts to the log. Nobody answers them, so the failure
// budget stays spent until something calls Retry.
type LogAlerter struct {
	localizer *i18n.Localizer
	log       logger.LoggerInterface
}

// NewLogAlerter creates a new LogAlerter.
func NewLogAlerter(l *i18n.Localizer, log logger.LoggerInterface) *LogAlerter {
	return &LogAlerter{localizer: l, log: log}
}

// ConnectionLost logs the localized alert.
func (a *LogAlerter) ConnectionLost(ctx context.Context, alert domain.ConnectionAlert) {
	n := Render(a.localizer, alert)
	a.log.Error(ctx, n.Title,
		"message", n.Message,
		"peer", alert.Peer.String(),
		"reason", alert.Reason)
}
