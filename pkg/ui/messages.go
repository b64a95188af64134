package ui

import (
	electrumDomain "github.com/fd1az/electrum-core/business/electrum/domain"
	feesDomain "github.com/fd1az/electrum-core/business/fees/domain"
	"github.com/fd1az/electrum-core/business/electrum/infra/alert"
)

// StatusMsg carries a connection snapshot.
type StatusMsg struct {
	Status electrumDomain.Status
}

// FeesMsg carries fresh fee estimates or the error that prevented them.
type FeesMsg struct {
	Rates feesDomain.FeeRates
	Err   error
}

// AlertMsg is sent when reconnection gives up.
type AlertMsg struct {
	Notice  alert.Notice
	Actions electrumDomain.AlertActions
}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// TickMsg drives periodic status polling.
type TickMsg struct{}

// feeTickMsg drives periodic fee refreshes.
type feeTickMsg struct{}

// actionDoneMsg reports the outcome of an alert action.
type actionDoneMsg struct {
	action string
	err    error
}
