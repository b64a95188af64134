package ui

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	electrumDomain "github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/business/electrum/infra/alert"
	feesDomain "github.com/fd1az/electrum-core/business/fees/domain"
	"github.com/fd1az/electrum-core/internal/i18n"
)

type fakeSource struct {
	status electrumDomain.Status
	rates  feesDomain.FeeRates
	err    error
}

func (f *fakeSource) Status() electrumDomain.Status { return f.status }

func (f *fakeSource) EstimateFees(context.Context) (feesDomain.FeeRates, error) {
	return f.rates, f.err
}

type fakeActions struct {
	retries   atomic.Int32
	resets    atomic.Int32
	cancelled atomic.Bool
}

func (a *fakeActions) Retry(context.Context) error {
	a.retries.Add(1)
	return nil
}

func (a *fakeActions) ResetToDefault(context.Context) error {
	a.resets.Add(1)
	return errors.New("no default")
}

func (a *fakeActions) Cancel() { a.cancelled.Store(true) }

func newTestModel(t *testing.T, src Source) Model {
	t.Helper()
	l, err := i18n.New("en")
	if err != nil {
		t.Fatal(err)
	}
	m, _ := update(New(context.Background(), src, l), tea.WindowSizeMsg{Width: 200, Height: 60})
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyMsg(k string) tea.KeyMsg {
	if k == "esc" {
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestModel_StatusAndFees(t *testing.T) {
	src := &fakeSource{
		status: electrumDomain.Status{
			State:      electrumDomain.StateConnected,
			Peer:       electrumDomain.Peer{Host: "electrum.example", Port: 50002, Transport: electrumDomain.TransportTLS},
			ServerName: "Fulcrum 1.9.1",
			Tip:        electrumDomain.LatestBlockTip{Height: 812345, ObservedAt: time.Now()},
		},
		rates: feesDomain.FeeRates{Fast: 25, Medium: 10, Slow: 2},
	}
	m := newTestModel(t, src)

	m, cmd := update(m, m.pollStatus()())
	if cmd == nil {
		t.Error("status update should schedule the next poll")
	}
	m, _ = update(m, m.fetchFees()())

	view := m.View()
	for _, want := range []string{"Connected", "electrum.example", "Fulcrum 1.9.1", "#812345", "25 sat/vB", "0.00003525"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	src.err = errors.New("histogram timeout")
	m, _ = update(m, m.fetchFees()())
	if view := m.View(); !strings.Contains(view, "histogram timeout") || !strings.Contains(view, "25 sat/vB") {
		t.Error("fee error should be shown next to the last estimates")
	}
}

func TestModel_StateLabels(t *testing.T) {
	tests := []struct {
		state electrumDomain.ConnectionState
		want  string
	}{
		{electrumDomain.StateConnected, "Connected"},
		{electrumDomain.StateConnecting, "Connecting"},
		{electrumDomain.StateDegraded, "Not responding"},
		{electrumDomain.StateDisconnected, "Disconnected"},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			m := newTestModel(t, &fakeSource{status: electrumDomain.Status{State: tt.state}})
			m, _ = update(m, m.pollStatus()())
			if got := m.connectionView().State; got != tt.want {
				t.Errorf("state = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModel_AlertActions(t *testing.T) {
	l, _ := i18n.New("en")
	peer := electrumDomain.Peer{Host: "down.example", Port: 50001, Transport: electrumDomain.TransportTCP}

	tests := []struct {
		key   string
		check func(t *testing.T, a *fakeActions, cmd tea.Cmd)
	}{
		{"r", func(t *testing.T, a *fakeActions, cmd tea.Cmd) {
			done := cmd().(actionDoneMsg)
			if a.retries.Load() != 1 || done.err != nil {
				t.Errorf("retries = %d, err = %v", a.retries.Load(), done.err)
			}
		}},
		{"d", func(t *testing.T, a *fakeActions, cmd tea.Cmd) {
			done := cmd().(actionDoneMsg)
			if a.resets.Load() != 1 || done.err == nil {
				t.Errorf("resets = %d, err = %v", a.resets.Load(), done.err)
			}
		}},
		{"esc", func(t *testing.T, a *fakeActions, cmd tea.Cmd) {
			if !a.cancelled.Load() || cmd != nil {
				t.Error("esc should cancel without a command")
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			actions := &fakeActions{}
			m := newTestModel(t, &fakeSource{})
			m, _ = update(m, AlertMsg{
				Notice:  alert.Render(l, electrumDomain.ConnectionAlert{Peer: peer}),
				Actions: actions,
			})

			if view := m.View(); !strings.Contains(view, "Unable to connect to down.example:50001.") {
				t.Errorf("alert not rendered:\n%s", view)
			}

			m, cmd := update(m, keyMsg(tt.key))
			if m.alert != nil {
				t.Error("alert should be dismissed")
			}
			tt.check(t, actions, cmd)
		})
	}
}

func TestModel_LogFeedAndQuit(t *testing.T) {
	m := newTestModel(t, &fakeSource{})
	m, _ = update(m, LogMsg{Level: "warn", Message: "peer rotated"})
	if !strings.Contains(m.View(), "peer rotated") {
		t.Error("log line missing")
	}

	m, _ = update(m, keyMsg("c"))
	if strings.Contains(m.View(), "peer rotated") {
		t.Error("clear should empty the feed")
	}

	m, cmd := update(m, keyMsg("q"))
	if !m.quitting || cmd == nil {
		t.Error("q should quit")
	}
}
