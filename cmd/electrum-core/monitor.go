package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	electrumDomain "github.com/fd1az/electrum-core/business/electrum/domain"
	electrumDI "github.com/fd1az/electrum-core/business/electrum/di"
	"github.com/fd1az/electrum-core/business/electrum/infra/electrumx"
	feesApp "github.com/fd1az/electrum-core/business/fees/app"
	feesDomain "github.com/fd1az/electrum-core/business/fees/domain"
	feesDI "github.com/fd1az/electrum-core/business/fees/di"
	"github.com/fd1az/electrum-core/internal/health"
	"github.com/fd1az/electrum-core/internal/metrics"
	"github.com/fd1az/electrum-core/pkg/ui"
)

const cliReportInterval = 30 * time.Second

func newMonitorCmd(flags *rootFlags) *cobra.Command {
	var cliMode bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch the server connection, tip and fees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd.Context(), flags, cliMode)
		},
	}
	cmd.Flags().BoolVar(&cliMode, "cli", false, "Run in CLI mode with logs (no TUI)")
	return cmd
}

// monitorSource adapts the manager and fee service to the UI.
type monitorSource struct {
	mgr  *electrumx.Manager
	fees *feesApp.Service
}

func (s monitorSource) Status() electrumDomain.Status {
	return s.mgr.Status()
}

func (s monitorSource) EstimateFees(ctx context.Context) (feesDomain.FeeRates, error) {
	if err := s.mgr.WaitUntilConnected(ctx); err != nil {
		return feesDomain.FeeRates{}, err
	}
	return s.fees.EstimateFees(ctx)
}

func runMonitor(ctx context.Context, flags *rootFlags, cliMode bool) error {
	tuiMode := !cliMode

	rt, err := bootstrap(ctx, flags, bootOptions{connect: true, tui: tuiMode})
	if err != nil {
		return err
	}
	defer rt.Close()

	stopServers := startServers(ctx, rt)
	defer stopServers()

	src := monitorSource{
		mgr:  electrumDI.GetManager(rt.services()),
		fees: feesDI.GetFeeService(rt.services()),
	}

	if tuiMode {
		return runTUI(ctx, rt, src)
	}
	return runCLI(ctx, rt, src)
}

// startServers starts the metrics and health endpoints the config enables.
func startServers(ctx context.Context, rt *runtime) func() {
	var stops []func(context.Context) error

	if rt.cfg.Telemetry.Enabled {
		mp, err := metrics.NewMetricProvider(ctx, rt.cfg.Telemetry, nil)
		if err != nil {
			rt.log.Warn(ctx, "metrics disabled", "error", err)
		} else {
			srv := metrics.NewServer(rt.cfg.Telemetry.PrometheusPort, prometheus.DefaultGatherer, rt.log)
			if err := srv.Start(ctx); err != nil {
				rt.log.Warn(ctx, "failed to start metrics server", "error", err)
			} else {
				stops = append(stops, srv.Stop)
			}
			stops = append(stops, mp.Shutdown)
		}
	}

	if rt.cfg.Health.Enabled {
		mgr := electrumDI.GetManager(rt.services())
		hs := health.NewServer(rt.cfg.Health.Port, version, rt.log)
		hs.RegisterCheck("electrum", func(context.Context) (bool, string) {
			st := mgr.Status()
			return st.State == electrumDomain.StateConnected, fmt.Sprintf("%s %s", st.State, st.Peer)
		})
		if err := hs.Start(ctx); err != nil {
			rt.log.Warn(ctx, "failed to start health server", "error", err)
		} else {
			stops = append(stops, hs.Stop)
		}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, stop := range stops {
			stop(shutdownCtx)
		}
	}
}

func runCLI(ctx context.Context, rt *runtime, src monitorSource) error {
	rt.log.Info(ctx, "monitoring electrum connection", "version", version)

	ticker := time.NewTicker(cliReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rt.log.Info(ctx, "shutting down")
			return nil
		case <-ticker.C:
			st := src.Status()
			rt.log.Info(ctx, "electrum status",
				"state", st.State,
				"peer", st.Peer.String(),
				"server", st.ServerName,
				"batching", !st.Quirks.BatchingDisabled,
				"tip", st.Tip.Height,
				"reconnects", st.Reconnects)

			if st.State != electrumDomain.StateConnected {
				continue
			}
			feeCtx, cancel := context.WithTimeout(ctx, cliReportInterval)
			rates, err := src.EstimateFees(feeCtx)
			cancel()
			if err != nil {
				rt.log.Warn(ctx, "fee estimate failed", "error", err)
				continue
			}
			rt.log.Info(ctx, "fee rates", "fast", rates.Fast, "medium", rates.Medium, "slow", rates.Slow)
		}
	}
}

func runTUI(ctx context.Context, rt *runtime, src monitorSource) error {
	p := tea.NewProgram(ui.New(ctx, src, rt.localizer), tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
