package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fd1az/electrum-core/business/electrum"
	electrumApp "github.com/fd1az/electrum-core/business/electrum/app"
	electrumDI "github.com/fd1az/electrum-core/business/electrum/di"
	"github.com/fd1az/electrum-core/business/fees"
	"github.com/fd1az/electrum-core/business/otp"
	"github.com/fd1az/electrum-core/business/support"
	"github.com/fd1az/electrum-core/internal/apm"
	"github.com/fd1az/electrum-core/internal/config"
	"github.com/fd1az/electrum-core/internal/di"
	"github.com/fd1az/electrum-core/internal/i18n"
	"github.com/fd1az/electrum-core/internal/logger"
	"github.com/fd1az/electrum-core/internal/monolith"
	"github.com/fd1az/electrum-core/pkg/ui"
)

type container interface {
	monolith.Monolith
	Container() di.Container
	RegisterModules(modules ...monolith.Module) error
	StartModules(ctx context.Context, modules ...monolith.Module) error
	Close() error
}

type bootOptions struct {
	// connect dials in the background during startup
	connect bool
	// tui routes logs and alerts to the terminal UI
	tui bool
}

type runtime struct {
	cfg       *config.Config
	log       *logger.Logger
	mono      container
	localizer *i18n.Localizer
	tracing   apm.TraceProvider
}

func bootstrap(ctx context.Context, flags *rootFlags, opts bootOptions) (*runtime, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = opts.tui

	level := logger.ParseLevel(cfg.App.LogLevel)
	var log *logger.Logger
	if opts.tui {
		// the TUI owns the terminal; warnings and errors go to its log panel
		log = logger.NewWithEvents(io.Discard, level, cfg.App.Name, nil, logger.Events{
			Info:  forwardToUI("info"),
			Warn:  forwardToUI("warn"),
			Error: forwardToUI("error"),
		})
	} else {
		log = logger.New(os.Stderr, level, cfg.App.Name, nil)
	}

	l, err := i18n.New(cfg.App.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	tracing, err := apm.NewTraceProvider(cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	mono, err := monolith.New(cfg, log)
	if err != nil {
		tracing.Stop()
		return nil, fmt.Errorf("failed to create monolith: %w", err)
	}

	rt := &runtime{cfg: cfg, log: log, mono: mono, localizer: l, tracing: tracing}

	if opts.tui {
		di.RegisterToken(mono.Container(), electrumDI.Alerter, func(di.ServiceRegistry) electrumApp.Alerter {
			return ui.NewAlerter(l)
		})
	}

	// Define modules in dependency order
	modules := []monolith.Module{
		&electrum.Module{Connect: opts.connect},
		&fees.Module{},
		&otp.Module{},
		&support.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to start modules: %w", err)
	}

	return rt, nil
}

func forwardToUI(level string) logger.EventFn {
	return func(_ context.Context, r logger.Record) {
		ui.Send(ui.LogMsg{Level: level, Message: r.Message})
	}
}

// services returns the DI registry.
func (rt *runtime) services() di.ServiceRegistry {
	return rt.mono.Services()
}

// connect dials the server and waits for the handshake.
func (rt *runtime) connect(ctx context.Context) error {
	return electrumDI.GetManager(rt.services()).EnsureConnected(ctx)
}

// Close releases everything bootstrap opened.
func (rt *runtime) Close() error {
	var errs []error
	sr := rt.services()

	if sr.Has(electrumDI.Manager.Name()) {
		errs = append(errs, electrumDI.GetManager(sr).Close())
	}
	errs = append(errs, rt.mono.Close(), rt.tracing.Stop())
	return errors.Join(errs...)
}
