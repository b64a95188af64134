// Package electrum implements the electrum bounded context: the server
// connection, batched wallet queries and the local transaction cache.
package electrum

import (
	"context"

	"github.com/fd1az/electrum-core/business/electrum/app"
	electrumDI "github.com/fd1az/electrum-core/business/electrum/di"
	"github.com/fd1az/electrum-core/business/electrum/infra/address"
	"github.com/fd1az/electrum-core/business/electrum/infra/alert"
	"github.com/fd1az/electrum-core/business/electrum/infra/electrumx"
	"github.com/fd1az/electrum-core/business/electrum/infra/prefs"
	"github.com/fd1az/electrum-core/business/electrum/infra/txcache"
	"github.com/fd1az/electrum-core/internal/config"
	"github.com/fd1az/electrum-core/internal/di"
	"github.com/fd1az/electrum-core/internal/i18n"
	"github.com/fd1az/electrum-core/internal/logger"
	"github.com/fd1az/electrum-core/internal/monolith"
	"github.com/fd1az/electrum-core/internal/ratelimit"
	"github.com/fd1az/electrum-core/internal/store"
)

// Module implements the electrum bounded context.
type Module struct {
	// Connect dials the server in the background during Startup.
	Connect bool
}

// RegisterServices registers all electrum services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, electrumDI.Preferences, func(sr di.ServiceRegistry) app.PreferenceStore {
		return prefs.New(sr.Get("store").(*store.Store))
	})

	di.RegisterToken(c, electrumDI.TxCache, func(sr di.ServiceRegistry) app.TxCache {
		log := sr.Get("logger").(logger.LoggerInterface)
		return txcache.New(sr.Get("store").(*store.Store), log)
	})

	di.RegisterToken(c, electrumDI.AddressCodec, func(sr di.ServiceRegistry) app.AddressCodec {
		cfg := sr.Get("config").(*config.Config)

		codec, err := address.New(cfg.Electrum.Network)
		if err != nil {
			panic("failed to create address codec: " + err.Error())
		}
		return codec
	})

	// The binary may register its own alerter (the TUI does) before modules.
	if !c.Has(electrumDI.Alerter.Name()) {
		di.RegisterToken(c, electrumDI.Alerter, func(sr di.ServiceRegistry) app.Alerter {
			cfg := sr.Get("config").(*config.Config)
			log := sr.Get("logger").(logger.LoggerInterface)

			l, err := i18n.New(cfg.App.Locale)
			if err != nil {
				panic("failed to load translations: " + err.Error())
			}
			return alert.NewLogAlerter(l, log)
		})
	}

	// Register Manager (public - owns the connection)
	di.RegisterToken(c, electrumDI.Manager, func(sr di.ServiceRegistry) *electrumx.Manager {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		mgrCfg, err := electrumx.ConfigFrom(cfg.Electrum)
		if err != nil {
			panic("invalid electrum config: " + err.Error())
		}

		mgr, err := electrumx.NewManager(mgrCfg,
			electrumDI.GetPreferences(sr),
			electrumDI.GetAlerter(sr),
			log)
		if err != nil {
			panic("failed to create electrum manager: " + err.Error())
		}
		return mgr
	})

	di.RegisterToken(c, electrumDI.Prober, func(sr di.ServiceRegistry) *electrumx.Prober {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return electrumx.NewProber(cfg.Electrum.TLSVerify, log)
	})

	// Register QueryService (public - exposed to other modules)
	di.RegisterToken(c, electrumDI.QueryService, func(sr di.ServiceRegistry) *app.QueryService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewQueryService(
			electrumDI.GetManager(sr),
			electrumDI.GetTxCache(sr),
			electrumDI.GetAddressCodec(sr),
			ratelimit.New(cfg.Electrum.FanOutRPS, cfg.Electrum.FanOutBurst),
			log)
	})

	return nil
}

// Startup initializes the electrum module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	mgr := electrumDI.GetManager(mono.Services())

	if m.Connect {
		// Connect in the background; callers wait with WaitUntilConnected.
		go func() {
			if err := mgr.EnsureConnected(ctx); err != nil {
				log.Warn(ctx, "electrum connection failed", "error", err)
				return
			}
			log.Info(ctx, "electrum connected", "server", mgr.Status().ServerName)
		}()
	}

	log.Info(ctx, "electrum module started", "peers", len(mono.Config().Electrum.Peers))
	return nil
}
