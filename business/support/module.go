// Package support implements the support bounded context: asking support
// servers to back a transaction.
package support

import (
	"context"

	"github.com/fd1az/electrum-core/business/support/app"
	supportDI "github.com/fd1az/electrum-core/business/support/di"
	"github.com/fd1az/electrum-core/business/support/domain"
	"github.com/fd1az/electrum-core/business/support/infra/supportapi"
	"github.com/fd1az/electrum-core/internal/config"
	"github.com/fd1az/electrum-core/internal/di"
	"github.com/fd1az/electrum-core/internal/logger"
	"github.com/fd1az/electrum-core/internal/monolith"
)

// Module implements the support bounded context.
type Module struct{}

// RegisterServices registers all support services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, supportDI.Client, func(sr di.ServiceRegistry) app.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := supportapi.New(cfg.Support.Timeout, log)
		if err != nil {
			panic("failed to create support client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, supportDI.SupportService, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		servers := make([]domain.Server, 0, len(cfg.Support.Servers))
		for _, s := range cfg.Support.Servers {
			srv, err := domain.ParseServer(s)
			if err != nil {
				panic("invalid support server " + s + ": " + err.Error())
			}
			servers = append(servers, srv)
		}
		return app.NewService(supportDI.GetClient(sr), servers, log)
	})

	return nil
}

// Startup initializes the support module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "support module started", "servers", len(mono.Config().Support.Servers))
	return nil
}
