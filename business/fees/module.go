// Package fees implements the fees bounded context.
package fees

import (
	"context"

	electrumDI "github.com/fd1az/electrum-core/business/electrum/di"
	"github.com/fd1az/electrum-core/business/fees/app"
	feesDI "github.com/fd1az/electrum-core/business/fees/di"
	"github.com/fd1az/electrum-core/internal/config"
	"github.com/fd1az/electrum-core/internal/di"
	"github.com/fd1az/electrum-core/internal/logger"
	"github.com/fd1az/electrum-core/internal/monolith"
)

// Module implements the fees bounded context. It depends on the electrum module.
type Module struct{}

// RegisterServices registers all fee services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, feesDI.FeeService, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewService(electrumDI.GetQueryService(sr), cfg.Electrum.HistogramTimeout, log)
	})
	return nil
}

// Startup initializes the fees module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "fees module started")
	return nil
}
