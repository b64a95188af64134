// Package otp implements the otp bounded context: decrypting one-time
// passwords sent to a local wallet key.
package otp

import (
	"context"

	"github.com/fd1az/electrum-core/business/otp/app"
	otpDI "github.com/fd1az/electrum-core/business/otp/di"
	"github.com/fd1az/electrum-core/business/otp/infra/wallets"
	"github.com/fd1az/electrum-core/internal/config"
	"github.com/fd1az/electrum-core/internal/di"
	"github.com/fd1az/electrum-core/internal/logger"
	"github.com/fd1az/electrum-core/internal/monolith"
	"github.com/fd1az/electrum-core/pkg/chainparams"
)

// Module implements the otp bounded context.
type Module struct{}

// RegisterServices registers all otp services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, otpDI.WalletSource, func(sr di.ServiceRegistry) app.WalletSource {
		cfg := sr.Get("config").(*config.Config)

		params, err := chainparams.Lookup(cfg.Electrum.Network)
		if err != nil {
			panic("unknown network: " + err.Error())
		}
		src, err := wallets.NewStatic(cfg.OTP.WIFs, params)
		if err != nil {
			panic("failed to load otp wallets: " + err.Error())
		}
		return src
	})

	di.RegisterToken(c, otpDI.OTPService, func(sr di.ServiceRegistry) *app.Service {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewService(otpDI.GetWalletSource(sr), log)
	})

	return nil
}

// Startup initializes the otp module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "otp module started", "wallets", len(mono.Config().OTP.WIFs))
	return nil
}
