// Package di contains dependency injection tokens for the otp context.
package di

import (
	"github.com/fd1az/electrum-core/business/otp/app"
	"github.com/fd1az/electrum-core/internal/di"
)

// Public service tokens - exposed to other modules
var (
	OTPService = di.NewToken[*app.Service]("otp.Service")
)

// Private dependency tokens - internal to otp module
var (
	WalletSource = di.NewToken[app.WalletSource]("otp:walletSource")
)

func GetOTPService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, OTPService)
}

func GetWalletSource(c di.ServiceRegistry) app.WalletSource {
	return di.GetToken(c, WalletSource)
}
