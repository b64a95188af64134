// Package di contains dependency injection tokens for the fees context.
package di

import (
	"github.com/fd1az/electrum-core/business/fees/app"
	"github.com/fd1az/electrum-core/internal/di"
)

// Public service tokens - exposed to other modules
var (
	FeeService = di.NewToken[*app.Service]("fees.Service")
)

func GetFeeService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, FeeService)
}
