// Package di contains dependency injection tokens for the support context.
package di

import (
	"github.com/fd1az/electrum-core/business/support/app"
	"github.com/fd1az/electrum-core/internal/di"
)

// Public service tokens - exposed to other modules
var (
	SupportService = di.NewToken[*app.Service]("support.Service")
)

// Private dependency tokens - internal to support module
var (
	Client = di.NewToken[app.Client]("support:client")
)

func GetSupportService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, SupportService)
}

func GetClient(c di.ServiceRegistry) app.Client {
	return di.GetToken(c, Client)
}
