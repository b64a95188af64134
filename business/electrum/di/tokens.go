// Package di contains dependency injection tokens for the electrum context.
package di

import (
	"github.com/fd1az/electrum-core/business/electrum/app"
	"github.com/fd1az/electrum-core/business/electrum/infra/electrumx"
	"github.com/fd1az/electrum-core/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Manager      = di.NewToken[*electrumx.Manager]("electrum.Manager")
	QueryService = di.NewToken[*app.QueryService]("electrum.QueryService")
	Prober       = di.NewToken[*electrumx.Prober]("electrum.Prober")
)

// Private dependency tokens - internal to electrum module
var (
	Preferences  = di.NewToken[app.PreferenceStore]("electrum:preferences")
	TxCache      = di.NewToken[app.TxCache]("electrum:txCache")
	AddressCodec = di.NewToken[app.AddressCodec]("electrum:addressCodec")
	Alerter      = di.NewToken[app.Alerter]("electrum:alerter")
)

// Helper functions for type-safe access
func GetManager(c di.ServiceRegistry) *electrumx.Manager {
	return di.GetToken(c, Manager)
}

func GetQueryService(c di.ServiceRegistry) *app.QueryService {
	return di.GetToken(c, QueryService)
}

func GetProber(c di.ServiceRegistry) *electrumx.Prober {
	return di.GetToken(c, Prober)
}

func GetPreferences(c di.ServiceRegistry) app.PreferenceStore {
	return di.GetToken(c, Preferences)
}

func GetTxCache(c di.ServiceRegistry) app.TxCache {
	return di.GetToken(c, TxCache)
}

func GetAddressCodec(c di.ServiceRegistry) app.AddressCodec {
	return di.GetToken(c, AddressCodec)
}

func GetAlerter(c di.ServiceRegistry) app.Alerter {
	return di.GetToken(c, Alerter)
}
