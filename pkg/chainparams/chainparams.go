// Package chainparams defines the networks the client can talk to.
package chainparams

import (
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

// Network names accepted by Lookup.
const (
	Kbunet  = "kbunet"
	Testnet = "testnet"
	Regtest = "regtest"
)

// KbunetParams are the parameters of the main network.
var KbunetParams = func() chaincfg.Params {
	p := chaincfg.MainNetParams
	p.Name = Kbunet
	p.Net = wire.BitcoinNet(0x6b62756e)
	p.Bech32HRPSegwit = "kc"
	p.PubKeyHashAddrID = 0x2D
	p.ScriptHashAddrID = 0x05
	p.PrivateKeyID = 0x80
	p.HDPublicKeyID = [4]byte{0x04, 0x9d, 0x7c, 0xb2}
	p.HDPrivateKeyID = [4]byte{0x04, 0x9d, 0x78, 0x78}
	return p
}()

// TestnetParams are the parameters of the public test network.
var TestnetParams = func() chaincfg.Params {
	p := chaincfg.TestNet3Params
	p.Name = Testnet
	p.Net = wire.BitcoinNet(0x6b627574)
	p.Bech32HRPSegwit = "tk"
	p.PubKeyHashAddrID = 0x6b
	p.ScriptHashAddrID = 0xc4
	p.PrivateKeyID = 0xef
	return p
}()

// RegtestParams are the parameters of the local regression network.
var RegtestParams = func() chaincfg.Params {
	p := chaincfg.RegressionNetParams
	p.Name = Regtest
	p.Net = wire.BitcoinNet(0x6b627572)
	p.Bech32HRPSegwit = "kncrt"
	p.PubKeyHashAddrID = 0x6b
	p.ScriptHashAddrID = 0xc4
	p.PrivateKeyID = 0xef
	return p
}()

var registerOnce sync.Once

// Lookup returns the parameters for a network name, registering all known
// networks with chaincfg on first use.
func Lookup(name string) (*chaincfg.Params, error) {
	registerOnce.Do(func() {
		for _, p := range []*chaincfg.Params{&KbunetParams, &TestnetParams, &RegtestParams} {
			if err := chaincfg.Register(p); err != nil && !errors.Is(err, chaincfg.ErrDuplicateNet) {
				panic(fmt.Sprintf("chainparams: register %s: %v", p.Name, err))
			}
		}
	})

	switch name {
	case Kbunet, "":
		return &KbunetParams, nil
	case Testnet:
		return &TestnetParams, nil
	case Regtest:
		return &RegtestParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}
