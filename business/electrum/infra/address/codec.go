// Package address converts between addresses and output scripts.
package address

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/fd1az/electrum-core/internal/apperror"
	"github.com/fd1az/electrum-core/pkg/chainparams"
)

// Script type names reported for locally decoded outputs.
const (
	TypeWitnessV0KeyHash    = "witness_v0_keyhash"
	TypeWitnessV0ScriptHash = "witness_v0_scripthash"
	TypeScriptHash          = "p2sh"
	TypeLegacy              = "legacy"
	TypeWitnessV1Taproot    = "witness_v1_taproot"
)

// Codec implements app.AddressCodec for one network.
type Codec struct {
	params *chaincfg.Params
}

// New creates a codec for the named network.
func New(network string) (*Codec, error) {
	params, err := chainparams.Lookup(network)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err))
	}
	return &Codec{params: params}, nil
}

// Params returns the network parameters.
func (c *Codec) Params() *chaincfg.Params {
	return c.params
}

// OutputScript returns the locking script paying to address.
func (c *Codec) OutputScript(address string) ([]byte, error) {
	addr, err := btcutil.DecodeAddress(address, c.params)
	if err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidAddress, address)
	}
	if !addr.IsForNet(c.params) {
		return nil, apperror.Validation(apperror.CodeInvalidAddress, address)
	}

	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidAddress, apperror.WithContext(address), apperror.WithCause(err))
	}
	return script, nil
}

// ScriptAddress derives the single address an output script pays to.
func (c *Codec) ScriptAddress(script []byte) (string, string, error) {
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(script, c.params)
	if err != nil {
		return "", "", err
	}
	if len(addrs) != 1 {
		return "", "", fmt.Errorf("script pays to %d addresses", len(addrs))
	}

	var scriptType string
	switch class {
	case txscript.WitnessV0PubKeyHashTy:
		scriptType = TypeWitnessV0KeyHash
	case txscript.WitnessV0ScriptHashTy:
		scriptType = TypeWitnessV0ScriptHash
	case txscript.ScriptHashTy:
		scriptType = TypeScriptHash
	case txscript.PubKeyHashTy:
		scriptType = TypeLegacy
	case txscript.WitnessV1TaprootTy:
		scriptType = TypeWitnessV1Taproot
	default:
		return "", "", fmt.Errorf("unsupported script class %s", class)
	}

	return addrs[0].EncodeAddress(), scriptType, nil
}
