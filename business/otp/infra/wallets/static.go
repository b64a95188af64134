// Package wallets loads the keys the OTP service can decrypt for.
package wallets

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/fd1az/electrum-core/business/otp/app"
)

// Static is a fixed list of WIF-encoded keys.
type Static struct {
	wallets []app.Wallet
}

// NewStatic decodes wifs. Every key must belong to params' network.
func NewStatic(wifs []string, params *chaincfg.Params) (*Static, error) {
	s := &Static{wallets: make([]app.Wallet, 0, len(wifs))}

	for i, w := range wifs {
		wif, err := btcutil.DecodeWIF(w)
		if err != nil {
			return nil, fmt.Errorf("wallet %d: %w", i, err)
		}
		if !wif.IsForNet(params) {
			return nil, fmt.Errorf("wallet %d: key is not for %s", i, params.Name)
		}

		pub := hex.EncodeToString(wif.SerializePubKey())
		s.wallets = append(s.wallets, app.Wallet{
			Label:      fmt.Sprintf("wallet-%d", i+1),
			PublicKey:  pub,
			PrivateKey: wif.PrivKey,
		})
	}
	return s, nil
}

// Wallets returns the decoded wallets.
func (s *Static) Wallets(context.Context) ([]app.Wallet, error) {
	return s.wallets, nil
}
