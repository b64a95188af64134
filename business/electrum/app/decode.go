package app

import (
	"context"
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/internal/apperror"
	"github.com/fd1az/electrum-core/pkg/txcodec"
)

// DecodeRawTransaction decodes transaction hex locally into the verbose shape.
// Confirmations and times are extrapolated from the known confirmation
// height, if any.
func (s *QueryService) DecodeRawTransaction(txhex string) (*domain.Transaction, error) {
	tx, err := txcodec.DecodeHex(txhex)
	if err != nil {
		return nil, apperror.New(apperror.CodeTxDecodeFailed, apperror.WithCause(err))
	}

	id := tx.ID()
	ret := &domain.Transaction{
		TxID:     id,
		Hash:     id,
		Version:  tx.Version,
		Size:     (len(txhex) + 1) / 2,
		VSize:    tx.VirtualSize(),
		Weight:   tx.Weight(),
		Locktime: tx.Locktime,
		Vin:      make([]domain.Vin, 0, len(tx.Inputs)),
		Vout:     make([]domain.Vout, 0, len(tx.Outputs)),
		Hex:      txhex,
	}

	if height, ok := s.heights.Get(context.Background(), id); ok && height > 0 {
		tip := s.rpc.Tip()
		ret.Confirmations = domain.Confirmations(tip, height, s.now())
		ret.Time = domain.BlockTime(tip, height)
		ret.BlockTime = ret.Time
	}

	for _, in := range tx.Inputs {
		var witness []string
		for i := 0; i < len(in.Witness) && i < 2; i++ {
			witness = append(witness, hex.EncodeToString(in.Witness[i]))
		}

		ret.Vin = append(ret.Vin, domain.Vin{
			TxID:        chainhash.Hash(in.Hash).String(),
			Vout:        in.Index,
			ScriptSig:   &domain.ScriptSig{Hex: hex.EncodeToString(in.Script)},
			TxInWitness: witness,
			Sequence:    in.Sequence,
		})
	}

	for n, out := range tx.Outputs {
		address, scriptType, err := s.codec.ScriptAddress(out.Script)
		if err != nil {
			return nil, apperror.New(apperror.CodeTxDecodeFailed,
				apperror.WithContext("unable to derive address from output script"),
				apperror.WithCause(err))
		}

		ret.Vout = append(ret.Vout, domain.Vout{
			Value: domain.SatoshisToCoins(out.Value),
			N:     uint32(n),
			ScriptPubKey: domain.ScriptPubKey{
				Hex:       hex.EncodeToString(out.Script),
				ReqSigs:   1,
				Type:      scriptType,
				Addresses: []string{address},
			},
		})
	}

	return ret, nil
}
