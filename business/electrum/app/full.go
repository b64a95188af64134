package app

import (
	"context"

	"github.com/fd1az/electrum-core/business/electrum/domain"
)

// GetTransactionsFullByAddress returns the history of address with every
// input enriched by the value and addresses of the output it spends.
func (s *QueryService) GetTransactionsFullByAddress(ctx context.Context, address string) ([]domain.FullTransaction, error) {
	history, err := s.GetTransactionsByAddress(ctx, address)
	if err != nil {
		return nil, err
	}

	ret := make([]domain.FullTransaction, 0, len(history))
	for _, h := range history {
		tx, err := s.getVerbose(ctx, h.TxHash)
		if err != nil {
			return nil, err
		}

		for i := range tx.Vin {
			in := &tx.Vin[i]
			if in.Coinbase != "" || in.TxID == "" {
				continue
			}

			prev, err := s.getVerbose(ctx, in.TxID)
			if err != nil {
				return nil, err
			}
			if int(in.Vout) >= len(prev.Vout) {
				continue
			}

			spent := prev.Vout[in.Vout]
			value := spent.Value
			in.Value = &value
			if len(spent.ScriptPubKey.Addresses) > 0 {
				in.Addresses = spent.ScriptPubKey.Addresses
			}
			if spent.ScriptPubKey.Address != "" {
				in.Addresses = []string{spent.ScriptPubKey.Address}
			}
		}

		for i := range tx.Vout {
			out := &tx.Vout[i]
			if len(out.ScriptPubKey.Addresses) > 0 {
				out.Addresses = out.ScriptPubKey.Addresses
			}
			if out.ScriptPubKey.Address != "" {
				out.Addresses = []string{out.ScriptPubKey.Address}
			}
		}

		ret = append(ret, domain.FullTransaction{
			TxID:          tx.TxID,
			Version:       tx.Version,
			Size:          tx.Size,
			VSize:         tx.VSize,
			Weight:        tx.Weight,
			Locktime:      tx.Locktime,
			Inputs:        tx.Vin,
			Outputs:       tx.Vout,
			BlockHash:     tx.BlockHash,
			Confirmations: tx.Confirmations,
			Time:          tx.Time,
			BlockTime:     tx.BlockTime,
			Address:       address,
		})
	}
	return ret, nil
}

// getVerbose fetches one decoded transaction, falling back to local decoding
// when the server refuses verbose output. Other errors are returned as is.
func (s *QueryService) getVerbose(ctx context.Context, txid string) (*domain.Transaction, error) {
	r, err := s.getTransaction(ctx, txid, true)
	if domain.IsVerboseUnsupported(err) {
		r, err = s.getRawTransaction(ctx, txid, true)
	}
	if err != nil {
		return nil, err
	}
	return r.Verbose, nil
}
