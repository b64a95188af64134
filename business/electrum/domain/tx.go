package domain

import (
	"github.com/shopspring/decimal"
)

// Transaction is the decoded transaction shape returned by verbose lookups.
type Transaction struct {
	TxID          string `json:"txid"`
	Hash          string `json:"hash,omitempty"`
	Version       int32  `json:"version"`
	Size          int    `json:"size"`
	VSize         int    `json:"vsize"`
	Weight        int    `json:"weight"`
	Locktime      uint32 `json:"locktime"`
	Vin           []Vin  `json:"vin"`
	Vout          []Vout `json:"vout"`
	Hex           string `json:"hex,omitempty"`
	BlockHash     string `json:"blockhash,omitempty"`
	Confirmations int64  `json:"confirmations"`
	Time          int64  `json:"time"`
	BlockTime     int64  `json:"blocktime"`
}

// ScriptSig is an input's unlocking script.
type ScriptSig struct {
	Asm string `json:"asm"`
	Hex string `json:"hex"`
}

// Vin is a transaction input. Value and Addresses are filled by enrichment.
type Vin struct {
	TxID        string           `json:"txid,omitempty"`
	Vout        uint32           `json:"vout"`
	Coinbase    string           `json:"coinbase,omitempty"`
	ScriptSig   *ScriptSig       `json:"scriptSig,omitempty"`
	TxInWitness []string         `json:"txinwitness,omitempty"`
	Sequence    uint32           `json:"sequence"`
	Value       *decimal.Decimal `json:"value,omitempty"`
	Addresses   []string         `json:"addresses,omitempty"`
}

// ScriptPubKey is an output's locking script.
type ScriptPubKey struct {
	Asm       string   `json:"asm"`
	Hex       string   `json:"hex"`
	ReqSigs   int      `json:"reqSigs,omitempty"`
	Type      string   `json:"type"`
	Address   string   `json:"address,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

// Vout is a transaction output with its value in coins.
type Vout struct {
	Value        decimal.Decimal `json:"value"`
	N            uint32          `json:"n"`
	ScriptPubKey ScriptPubKey    `json:"scriptPubKey"`
	Addresses    []string        `json:"addresses,omitempty"`
}

// MirrorAddresses copies scriptPubKey.address into scriptPubKey.addresses
// for servers that only report the singular form.
func (tx *Transaction) MirrorAddresses() {
	for i := range tx.Vout {
		spk := &tx.Vout[i].ScriptPubKey
		if spk.Address != "" {
			spk.Addresses = []string{spk.Address}
		}
	}
}

// FullTransaction is a transaction with inputs enriched from their previous
// outputs, keyed to the address it was fetched for.
type FullTransaction struct {
	TxID          string `json:"txid"`
	Version       int32  `json:"version"`
	Size          int    `json:"size"`
	VSize         int    `json:"vsize"`
	Weight        int    `json:"weight"`
	Locktime      uint32 `json:"locktime"`
	Inputs        []Vin  `json:"inputs"`
	Outputs       []Vout `json:"outputs"`
	BlockHash     string `json:"blockhash,omitempty"`
	Confirmations int64  `json:"confirmations"`
	Time          int64  `json:"time"`
	BlockTime     int64  `json:"blocktime"`
	Address       string `json:"address"`
}

// SatoshisToCoins converts an integer amount to coins.
func SatoshisToCoins(sats uint64) decimal.Decimal {
	return decimal.NewFromUint64(sats).Shift(-8)
}

// TxResult is either a decoded transaction or its raw hex.
type TxResult struct {
	Verbose *Transaction
	Raw     string
}

// IsVerbose reports whether r holds a decoded transaction.
func (r TxResult) IsVerbose() bool {
	return r.Verbose != nil
}
