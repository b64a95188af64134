// Package txcodec encodes and decodes the extended transaction format: the
// standard segwit-aware wire layout followed by a list of support tickets.
package txcodec

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	witnessMarker = 0x00
	witnessFlag   = 0x01

	// WitnessScaleFactor is the weight of one non-witness byte.
	WitnessScaleFactor = 4
)

// Input spends a previous output.
type Input struct {
	Hash     [32]byte
	Index    uint32
	Script   []byte
	Sequence uint32
	Witness  [][]byte
}

// Output locks Value satoshis to Script.
type Output struct {
	Value  uint64
	Script []byte
}

// SupportTicket is the protocol extension carried after locktime.
type SupportTicket struct {
	SupportedHash []byte
	WorkerPubKey  []byte
	Height        int32
	SupportPubKey []byte
	RewardType    uint8
	Timestamp     int32
	Nonce         int32
}

// Transaction is an extended transaction.
type Transaction struct {
	Version  int32
	Inputs   []Input
	Outputs  []Output
	Locktime uint32
	Tickets  []SupportTicket
}

// HasWitnesses reports whether any input carries witness data.
func (tx *Transaction) HasWitnesses() bool {
	for _, in := range tx.Inputs {
		if len(in.Witness) != 0 {
			return true
		}
	}
	return false
}

// IsCoinbase reports whether tx has the single null-prevout input of a coinbase.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].Hash == [32]byte{} && tx.Inputs[0].Index == 0xffffffff
}

// Bytes returns the extended serialization, with witnesses.
func (tx *Transaction) Bytes() []byte {
	return tx.serialize(true, false)
}

// PureBytes returns the standard serialization without the ticket section.
// Witnesses are included when present.
func (tx *Transaction) PureBytes() []byte {
	return tx.serialize(true, true)
}

// Hex returns the extended serialization as hex.
func (tx *Transaction) Hex() string {
	return hex.EncodeToString(tx.Bytes())
}

// PureHex returns the pure serialization as hex.
func (tx *Transaction) PureHex() string {
	return hex.EncodeToString(tx.PureBytes())
}

// ID is the display-order double hash of the pure form without witnesses.
// Tickets never change it.
func (tx *Transaction) ID() string {
	return chainhash.DoubleHashH(tx.serialize(false, true)).String()
}

// WitnessID is the display-order double hash of the pure form with witnesses.
func (tx *Transaction) WitnessID() string {
	if tx.IsCoinbase() {
		return chainhash.Hash{}.String()
	}
	return chainhash.DoubleHashH(tx.serialize(true, true)).String()
}

// Size is the length of the extended serialization.
func (tx *Transaction) Size() int {
	return len(tx.Bytes())
}

// Weight counts non-witness bytes four times and witness bytes once.
func (tx *Transaction) Weight() int {
	base := len(tx.serialize(false, false))
	total := len(tx.serialize(true, false))
	return base*(WitnessScaleFactor-1) + total
}

// VirtualSize is the weight divided by four, rounded up.
func (tx *Transaction) VirtualSize() int {
	return (tx.Weight() + WitnessScaleFactor - 1) / WitnessScaleFactor
}

func (tx *Transaction) serialize(withWitness, pure bool) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer never fail.
	_ = tx.encode(&buf, withWitness && tx.HasWitnesses(), pure)
	return buf.Bytes()
}

func (tx *Transaction) encode(buf *bytes.Buffer, witness, pure bool) error {
	var scratch [8]byte

	putUint32(buf, scratch[:], uint32(tx.Version))
	if witness {
		buf.WriteByte(witnessMarker)
		buf.WriteByte(witnessFlag)
	}

	if err := wire.WriteVarInt(buf, 0, uint64(len(tx.Inputs))); err != nil {
		return err
	}
	for _, in := range tx.Inputs {
		buf.Write(in.Hash[:])
		putUint32(buf, scratch[:], in.Index)
		if err := wire.WriteVarBytes(buf, 0, in.Script); err != nil {
			return err
		}
		putUint32(buf, scratch[:], in.Sequence)
	}

	if err := wire.WriteVarInt(buf, 0, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for _, out := range tx.Outputs {
		putUint64(buf, scratch[:], out.Value)
		if err := wire.WriteVarBytes(buf, 0, out.Script); err != nil {
			return err
		}
	}

	if witness {
		for _, in := range tx.Inputs {
			if err := wire.WriteVarInt(buf, 0, uint64(len(in.Witness))); err != nil {
				return err
			}
			for _, item := range in.Witness {
				if err := wire.WriteVarBytes(buf, 0, item); err != nil {
					return err
				}
			}
		}
	}

	putUint32(buf, scratch[:], tx.Locktime)
	if pure {
		return nil
	}

	if err := wire.WriteVarInt(buf, 0, uint64(len(tx.Tickets))); err != nil {
		return err
	}
	for _, t := range tx.Tickets {
		if err := t.encode(buf, scratch[:]); err != nil {
			return err
		}
	}
	return nil
}

func (t *SupportTicket) encode(buf *bytes.Buffer, scratch []byte) error {
	if err := wire.WriteVarBytes(buf, 0, t.SupportedHash); err != nil {
		return err
	}
	if err := wire.WriteVarBytes(buf, 0, t.WorkerPubKey); err != nil {
		return err
	}
	putUint32(buf, scratch, uint32(t.Height))
	if err := wire.WriteVarBytes(buf, 0, t.SupportPubKey); err != nil {
		return err
	}
	buf.WriteByte(t.RewardType)
	putUint32(buf, scratch, uint32(t.Timestamp))
	putUint32(buf, scratch, uint32(t.Nonce))
	return nil
}
