package txcodec

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrTruncated means the input ended inside a field.
	ErrTruncated = errors.New("txcodec: truncated transaction")
	// ErrTrailingBytes means bytes remained after the last ticket.
	ErrTrailingBytes = errors.New("txcodec: transaction has unexpected data")
	// ErrSuperfluousWitness means the witness marker was set but every stack was empty.
	ErrSuperfluousWitness = errors.New("txcodec: transaction has superfluous witness data")
)

// maxFieldSize bounds a single variable-length field.
const maxFieldSize = 4_000_000

// DecodeHex decodes a hex-encoded extended transaction.
func DecodeHex(s string) (*Transaction, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("txcodec: invalid hex: %w", err)
	}
	return Decode(b)
}

// Decode parses an extended transaction and rejects trailing bytes.
func Decode(b []byte) (*Transaction, error) {
	r := bytes.NewReader(b)
	tx, err := decode(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after tickets", ErrTrailingBytes, r.Len())
	}
	return tx, nil
}

func decode(r *bytes.Reader) (*Transaction, error) {
	tx := &Transaction{}

	version, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	tx.Version = int32(version)

	var hasWitness bool
	if r.Len() >= 2 {
		marker, _ := r.ReadByte()
		flag, _ := r.ReadByte()
		if marker == witnessMarker && flag == witnessFlag {
			hasWitness = true
		} else {
			r.Seek(-2, io.SeekCurrent)
		}
	}

	nIn, err := readCount(r)
	if err != nil {
		return nil, err
	}
	tx.Inputs = make([]Input, nIn)
	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		if _, err := io.ReadFull(r, in.Hash[:]); err != nil {
			return nil, truncated(err)
		}
		if in.Index, err = readUint32(r); err != nil {
			return nil, err
		}
		if in.Script, err = readVarBytes(r, "input script"); err != nil {
			return nil, err
		}
		if in.Sequence, err = readUint32(r); err != nil {
			return nil, err
		}
	}

	nOut, err := readCount(r)
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]Output, nOut)
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		if out.Value, err = readUint64(r); err != nil {
			return nil, err
		}
		if out.Script, err = readVarBytes(r, "output script"); err != nil {
			return nil, err
		}
	}

	if hasWitness {
		for i := range tx.Inputs {
			n, err := readCount(r)
			if err != nil {
				return nil, err
			}
			stack := make([][]byte, n)
			for j := range stack {
				if stack[j], err = readVarBytes(r, "witness item"); err != nil {
					return nil, err
				}
			}
			tx.Inputs[i].Witness = stack
		}
		if !tx.HasWitnesses() {
			return nil, ErrSuperfluousWitness
		}
	}

	if tx.Locktime, err = readUint32(r); err != nil {
		return nil, err
	}

	nTickets, err := readCount(r)
	if err != nil {
		return nil, err
	}
	tx.Tickets = make([]SupportTicket, nTickets)
	for i := range tx.Tickets {
		if err := tx.Tickets[i].decode(r); err != nil {
			return nil, fmt.Errorf("ticket %d: %w", i, err)
		}
	}

	return tx, nil
}

func (t *SupportTicket) decode(r *bytes.Reader) error {
	var err error
	if t.SupportedHash, err = readVarBytes(r, "supported hash"); err != nil {
		return err
	}
	if t.WorkerPubKey, err = readVarBytes(r, "worker pubkey"); err != nil {
		return err
	}
	h, err := readUint32(r)
	if err != nil {
		return err
	}
	t.Height = int32(h)
	if t.SupportPubKey, err = readVarBytes(r, "support pubkey"); err != nil {
		return err
	}
	if t.RewardType, err = r.ReadByte(); err != nil {
		return truncated(err)
	}
	ts, err := readUint32(r)
	if err != nil {
		return err
	}
	t.Timestamp = int32(ts)
	nonce, err := readUint32(r)
	if err != nil {
		return err
	}
	t.Nonce = int32(nonce)
	return nil
}

// readCount reads a varint element count and rejects counts that cannot fit
// in the remaining input, since every element takes at least one byte.
func readCount(r *bytes.Reader) (int, error) {
	n, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return 0, truncated(err)
	}
	if n > uint64(r.Len()) {
		return 0, fmt.Errorf("%w: count %d exceeds remaining %d bytes", ErrTruncated, n, r.Len())
	}
	return int(n), nil
}

func readVarBytes(r *bytes.Reader, field string) ([]byte, error) {
	b, err := wire.ReadVarBytes(r, 0, maxFieldSize, field)
	if err != nil {
		return nil, truncated(err)
	}
	return b, nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, truncated(err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, truncated(err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func putUint32(buf *bytes.Buffer, scratch []byte, v uint32) {
	binary.LittleEndian.PutUint32(scratch[:4], v)
	buf.Write(scratch[:4])
}

func putUint64(buf *bytes.Buffer, scratch []byte, v uint64) {
	binary.LittleEndian.PutUint64(scratch[:8], v)
	buf.Write(scratch[:8])
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return err
}
