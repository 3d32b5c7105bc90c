package domain

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
)

// OutPoint uniquely identifies a transaction output, per spec.md §3.
type OutPoint struct {
	TxID chainhash.Hash
	Vout uint32
}

// CoinbaseVout is the sentinel vout value used by the coinbase input's
// null OutPoint.
const CoinbaseVout = math.MaxUint32

// NullOutPoint is the coinbase input's sentinel previous-outpoint:
// (0…0, 0xFFFFFFFF).
var NullOutPoint = OutPoint{TxID: chainhash.ZeroHash, Vout: CoinbaseVout}

// IsNull reports whether op is the coinbase sentinel outpoint.
func (op OutPoint) IsNull() bool {
	return op.TxID == chainhash.ZeroHash && op.Vout == CoinbaseVout
}

func (op OutPoint) serialize(w io.Writer) error {
	if _, err := w.Write(op.TxID[:]); err != nil {
		return err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], op.Vout)
	_, err := w.Write(buf[:])
	return err
}

func deserializeOutPoint(r io.Reader) (OutPoint, error) {
	var op OutPoint
	if _, err := io.ReadFull(r, op.TxID[:]); err != nil {
		return op, err
	}
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return op, err
	}
	op.Vout = binary.LittleEndian.Uint32(buf[:])
	return op, nil
}
