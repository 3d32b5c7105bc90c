package chain

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

// serializeUndoSet encodes the set of UTXOs a block's non-coinbase
// inputs consumed, keyed by the outpoint they used to live at, so a
// later disconnect can hand utxo.Set.UndoBlock exactly what it needs to
// restore. Grounded on blockdag/utxoio.go's diff-serialization idiom,
// generalized from a UTXODiff down to a flat restore map since BTPC has
// no DAG-wide virtual UTXO diff to maintain.
func serializeUndoSet(restored map[domain.OutPoint]*domain.UTXO) []byte {
	var buf bytes.Buffer
	count := uint32(len(restored))
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], count)
	buf.Write(countBuf[:])

	for op, u := range restored {
		buf.Write(op.TxID[:])
		var voutBuf [4]byte
		binary.LittleEndian.PutUint32(voutBuf[:], op.Vout)
		buf.Write(voutBuf[:])
		uBytes := u.Bytes()
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(uBytes)))
		buf.Write(lenBuf[:])
		buf.Write(uBytes)
	}
	return buf.Bytes()
}

// deserializeUndoSet reverses serializeUndoSet.
func deserializeUndoSet(raw []byte) (map[domain.OutPoint]*domain.UTXO, error) {
	r := bytes.NewReader(raw)
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, err
	}
	count := binary.LittleEndian.Uint32(countBuf[:])

	restored := make(map[domain.OutPoint]*domain.UTXO, count)
	for i := uint32(0); i < count; i++ {
		var op domain.OutPoint
		if _, err := io.ReadFull(r, op.TxID[:]); err != nil {
			return nil, err
		}
		var voutBuf [4]byte
		if _, err := io.ReadFull(r, voutBuf[:]); err != nil {
			return nil, err
		}
		op.Vout = binary.LittleEndian.Uint32(voutBuf[:])

		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, err
		}
		size := binary.LittleEndian.Uint32(lenBuf[:])
		uBytes := make([]byte, size)
		if _, err := io.ReadFull(r, uBytes); err != nil {
			return nil, err
		}
		u, err := domain.DeserializeUTXO(bytes.NewReader(uBytes))
		if err != nil {
			return nil, err
		}
		restored[op] = u
	}
	return restored, nil
}
