// Package domain implements BTPC's canonical data model: blocks,
// headers, transactions, outpoints and UTXOs, along with the canonical
// little-endian serialization spec.md §4.2 requires. The var-int
// encoding (1/3/5/9-byte Bitcoin-style discriminated length prefix) is
// adapted from wire/common.go's ReadVarInt/WriteVarInt family.
package domain

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// MaxVarBytesLen bounds any single var-length byte field BTPC decodes,
// guarding against memory-exhaustion from malformed input.
const MaxVarBytesLen = 1024 * 1024 * 2 // 2 MiB, one message cap (spec.md §4.8)

// ReadVarInt reads a variable length integer from r, 1/3/5/9-byte
// Bitcoin-style encoding.
func ReadVarInt(r io.Reader) (uint64, error) {
	var discriminant [1]byte
	if _, err := io.ReadFull(r, discriminant[:]); err != nil {
		return 0, err
	}

	switch discriminant[0] {
	case 0xff:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint64(buf[:])
		if v < 1<<32 {
			return 0, fmt.Errorf("domain: non-canonical varint (9-byte encoding of %d)", v)
		}
		return v, nil
	case 0xfe:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		v := uint64(binary.LittleEndian.Uint32(buf[:]))
		if v < 1<<16 {
			return 0, fmt.Errorf("domain: non-canonical varint (5-byte encoding of %d)", v)
		}
		return v, nil
	case 0xfd:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		v := uint64(binary.LittleEndian.Uint16(buf[:]))
		if v < 0xfd {
			return 0, fmt.Errorf("domain: non-canonical varint (3-byte encoding of %d)", v)
		}
		return v, nil
	default:
		return uint64(discriminant[0]), nil
	}
}

// WriteVarInt serializes val to w using 1/3/5/9 bytes depending on its
// magnitude.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xfd:
		_, err := w.Write([]byte{byte(val)})
		return err
	case val <= math.MaxUint16:
		buf := make([]byte, 3)
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf)
		return err
	case val <= math.MaxUint32:
		buf := make([]byte, 5)
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:], val)
		_, err := w.Write(buf)
		return err
	}
}

// VarIntSerializeSize returns the number of bytes WriteVarInt would
// write for val.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= math.MaxUint16:
		return 3
	case val <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// ReadVarBytes reads a var-int-prefixed byte slice, rejecting lengths
// above maxAllowed to guard against memory exhaustion from malformed
// input (see spec.md §4.8 per-message size caps).
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxAllowed {
		return nil, fmt.Errorf("domain: %s too long (%d > max %d)", fieldName, count, maxAllowed)
	}
	buf := make([]byte, count)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteVarBytes writes b to w prefixed with its var-int length.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}
