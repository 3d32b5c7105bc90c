package wire

import (
	"encoding/binary"
	"io"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

// ReadVarInt, WriteVarInt and friends reuse domain's Bitcoin-style
// var-int encoding (the same discriminated 1/3/5/9-byte scheme
// wire/common.go defines) rather than duplicating it: the wire format
// and the canonical transaction/block encoding of spec.md §4.2 share
// one length-prefix convention.
func ReadVarInt(r io.Reader) (uint64, error)     { return domain.ReadVarInt(r) }
func WriteVarInt(w io.Writer, v uint64) error    { return domain.WriteVarInt(w, v) }
func VarIntSerializeSize(v uint64) int           { return domain.VarIntSerializeSize(v) }

func ReadVarBytes(r io.Reader, maxAllowed uint64, field string) ([]byte, error) {
	return domain.ReadVarBytes(r, maxAllowed, field)
}

func WriteVarBytes(w io.Writer, b []byte) error { return domain.WriteVarBytes(w, b) }

// NetAddress is a peer's network address and last-seen service info,
// used in version/addr messages. Grounded on wire's version message IP
// field layout, simplified to IPv4/IPv6 raw bytes without btcd's
// service-flag bitmask (BTPC nodes have one role: full relay).
type NetAddress struct {
	Timestamp uint64
	IP        [16]byte
	Port      uint16
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
