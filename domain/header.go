package domain

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
)

// HeaderSize is the fixed serialized size of a BlockHeader: version(4) +
// prev_hash(64) + merkle_root(64) + timestamp(8) + bits(4) + nonce(8).
const HeaderSize = 4 + chainhash.HashSize + chainhash.HashSize + 8 + 4 + 8

// BlockHeader is spec.md §3's header: version, previous block hash,
// merkle root, timestamp, compact difficulty target and nonce.
// Grounded on wire/blockheader.go's field layout, generalized from a
// DAG's multi-parent header down to a single prev_hash.
type BlockHeader struct {
	Version    uint32
	PrevHash   chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint64 // seconds since epoch
	Bits       uint32
	Nonce      uint64
}

// Serialize writes the canonical little-endian encoding of the header
// to w.
func (h *BlockHeader) Serialize(w io.Writer) error {
	buf := make([]byte, HeaderSize)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], h.Version)
	off += 4
	copy(buf[off:], h.PrevHash[:])
	off += chainhash.HashSize
	copy(buf[off:], h.MerkleRoot[:])
	off += chainhash.HashSize
	binary.LittleEndian.PutUint64(buf[off:], h.Timestamp)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], h.Bits)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], h.Nonce)
	_, err := w.Write(buf)
	return err
}

// DeserializeHeader decodes a BlockHeader from r.
func DeserializeHeader(r io.Reader) (*BlockHeader, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	h := &BlockHeader{}
	off := 0
	h.Version = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	copy(h.PrevHash[:], buf[off:off+chainhash.HashSize])
	off += chainhash.HashSize
	copy(h.MerkleRoot[:], buf[off:off+chainhash.HashSize])
	off += chainhash.HashSize
	h.Timestamp = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	h.Bits = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.Nonce = binary.LittleEndian.Uint64(buf[off:])
	return h, nil
}

// Bytes returns the canonical serialized header.
func (h *BlockHeader) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	_ = h.Serialize(&buf)
	return buf.Bytes()
}

// BlockHash computes the block identifier: SHA-512(SHA-512(header)).
func (h *BlockHeader) BlockHash() chainhash.Hash {
	return chainhash.DoubleSum(h.Bytes())
}
