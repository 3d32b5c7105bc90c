// Package chainhash defines the 64-byte SHA-512 digest type used
// throughout BTPC as the identifier for blocks, transactions and merkle
// nodes. Naming follows the btcsuite convention
// (github.com/btcsuite/btcd/chaincfg/chainhash) adapted for a 64-byte
// SHA-512 digest instead of btcd's 32-byte double-SHA-256 one.
package chainhash

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

// HashSize is the size, in bytes, of a BTPC hash: one full SHA-512 digest.
const HashSize = 64

// Hash is a fixed-width 64-byte SHA-512 digest. Equality is byte-wise;
// ordering is lexicographic big-endian, matching spec.md §3.
type Hash [HashSize]byte

// ZeroHash is the all-zero Hash, used as the coinbase's sentinel previous
// transaction id.
var ZeroHash Hash

// Sum returns the single SHA-512 digest of data.
func Sum(data []byte) Hash {
	return Hash(sha512.Sum512(data))
}

// DoubleSum returns SHA-512(SHA-512(data)), the hash used for block and
// transaction identifiers per spec.md §3.
func DoubleSum(data []byte) Hash {
	first := sha512.Sum512(data)
	second := sha512.Sum512(first[:])
	return Hash(second)
}

// IsEqual returns whether h and other represent the same hash. Two nil
// pointers are equal; a nil pointer never equals a non-nil one,
// mirroring btcsuite/btcd's chainhash.Hash.IsEqual.
func (h *Hash) IsEqual(other *Hash) bool {
	if h == nil && other == nil {
		return true
	}
	if h == nil || other == nil {
		return false
	}
	return *h == *other
}

// Less reports whether h sorts before other under lexicographic
// big-endian ordering.
func (h Hash) Less(other Hash) bool {
	return bytes.Compare(h[:], other[:]) < 0
}

// String returns the hexadecimal encoding of the hash, most-significant
// byte first (no byte-reversal, unlike btcd's display convention).
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// CloneBytes returns a newly allocated copy of the hash's bytes.
func (h Hash) CloneBytes() []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}

// NewHashFromStr creates a Hash from a hex string.
func NewHashFromStr(s string) (Hash, error) {
	var h Hash
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("chainhash: invalid hex string: %w", err)
	}
	if len(decoded) != HashSize {
		return h, fmt.Errorf("chainhash: invalid hash length %d, want %d", len(decoded), HashSize)
	}
	copy(h[:], decoded)
	return h, nil
}

// SetBytes sets the hash to the contents of newHash. An error is
// returned if newHash is not exactly HashSize bytes.
func (h *Hash) SetBytes(newHash []byte) error {
	if len(newHash) != HashSize {
		return fmt.Errorf("chainhash: invalid hash length %d, want %d", len(newHash), HashSize)
	}
	copy(h[:], newHash)
	return nil
}
