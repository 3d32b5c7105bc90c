package domain

import "github.com/Shion-Kamoto/BTPC-sub008/chainhash"

// MerkleRoot computes the SHA-512 merkle tree root over txHashes, with
// odd-last-duplication per spec.md §3: when a level has an odd number
// of nodes, the last node is duplicated.
func MerkleRoot(txHashes []chainhash.Hash) chainhash.Hash {
	if len(txHashes) == 0 {
		return chainhash.ZeroHash
	}
	level := make([]chainhash.Hash, len(txHashes))
	copy(level, txHashes)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := 0; i < len(next); i++ {
			var buf [2 * chainhash.HashSize]byte
			copy(buf[:chainhash.HashSize], level[2*i][:])
			copy(buf[chainhash.HashSize:], level[2*i+1][:])
			next[i] = chainhash.DoubleSum(buf[:])
		}
		level = next
	}
	return level[0]
}
