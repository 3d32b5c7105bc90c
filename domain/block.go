package domain

import (
	"bytes"
	"io"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
)

// MaxBlockSize is the maximum serialized size of a block, per
// spec.md §3.
const MaxBlockSize = 1024 * 1024 // 1 MiB

// MaxCoinbaseDataLen is the maximum length of the coinbase input's
// arbitrary coinbase-data field.
const MaxCoinbaseDataLen = 100

// Block is a BlockHeader plus an ordered list of transactions, the
// first of which is the coinbase, per spec.md §3.
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
}

// BlockHash returns the block's identifier hash (the header hash).
func (b *Block) BlockHash() chainhash.Hash {
	return b.Header.BlockHash()
}

// Coinbase returns the block's coinbase transaction, or nil if the
// block has no transactions (a structurally invalid block — callers
// should have already rejected it via consensus validation).
func (b *Block) Coinbase() *Transaction {
	if len(b.Transactions) == 0 {
		return nil
	}
	return b.Transactions[0]
}

// TxHashes returns the txid of every transaction in the block, in
// order, for merkle root computation.
func (b *Block) TxHashes() []chainhash.Hash {
	hashes := make([]chainhash.Hash, len(b.Transactions))
	for i, tx := range b.Transactions {
		hashes[i] = tx.TxID()
	}
	return hashes
}

// ComputeMerkleRoot recomputes the block's merkle root from its
// transaction list.
func (b *Block) ComputeMerkleRoot() chainhash.Hash {
	return MerkleRoot(b.TxHashes())
}

// Serialize writes the block's canonical encoding: header followed by
// a var-int transaction count and each transaction's encoding.
func (b *Block) Serialize(w io.Writer) error {
	if err := b.Header.Serialize(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(b.Transactions))); err != nil {
		return err
	}
	for _, tx := range b.Transactions {
		if err := tx.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the block's full canonical encoding.
func (b *Block) Bytes() []byte {
	var buf bytes.Buffer
	_ = b.Serialize(&buf)
	return buf.Bytes()
}

// SerializeSize returns the serialized size in bytes, used to enforce
// the MaxBlockSize invariant.
func (b *Block) SerializeSize() int {
	return len(b.Bytes())
}

// DeserializeBlock decodes a Block from r.
func DeserializeBlock(r io.Reader) (*Block, error) {
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, err
	}
	numTx, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	txs := make([]*Transaction, numTx)
	for i := range txs {
		tx, err := DeserializeTransaction(r)
		if err != nil {
			return nil, err
		}
		txs[i] = tx
	}
	return &Block{Header: *header, Transactions: txs}, nil
}
