package domain

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
)

// ForkID identifies the network a transaction is bound to, per
// spec.md §3/§4.2. It is appended as a single trailing byte to both the
// storage serialization and the signing preimage, preventing
// cross-chain replay.
type ForkID uint8

const (
	ForkIDMainnet ForkID = 0
	ForkIDTestnet ForkID = 1
	ForkIDRegtest ForkID = 2
)

// Per-input/output field caps, matching spec.md §3's stated key sizes
// with headroom; these are structural sanity caps applied at decode
// time, not consensus rules (those live in consensus.CheckTransactionSanity).
const (
	MaxPublicKeyLen = 4096
	MaxSignatureLen = 8192
	MaxAddressLen   = 256
)

// TransactionInput is spec.md §3's input: the spent outpoint plus the
// ML-DSA public key and signature authorizing the spend. There is no
// script: BTPC has no scripting language (spec.md §1 Non-goals).
type TransactionInput struct {
	PreviousOutpoint OutPoint
	PublicKey        []byte
	Signature        []byte
}

// TransactionOutput is spec.md §3's output: an amount in base units and
// a network-prefixed address in its raw 37-byte form (see AddressBytes).
type TransactionOutput struct {
	Amount  uint64
	Address []byte
}

// Transaction is spec.md §3's transaction.
type Transaction struct {
	Version  uint32
	Inputs   []*TransactionInput
	Outputs  []*TransactionOutput
	LockTime uint64
	ForkID   ForkID
}

// IsCoinbase reports whether tx is a coinbase transaction: exactly one
// input with the null previous-outpoint.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PreviousOutpoint.IsNull()
}

// serialize writes the canonical encoding of tx to w. When sigOverride
// is non-negative, the signature of that input index is replaced with
// an empty byte array — this produces the signing preimage for input
// sigOverride per spec.md §4.2/§6.
func (tx *Transaction) serialize(w io.Writer, sigOverrideIndex int) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], tx.Version)
	if _, err := w.Write(buf[:4]); err != nil {
		return err
	}

	if err := WriteVarInt(w, uint64(len(tx.Inputs))); err != nil {
		return err
	}
	for i, in := range tx.Inputs {
		if err := in.PreviousOutpoint.serialize(w); err != nil {
			return err
		}
		if err := WriteVarBytes(w, in.PublicKey); err != nil {
			return err
		}
		sig := in.Signature
		if i == sigOverrideIndex {
			sig = nil
		}
		if err := WriteVarBytes(w, sig); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for _, out := range tx.Outputs {
		binary.LittleEndian.PutUint64(buf[:8], out.Amount)
		if _, err := w.Write(buf[:8]); err != nil {
			return err
		}
		if err := WriteVarBytes(w, out.Address); err != nil {
			return err
		}
	}

	binary.LittleEndian.PutUint64(buf[:8], tx.LockTime)
	if _, err := w.Write(buf[:8]); err != nil {
		return err
	}

	_, err := w.Write([]byte{byte(tx.ForkID)})
	return err
}

// Serialize writes tx's full canonical encoding (all signatures
// intact, fork_id appended) to w — the storage/wire representation.
func (tx *Transaction) Serialize(w io.Writer) error {
	return tx.serialize(w, -1)
}

// Bytes returns tx's full canonical encoding.
func (tx *Transaction) Bytes() []byte {
	var buf bytes.Buffer
	_ = tx.Serialize(&buf)
	return buf.Bytes()
}

// SigningPreimage returns the bytes signed/verified for input i: the
// canonical encoding with that input's signature field zeroed to an
// empty byte array, fork_id included. Callers hash this with
// chainhash.Sum (a single SHA-512) before signing/verifying, per
// spec.md §4.2/§6.
func (tx *Transaction) SigningPreimage(inputIndex int) ([]byte, error) {
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return nil, fmt.Errorf("domain: input index %d out of range (tx has %d inputs)", inputIndex, len(tx.Inputs))
	}
	var buf bytes.Buffer
	if err := tx.serialize(&buf, inputIndex); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TxID returns the transaction identifier: SHA-512(SHA-512(serialized
// transaction including fork_id)).
func (tx *Transaction) TxID() chainhash.Hash {
	return chainhash.DoubleSum(tx.Bytes())
}

// DeserializeTransaction decodes a Transaction from r. Legacy
// transactions that end immediately after lock_time (no trailing
// fork_id byte) decode with ForkID set to ForkIDMainnet, per spec.md
// §3's backward-compatibility note.
func DeserializeTransaction(r io.Reader) (*Transaction, error) {
	tx := &Transaction{}

	var buf4 [4]byte
	if _, err := io.ReadFull(r, buf4[:]); err != nil {
		return nil, err
	}
	tx.Version = binary.LittleEndian.Uint32(buf4[:])

	numIn, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	tx.Inputs = make([]*TransactionInput, numIn)
	for i := range tx.Inputs {
		op, err := deserializeOutPoint(r)
		if err != nil {
			return nil, err
		}
		pk, err := ReadVarBytes(r, MaxPublicKeyLen, "public_key")
		if err != nil {
			return nil, err
		}
		sig, err := ReadVarBytes(r, MaxSignatureLen, "signature")
		if err != nil {
			return nil, err
		}
		tx.Inputs[i] = &TransactionInput{PreviousOutpoint: op, PublicKey: pk, Signature: sig}
	}

	numOut, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]*TransactionOutput, numOut)
	for i := range tx.Outputs {
		var buf8 [8]byte
		if _, err := io.ReadFull(r, buf8[:]); err != nil {
			return nil, err
		}
		amount := binary.LittleEndian.Uint64(buf8[:])
		addr, err := ReadVarBytes(r, MaxAddressLen, "address")
		if err != nil {
			return nil, err
		}
		tx.Outputs[i] = &TransactionOutput{Amount: amount, Address: addr}
	}

	var buf8 [8]byte
	if _, err := io.ReadFull(r, buf8[:]); err != nil {
		return nil, err
	}
	tx.LockTime = binary.LittleEndian.Uint64(buf8[:])

	var forkByte [1]byte
	if _, err := io.ReadFull(r, forkByte[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			tx.ForkID = ForkIDMainnet
			return tx, nil
		}
		return nil, err
	}
	tx.ForkID = ForkID(forkByte[0])

	return tx, nil
}
