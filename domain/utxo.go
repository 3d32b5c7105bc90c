package domain

import (
	"bytes"
	"encoding/binary"
	"io"
)

// CoinbaseMaturity is the minimum confirmation depth before a coinbase
// output becomes spendable, per spec.md §3/glossary.
const CoinbaseMaturity = 100

// UTXO is the value half of spec.md §3's (OutPoint -> UTXO) mapping:
// amount, owning address, the spending public key's hash target,
// the block height it was created at, and whether it came from a
// coinbase transaction (subject to CoinbaseMaturity).
type UTXO struct {
	Amount      uint64
	Address     []byte
	PublicKey   []byte
	BlockHeight uint32
	IsCoinbase  bool
}

// IsMature reports whether the UTXO can be spent at chain tip height
// currentHeight, applying coinbase maturity if applicable.
func (u *UTXO) IsMature(currentHeight uint32) bool {
	if !u.IsCoinbase {
		return true
	}
	return uint64(u.BlockHeight)+CoinbaseMaturity <= uint64(currentHeight)
}

// Serialize writes the UTXO's canonical encoding, used by the storage
// engine adapter for the CF_UTXO column family.
func (u *UTXO) Serialize(w io.Writer) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u.Amount)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if err := WriteVarBytes(w, u.Address); err != nil {
		return err
	}
	if err := WriteVarBytes(w, u.PublicKey); err != nil {
		return err
	}
	var heightBuf [4]byte
	binary.LittleEndian.PutUint32(heightBuf[:], u.BlockHeight)
	if _, err := w.Write(heightBuf[:]); err != nil {
		return err
	}
	coinbaseByte := byte(0)
	if u.IsCoinbase {
		coinbaseByte = 1
	}
	_, err := w.Write([]byte{coinbaseByte})
	return err
}

// Bytes returns the UTXO's canonical encoding.
func (u *UTXO) Bytes() []byte {
	var buf bytes.Buffer
	_ = u.Serialize(&buf)
	return buf.Bytes()
}

// DeserializeUTXO decodes a UTXO from r.
func DeserializeUTXO(r io.Reader) (*UTXO, error) {
	u := &UTXO{}
	var amountBuf [8]byte
	if _, err := io.ReadFull(r, amountBuf[:]); err != nil {
		return nil, err
	}
	u.Amount = binary.LittleEndian.Uint64(amountBuf[:])

	addr, err := ReadVarBytes(r, MaxAddressLen, "utxo_address")
	if err != nil {
		return nil, err
	}
	u.Address = addr

	pk, err := ReadVarBytes(r, MaxPublicKeyLen, "utxo_public_key")
	if err != nil {
		return nil, err
	}
	u.PublicKey = pk

	var heightBuf [4]byte
	if _, err := io.ReadFull(r, heightBuf[:]); err != nil {
		return nil, err
	}
	u.BlockHeight = binary.LittleEndian.Uint32(heightBuf[:])

	var coinbaseByte [1]byte
	if _, err := io.ReadFull(r, coinbaseByte[:]); err != nil {
		return nil, err
	}
	u.IsCoinbase = coinbaseByte[0] != 0

	return u, nil
}
