package domain

import (
	"bytes"
	"testing"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
)

func sampleTx(forkID ForkID) *Transaction {
	return &Transaction{
		Version: 1,
		Inputs: []*TransactionInput{
			{
				PreviousOutpoint: OutPoint{TxID: chainhash.Sum([]byte("prev")), Vout: 0},
				PublicKey:        bytes.Repeat([]byte{0xAB}, 2592),
				Signature:        bytes.Repeat([]byte{0xCD}, 100),
			},
		},
		Outputs: []*TransactionOutput{
			{Amount: 5_000_000_000, Address: bytes.Repeat([]byte{0x01}, 37)},
		},
		LockTime: 0,
		ForkID:   forkID,
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := sampleTx(ForkIDTestnet)
	decoded, err := DeserializeTransaction(bytes.NewReader(tx.Bytes()))
	if err != nil {
		t.Fatalf("DeserializeTransaction: %v", err)
	}
	if decoded.TxID() != tx.TxID() {
		t.Fatal("round-tripped transaction has a different txid")
	}
	if decoded.ForkID != tx.ForkID {
		t.Fatalf("fork id mismatch: got %d want %d", decoded.ForkID, tx.ForkID)
	}
}

func TestLegacyTransactionMissingForkIDDefaultsMainnet(t *testing.T) {
	tx := sampleTx(ForkIDMainnet)
	full := tx.Bytes()
	legacy := full[:len(full)-1] // drop trailing fork_id byte

	decoded, err := DeserializeTransaction(bytes.NewReader(legacy))
	if err != nil {
		t.Fatalf("DeserializeTransaction (legacy): %v", err)
	}
	if decoded.ForkID != ForkIDMainnet {
		t.Fatalf("expected legacy fork id to default to mainnet, got %d", decoded.ForkID)
	}
}

func TestSigningPreimageZeroesOnlyTargetSignature(t *testing.T) {
	tx := sampleTx(ForkIDRegtest)
	tx.Inputs = append(tx.Inputs, &TransactionInput{
		PreviousOutpoint: OutPoint{TxID: chainhash.Sum([]byte("prev2")), Vout: 1},
		PublicKey:        bytes.Repeat([]byte{0xEF}, 2592),
		Signature:        bytes.Repeat([]byte{0x99}, 100),
	})

	preimage0, err := tx.SigningPreimage(0)
	if err != nil {
		t.Fatalf("SigningPreimage(0): %v", err)
	}
	preimage1, err := tx.SigningPreimage(1)
	if err != nil {
		t.Fatalf("SigningPreimage(1): %v", err)
	}
	if bytes.Equal(preimage0, preimage1) {
		t.Fatal("signing preimages for different inputs must differ")
	}
}

func TestBlockRoundTrip(t *testing.T) {
	coinbase := &Transaction{
		Version: 1,
		Inputs: []*TransactionInput{
			{PreviousOutpoint: NullOutPoint, PublicKey: nil, Signature: nil},
		},
		Outputs: []*TransactionOutput{{Amount: 3_237_500_000, Address: bytes.Repeat([]byte{0x02}, 37)}},
		ForkID:  ForkIDRegtest,
	}
	tx := sampleTx(ForkIDRegtest)

	b := &Block{Transactions: []*Transaction{coinbase, tx}}
	b.Header = BlockHeader{
		Version:    1,
		PrevHash:   chainhash.ZeroHash,
		MerkleRoot: b.ComputeMerkleRoot(),
		Timestamp:  1234,
		Bits:       0x1d00ffff,
		Nonce:      42,
	}

	decoded, err := DeserializeBlock(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("DeserializeBlock: %v", err)
	}
	if decoded.BlockHash() != b.BlockHash() {
		t.Fatal("round-tripped block has a different hash")
	}
	if len(decoded.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(decoded.Transactions))
	}
	if !decoded.Coinbase().IsCoinbase() {
		t.Fatal("first transaction must be recognized as coinbase")
	}
}

func TestMerkleRootOddLastDuplication(t *testing.T) {
	h1 := chainhash.Sum([]byte("a"))
	h2 := chainhash.Sum([]byte("b"))
	h3 := chainhash.Sum([]byte("c"))

	root3 := MerkleRoot([]chainhash.Hash{h1, h2, h3})
	root4 := MerkleRoot([]chainhash.Hash{h1, h2, h3, h3})
	if root3 != root4 {
		t.Fatal("odd-length merkle tree must duplicate the last node")
	}
}

func TestMerkleRootSingleAndPair(t *testing.T) {
	h1 := chainhash.Sum([]byte("only"))
	if MerkleRoot([]chainhash.Hash{h1}) != h1 {
		t.Fatal("single-element merkle root must equal that element")
	}

	h2 := chainhash.Sum([]byte("second"))
	root := MerkleRoot([]chainhash.Hash{h1, h2})
	var buf [2 * chainhash.HashSize]byte
	copy(buf[:chainhash.HashSize], h1[:])
	copy(buf[chainhash.HashSize:], h2[:])
	want := chainhash.DoubleSum(buf[:])
	if root != want {
		t.Fatal("two-element merkle root mismatch")
	}
}

func TestUTXORoundTrip(t *testing.T) {
	u := &UTXO{
		Amount:      1_000_000,
		Address:     bytes.Repeat([]byte{0x07}, 37),
		PublicKey:   bytes.Repeat([]byte{0x08}, 2592),
		BlockHeight: 500,
		IsCoinbase:  true,
	}
	decoded, err := DeserializeUTXO(bytes.NewReader(u.Bytes()))
	if err != nil {
		t.Fatalf("DeserializeUTXO: %v", err)
	}
	if decoded.Amount != u.Amount || decoded.BlockHeight != u.BlockHeight || decoded.IsCoinbase != u.IsCoinbase {
		t.Fatal("utxo round-trip field mismatch")
	}
	if !bytes.Equal(decoded.Address, u.Address) {
		t.Fatal("utxo address mismatch after round trip")
	}
}

func TestCoinbaseMaturity(t *testing.T) {
	u := &UTXO{BlockHeight: 100, IsCoinbase: true}
	if u.IsMature(198) {
		t.Fatal("coinbase at depth 98 must be immature")
	}
	if !u.IsMature(200) {
		t.Fatal("coinbase at depth 100 must be mature")
	}
}

func TestAddressEncodeDecodeRoundTrip(t *testing.T) {
	pk := bytes.Repeat([]byte{0x11}, 2592)
	addr := EncodeAddress(pk, PrefixRegtest)

	payload, err := DecodeAddress(addr, PrefixRegtest)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	full := chainhash.Sum(pk)
	if !bytes.Equal(payload, full[:AddressPayloadLen]) {
		t.Fatal("decoded address payload does not match expected public key hash")
	}

	if _, err := DecodeAddress(addr, PrefixMainnet); err == nil {
		t.Fatal("expected network prefix mismatch to be rejected")
	}
}
