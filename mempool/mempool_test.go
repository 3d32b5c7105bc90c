package mempool

import (
	"bytes"
	"testing"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/crypto"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

// fakeView is a minimal in-memory UTXOView for mempool tests.
type fakeView struct {
	utxos  map[domain.OutPoint]*domain.UTXO
	height uint32
}

func newFakeView() *fakeView {
	return &fakeView{utxos: make(map[domain.OutPoint]*domain.UTXO), height: 200}
}

// noFeeFloorConfig mirrors DefaultConfig but disables the minimum
// relay fee rate, since the large ML-DSA key/signature sizes dwarf any
// realistic base-unit fee used in these tests.
func noFeeFloorConfig() Config {
	cfg := DefaultConfig()
	cfg.MinRelayFeeRate = 0
	return cfg
}

func (v *fakeView) Get(op domain.OutPoint) (*domain.UTXO, bool) {
	u, ok := v.utxos[op]
	return u, ok
}

func (v *fakeView) TipHeight() uint32 { return v.height }

func signedTx(t *testing.T, view *fakeView, amount, outAmount uint64) *domain.Transaction {
	t.Helper()
	signer, err := crypto.GenerateSigner()
	if err != nil {
		t.Fatalf("GenerateSigner: %v", err)
	}
	op := domain.OutPoint{TxID: chainhash.Sum(signer.PublicKey), Vout: 0}
	view.utxos[op] = &domain.UTXO{
		Amount:      amount,
		Address:     domain.AddressBytes(signer.PublicKey, netparams.RegtestParams.AddressPrefix),
		BlockHeight: 1,
	}

	tx := &domain.Transaction{
		Version: 1,
		Inputs: []*domain.TransactionInput{
			{PreviousOutpoint: op, PublicKey: signer.PublicKey},
		},
		Outputs: []*domain.TransactionOutput{
			{Amount: outAmount, Address: bytes.Repeat([]byte{0x8}, 37)},
		},
		ForkID: netparams.RegtestParams.ForkID,
	}

	preimage, err := tx.SigningPreimage(0)
	if err != nil {
		t.Fatalf("SigningPreimage: %v", err)
	}
	digest := chainhash.Sum(preimage)
	sig, err := signer.Sign(digest[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx.Inputs[0].Signature = sig
	return tx
}

func TestAdmitAcceptsValidTransaction(t *testing.T) {
	view := newFakeView()
	pool := New(noFeeFloorConfig(), netparams.RegtestParams, view, nil)

	tx := signedTx(t, view, 1000, 900)
	if err := pool.Admit(tx); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if pool.Count() != 1 {
		t.Fatalf("Count = %d, want 1", pool.Count())
	}
}

func TestAdmitRejectsForkIDMismatch(t *testing.T) {
	view := newFakeView()
	pool := New(noFeeFloorConfig(), netparams.MainnetParams, view, nil)

	tx := signedTx(t, view, 1000, 900) // signed with regtest fork id
	err := pool.Admit(tx)
	if !IsErrorCode(err, ErrForkIDMismatch) {
		t.Fatalf("expected ErrForkIDMismatch, got %v", err)
	}
}

func TestAdmitRejectsDoubleSpendAgainstPool(t *testing.T) {
	view := newFakeView()
	pool := New(noFeeFloorConfig(), netparams.RegtestParams, view, nil)

	tx1 := signedTx(t, view, 1000, 900)
	if err := pool.Admit(tx1); err != nil {
		t.Fatalf("Admit tx1: %v", err)
	}

	// tx2 spends the exact same outpoint as tx1.
	tx2 := &domain.Transaction{
		Version: 1,
		Inputs:  tx1.Inputs,
		Outputs: []*domain.TransactionOutput{{Amount: 800, Address: bytes.Repeat([]byte{0x7}, 37)}},
		ForkID:  netparams.RegtestParams.ForkID,
	}
	err := pool.Admit(tx2)
	if !IsErrorCode(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestAssembleTemplateOrdersByFeeRateDescending(t *testing.T) {
	view := newFakeView()
	pool := New(noFeeFloorConfig(), netparams.RegtestParams, view, nil)

	low := signedTx(t, view, 1000, 999)  // tiny fee
	high := signedTx(t, view, 1000, 500) // big fee
	if err := pool.Admit(low); err != nil {
		t.Fatalf("Admit low: %v", err)
	}
	if err := pool.Admit(high); err != nil {
		t.Fatalf("Admit high: %v", err)
	}

	txs, fees := pool.AssembleTemplate(1024 * 1024)
	if len(txs) != 2 {
		t.Fatalf("expected both transactions in template, got %d", len(txs))
	}
	if txs[0].TxID() != high.TxID() {
		t.Fatal("expected higher fee-rate transaction first in template")
	}
	if fees == 0 {
		t.Fatal("expected nonzero collected fees")
	}
}

func TestRemoveMinedDropsConfirmedTransactions(t *testing.T) {
	view := newFakeView()
	pool := New(noFeeFloorConfig(), netparams.RegtestParams, view, nil)

	tx := signedTx(t, view, 1000, 900)
	if err := pool.Admit(tx); err != nil {
		t.Fatalf("Admit: %v", err)
	}

	block := &domain.Block{Transactions: []*domain.Transaction{tx}}
	pool.RemoveMined(block)

	if pool.Count() != 0 {
		t.Fatalf("Count after RemoveMined = %d, want 0", pool.Count())
	}
}
