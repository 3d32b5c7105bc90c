package utxo

import (
	"bytes"
	"testing"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/storage"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func coinbaseBlock(address []byte, amount uint64) *domain.Block {
	tx := &domain.Transaction{
		Version:  1,
		Inputs:   []*domain.TransactionInput{{PreviousOutpoint: domain.NullOutPoint, PublicKey: []byte("coinbase-data")}},
		Outputs:  []*domain.TransactionOutput{{Amount: amount, Address: address}},
		LockTime: 0,
	}
	block := &domain.Block{Transactions: []*domain.Transaction{tx}}
	block.Header.MerkleRoot = block.ComputeMerkleRoot()
	return block
}

func TestApplyBlockCreatesSpendableUTXOAfterMaturity(t *testing.T) {
	store := openTestStore(t)
	set := New(store, 0)

	addr := bytes.Repeat([]byte{0x01}, 37)
	block := coinbaseBlock(addr, 5_000_000_000)
	if err := set.ApplyBlock(block, 1); err != nil {
		t.Fatalf("ApplyBlock: %v", err)
	}

	op := domain.OutPoint{TxID: block.Transactions[0].TxID(), Vout: 0}
	u, ok := set.Get(op)
	if !ok {
		t.Fatal("expected coinbase UTXO to exist")
	}
	if u.IsMature(set.TipHeight()) {
		t.Fatal("coinbase output should be immature immediately after creation")
	}
	set.SetTipHeight(1 + domain.CoinbaseMaturity)
	if !u.IsMature(set.TipHeight()) {
		t.Fatal("coinbase output should be mature at height+100")
	}

	if got := set.Balance(addr); got != 5_000_000_000 {
		t.Fatalf("Balance = %d, want 5000000000", got)
	}
}

func TestApplyThenUndoRestoresPriorState(t *testing.T) {
	store := openTestStore(t)
	set := New(store, 0)

	addr := bytes.Repeat([]byte{0x02}, 37)
	block1 := coinbaseBlock(addr, 3_000_000_000)
	if err := set.ApplyBlock(block1, 1); err != nil {
		t.Fatalf("ApplyBlock: %v", err)
	}
	spentOp := domain.OutPoint{TxID: block1.Transactions[0].TxID(), Vout: 0}
	spentUTXO, _ := set.Get(spentOp)

	spendTx := &domain.Transaction{
		Version: 1,
		Inputs:  []*domain.TransactionInput{{PreviousOutpoint: spentOp, PublicKey: []byte("pk")}},
		Outputs: []*domain.TransactionOutput{{Amount: 3_000_000_000, Address: bytes.Repeat([]byte{0x03}, 37)}},
	}
	coinbase2 := &domain.Transaction{
		Version: 1,
		Inputs:  []*domain.TransactionInput{{PreviousOutpoint: domain.NullOutPoint}},
		Outputs: []*domain.TransactionOutput{{Amount: 0, Address: addr}},
	}
	block2 := &domain.Block{Transactions: []*domain.Transaction{coinbase2, spendTx}}
	block2.Header.MerkleRoot = block2.ComputeMerkleRoot()
	if err := set.ApplyBlock(block2, 2); err != nil {
		t.Fatalf("ApplyBlock block2: %v", err)
	}

	if _, ok := set.Get(spentOp); ok {
		t.Fatal("spent outpoint should no longer exist after block2 applies")
	}

	restored := map[domain.OutPoint]*domain.UTXO{spentOp: spentUTXO}
	if err := set.UndoBlock(block2, 1, restored); err != nil {
		t.Fatalf("UndoBlock: %v", err)
	}

	u, ok := set.Get(spentOp)
	if !ok {
		t.Fatal("expected spent outpoint to be restored after undo")
	}
	if u.Amount != spentUTXO.Amount {
		t.Fatalf("restored amount = %d, want %d", u.Amount, spentUTXO.Amount)
	}
	if set.TipHeight() != 1 {
		t.Fatalf("tip height after undo = %d, want 1", set.TipHeight())
	}
}
