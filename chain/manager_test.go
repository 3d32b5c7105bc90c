package chain

import (
	"bytes"
	"testing"

	"github.com/Shion-Kamoto/BTPC-sub008/crypto"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
	"github.com/Shion-Kamoto/BTPC-sub008/storage"
	"github.com/Shion-Kamoto/BTPC-sub008/utxo"
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

func TestNewBootstrapsGenesisOnFreshStore(t *testing.T) {
	store := openTestStore(t)
	utxos := utxo.New(store, 0)

	mgr, err := New(store, netparams.RegtestParams, utxos, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if mgr.TipHeight() != 0 {
		t.Fatalf("TipHeight = %d, want 0", mgr.TipHeight())
	}
	if mgr.TipHash() != netparams.RegtestParams.GenesisHash {
		t.Fatal("tip hash does not match the registered genesis hash")
	}
	if !mgr.HaveBlock(netparams.RegtestParams.GenesisHash) {
		t.Fatal("genesis block should be indexed")
	}
}

func TestReopeningStoreRestoresTip(t *testing.T) {
	store := openTestStore(t)
	utxos := utxo.New(store, 0)
	if _, err := New(store, netparams.RegtestParams, utxos, nil, nil); err != nil {
		t.Fatalf("first New: %v", err)
	}

	// A second manager over the same store must restore identical state
	// instead of re-bootstrapping, since CF_CHAIN_STATE already has a tip.
	mgr2, err := New(store, netparams.RegtestParams, utxos, nil, nil)
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	if mgr2.TipHeight() != 0 || mgr2.TipHash() != netparams.RegtestParams.GenesisHash {
		t.Fatal("reopened manager did not restore the persisted genesis tip")
	}
}

// buildSpendingBlock builds a one-transaction block at height spending
// spendOp (owned by signer), paying amount to a throwaway address, with
// header fields left for the caller to fill in (PrevHash, Bits, etc.) --
// proof-of-work is intentionally not solved here since these tests
// exercise connectBlock/disconnectBlock directly rather than routing
// through ProcessBlock's consensus.CheckProofOfWork gate.
func buildSpendingBlock(t *testing.T, signer *crypto.Signer, spendOp domain.OutPoint, amount uint64, forkID domain.ForkID) *domain.Block {
	t.Helper()
	tx := &domain.Transaction{
		Version: 1,
		Inputs: []*domain.TransactionInput{
			{PreviousOutpoint: spendOp, PublicKey: signer.PublicKey},
		},
		Outputs: []*domain.TransactionOutput{
			{Amount: amount, Address: bytes.Repeat([]byte{0x5}, 37)},
		},
		ForkID: forkID,
	}
	preimage, err := tx.SigningPreimage(0)
	if err != nil {
		t.Fatalf("SigningPreimage: %v", err)
	}
	sig, err := signer.Sign(preimage)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx.Inputs[0].Signature = sig

	coinbase := &domain.Transaction{
		Version: 1,
		Inputs: []*domain.TransactionInput{
			{PreviousOutpoint: domain.NullOutPoint, PublicKey: []byte("coinbase")},
		},
		Outputs: []*domain.TransactionOutput{
			{Amount: 0, Address: bytes.Repeat([]byte{0x6}, 37)},
		},
		ForkID: forkID,
	}

	block := &domain.Block{Transactions: []*domain.Transaction{coinbase, tx}}
	block.Header.MerkleRoot = block.ComputeMerkleRoot()
	return block
}

func TestConnectBlockThenDisconnectRestoresUTXOState(t *testing.T) {
	store := openTestStore(t)
	utxos := utxo.New(store, 0)
	mgr, err := New(store, netparams.RegtestParams, utxos, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	signer, err := crypto.GenerateSigner()
	if err != nil {
		t.Fatalf("GenerateSigner: %v", err)
	}
	fundingOp := domain.OutPoint{TxID: netparams.RegtestParams.GenesisHash, Vout: 0}
	seedUTXO := &domain.UTXO{Amount: 5000, Address: bytes.Repeat([]byte{0x4}, 37), PublicKey: signer.PublicKey}
	seedBatch := store.NewBatch()
	seedBatch.Put(storage.CFUTXO, append(append([]byte{}, fundingOp.TxID[:]...), encodeVout(fundingOp.Vout)...), seedUTXO.Bytes())
	if err := store.Apply(seedBatch); err != nil {
		t.Fatalf("seeding funding UTXO: %v", err)
	}

	block := buildSpendingBlock(t, signer, fundingOp, 4000, netparams.RegtestParams.ForkID)
	parent := mgr.genesis
	block.Header.PrevHash = parent.Hash
	node := newBlockNode(block.Header, parent)
	mgr.index[node.Hash] = node

	if err := mgr.storeHeaderAndBody(node, block); err != nil {
		t.Fatalf("storeHeaderAndBody: %v", err)
	}
	if err := mgr.connectBlock(node, block); err != nil {
		t.Fatalf("connectBlock: %v", err)
	}
	mgr.tip = node

	if _, ok := utxos.Get(fundingOp); ok {
		t.Fatal("spent funding outpoint should no longer be a UTXO after connect")
	}
	changeOp := domain.OutPoint{TxID: block.Transactions[1].TxID(), Vout: 0}
	changeUTXO, ok := utxos.Get(changeOp)
	if !ok || changeUTXO.Amount != 4000 {
		t.Fatalf("expected a 4000-unit change output, got %+v ok=%v", changeUTXO, ok)
	}

	if err := mgr.disconnectBlock(node, block); err != nil {
		t.Fatalf("disconnectBlock: %v", err)
	}
	mgr.tip = parent

	if _, ok := utxos.Get(changeOp); ok {
		t.Fatal("change output should be gone after disconnect")
	}
	restored, ok := utxos.Get(fundingOp)
	if !ok || restored.Amount != 5000 {
		t.Fatalf("expected the original funding UTXO restored, got %+v ok=%v", restored, ok)
	}
}

func encodeVout(vout uint32) []byte {
	return []byte{byte(vout >> 24), byte(vout >> 16), byte(vout >> 8), byte(vout)}
}

func TestCommonAncestorFindsForkPoint(t *testing.T) {
	genesis := newBlockNode(domain.BlockHeader{}, nil)

	left1 := &blockNode{Hash: hashFor(1), Height: 1, Parent: genesis, Work: genesis.Work}
	left2 := &blockNode{Hash: hashFor(2), Height: 2, Parent: left1, Work: genesis.Work}

	right1 := &blockNode{Hash: hashFor(3), Height: 1, Parent: genesis, Work: genesis.Work}
	right2 := &blockNode{Hash: hashFor(4), Height: 2, Parent: right1, Work: genesis.Work}
	right3 := &blockNode{Hash: hashFor(5), Height: 3, Parent: right2, Work: genesis.Work}

	ancestor := commonAncestor(left2, right3)
	if ancestor != genesis {
		t.Fatalf("expected genesis as the common ancestor, got height %d", ancestor.Height)
	}
}

func hashFor(seed byte) (h [64]byte) {
	h[0] = seed
	return h
}
