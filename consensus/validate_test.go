package consensus

import (
	"bytes"
	"testing"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

func coinbaseTx(forkID domain.ForkID, amount uint64) *domain.Transaction {
	return &domain.Transaction{
		Version: 1,
		Inputs: []*domain.TransactionInput{
			{PreviousOutpoint: domain.NullOutPoint},
		},
		Outputs: []*domain.TransactionOutput{
			{Amount: amount, Address: bytes.Repeat([]byte{0x01}, 37)},
		},
		ForkID: forkID,
	}
}

// spenderPublicKey is the fixed fake key regularTx's input carries;
// ownerAddress is the address that key owns, for UTXO fixtures that
// need to pass the input-ownership check.
var spenderPublicKey = bytes.Repeat([]byte{0xAB}, 2592)

func ownerAddress() []byte {
	return domain.AddressBytes(spenderPublicKey, domain.PrefixRegtest)
}

func regularTx(forkID domain.ForkID, prev domain.OutPoint, amount uint64) *domain.Transaction {
	return &domain.Transaction{
		Version: 1,
		Inputs: []*domain.TransactionInput{
			{PreviousOutpoint: prev, PublicKey: spenderPublicKey, Signature: bytes.Repeat([]byte{0xCD}, 100)},
		},
		Outputs: []*domain.TransactionOutput{
			{Amount: amount, Address: bytes.Repeat([]byte{0x02}, 37)},
		},
		ForkID: forkID,
	}
}

func TestCheckTransactionSanityRejectsWrongForkID(t *testing.T) {
	tx := regularTx(domain.ForkIDTestnet, domain.OutPoint{TxID: chainhash.Sum([]byte("x")), Vout: 0}, 100)
	err := CheckTransactionSanity(tx, netparams.MainnetParams)
	if !IsErrorCode(err, ErrForkIDMismatch) {
		t.Fatalf("expected ErrForkIDMismatch, got %v", err)
	}
}

func TestCheckTransactionSanityRejectsNullOutpointOnRegularTx(t *testing.T) {
	tx := regularTx(domain.ForkIDRegtest, domain.NullOutPoint, 100)
	err := CheckTransactionSanity(tx, netparams.RegtestParams)
	if !IsErrorCode(err, ErrBadTxInput) {
		t.Fatalf("expected ErrBadTxInput, got %v", err)
	}
}

func TestCheckTransactionSanityAcceptsValidCoinbase(t *testing.T) {
	tx := coinbaseTx(domain.ForkIDRegtest, GenesisReward)
	if err := CheckTransactionSanity(tx, netparams.RegtestParams); err != nil {
		t.Fatalf("expected valid coinbase to pass sanity, got %v", err)
	}
}

func TestCheckBlockStructureRequiresCoinbaseFirst(t *testing.T) {
	prev := domain.OutPoint{TxID: chainhash.Sum([]byte("p")), Vout: 0}
	tx := regularTx(domain.ForkIDRegtest, prev, 10)
	block := &domain.Block{Transactions: []*domain.Transaction{tx}}
	block.Header.MerkleRoot = block.ComputeMerkleRoot()

	err := CheckBlockStructure(block)
	if !IsErrorCode(err, ErrMissingCoinbase) {
		t.Fatalf("expected ErrMissingCoinbase, got %v", err)
	}
}

func TestCheckBlockStructureRejectsExtraCoinbase(t *testing.T) {
	cb1 := coinbaseTx(domain.ForkIDRegtest, GenesisReward)
	cb2 := coinbaseTx(domain.ForkIDRegtest, GenesisReward)
	block := &domain.Block{Transactions: []*domain.Transaction{cb1, cb2}}
	block.Header.MerkleRoot = block.ComputeMerkleRoot()

	err := CheckBlockStructure(block)
	if !IsErrorCode(err, ErrMultipleCoinbase) {
		t.Fatalf("expected ErrMultipleCoinbase, got %v", err)
	}
}

func TestCheckBlockStructureRejectsBadMerkleRoot(t *testing.T) {
	cb := coinbaseTx(domain.ForkIDRegtest, GenesisReward)
	block := &domain.Block{Transactions: []*domain.Transaction{cb}}
	block.Header.MerkleRoot = chainhash.ZeroHash

	err := CheckBlockStructure(block)
	if !IsErrorCode(err, ErrBadMerkleRoot) {
		t.Fatalf("expected ErrBadMerkleRoot, got %v", err)
	}
}

func TestCheckCoinbaseRejectsOverpay(t *testing.T) {
	cb := coinbaseTx(domain.ForkIDRegtest, BlockSubsidy(0)+1)
	block := &domain.Block{Transactions: []*domain.Transaction{cb}}
	err := CheckCoinbase(block, 0, 0)
	if !IsErrorCode(err, ErrBadCoinbaseSubsidy) {
		t.Fatalf("expected ErrBadCoinbaseSubsidy, got %v", err)
	}
}

func TestCheckCoinbaseAcceptsSubsidyPlusFees(t *testing.T) {
	cb := coinbaseTx(domain.ForkIDRegtest, BlockSubsidy(0)+500)
	block := &domain.Block{Transactions: []*domain.Transaction{cb}}
	if err := CheckCoinbase(block, 0, 500); err != nil {
		t.Fatalf("expected subsidy+fees coinbase to pass, got %v", err)
	}
}

type fakeUTXOView struct {
	utxos  map[domain.OutPoint]*domain.UTXO
	height uint32
}

func (v *fakeUTXOView) Get(op domain.OutPoint) (*domain.UTXO, bool) {
	u, ok := v.utxos[op]
	return u, ok
}
func (v *fakeUTXOView) TipHeight() uint32 { return v.height }

func TestCheckTransactionInputsRejectsMissingOutput(t *testing.T) {
	view := &fakeUTXOView{utxos: map[domain.OutPoint]*domain.UTXO{}, height: 100}
	prev := domain.OutPoint{TxID: chainhash.Sum([]byte("missing")), Vout: 0}
	tx := regularTx(domain.ForkIDRegtest, prev, 10)

	_, err := CheckTransactionInputs(tx, view)
	if !IsErrorCode(err, ErrMissingTxOut) {
		t.Fatalf("expected ErrMissingTxOut, got %v", err)
	}
}

func TestCheckTransactionInputsRejectsImmatureCoinbase(t *testing.T) {
	prev := domain.OutPoint{TxID: chainhash.Sum([]byte("cb")), Vout: 0}
	view := &fakeUTXOView{
		utxos: map[domain.OutPoint]*domain.UTXO{
			prev: {Amount: 1000, Address: ownerAddress(), BlockHeight: 100, IsCoinbase: true},
		},
		height: 150, // only 50 confirmations, needs 100
	}
	tx := regularTx(domain.ForkIDRegtest, prev, 10)
	_, err := CheckTransactionInputs(tx, view)
	if !IsErrorCode(err, ErrImmatureSpend) {
		t.Fatalf("expected ErrImmatureSpend, got %v", err)
	}
}

func TestCheckTransactionInputsRejectsOverspend(t *testing.T) {
	prev := domain.OutPoint{TxID: chainhash.Sum([]byte("p")), Vout: 0}
	view := &fakeUTXOView{
		utxos:  map[domain.OutPoint]*domain.UTXO{prev: {Amount: 5, Address: ownerAddress(), BlockHeight: 0, IsCoinbase: false}},
		height: 10,
	}
	tx := regularTx(domain.ForkIDRegtest, prev, 10)
	_, err := CheckTransactionInputs(tx, view)
	if !IsErrorCode(err, ErrSpendTooHigh) {
		t.Fatalf("expected ErrSpendTooHigh, got %v", err)
	}
}

func TestCheckTransactionInputsRejectsUnownedSpend(t *testing.T) {
	prev := domain.OutPoint{TxID: chainhash.Sum([]byte("p")), Vout: 0}
	view := &fakeUTXOView{
		utxos:  map[domain.OutPoint]*domain.UTXO{prev: {Amount: 1000, Address: bytes.Repeat([]byte{0x99}, 37), BlockHeight: 0, IsCoinbase: false}},
		height: 10,
	}
	tx := regularTx(domain.ForkIDRegtest, prev, 800)
	_, err := CheckTransactionInputs(tx, view)
	if !IsErrorCode(err, ErrUnownedSpend) {
		t.Fatalf("expected ErrUnownedSpend, got %v", err)
	}
}

func TestCheckTransactionInputsComputesFee(t *testing.T) {
	prev := domain.OutPoint{TxID: chainhash.Sum([]byte("p")), Vout: 0}
	view := &fakeUTXOView{
		utxos:  map[domain.OutPoint]*domain.UTXO{prev: {Amount: 1000, Address: ownerAddress(), BlockHeight: 0, IsCoinbase: false}},
		height: 10,
	}
	tx := regularTx(domain.ForkIDRegtest, prev, 800)
	fee, err := CheckTransactionInputs(tx, view)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fee != 200 {
		t.Fatalf("expected fee 200, got %d", fee)
	}
}
