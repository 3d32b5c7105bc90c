package node

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

func newTestNode(t *testing.T) *Node {
	t.Helper()
	n, err := New(Config{
		DataDir: t.TempDir(),
		Params:  netparams.RegtestParams,
	})
	require.NoError(t, err)
	t.Cleanup(func() { n.store.Close() })
	return n
}

// fundAddress credits amount to addressRaw via a synthetic, already-
// mature (non-coinbase) funding output, the same trick a genesis
// allocation or a matured, already-spent coinbase would produce,
// without needing to mine past CoinbaseMaturity in a test.
func fundAddress(t *testing.T, n *Node, addressRaw []byte, amount uint64) {
	t.Helper()
	block := &domain.Block{
		Transactions: []*domain.Transaction{
			{Version: 1, Inputs: []*domain.TransactionInput{{PreviousOutpoint: domain.NullOutPoint}}},
			{
				Version: 1,
				Outputs: []*domain.TransactionOutput{{Amount: amount, Address: addressRaw}},
			},
		},
	}
	require.NoError(t, n.utxos.ApplyBlock(block, 0))
}

func TestNewAssemblesComponentsWithoutStartingBackgroundActivity(t *testing.T) {
	n := newTestNode(t)
	require.NotNil(t, n.Chain())
	require.NotNil(t, n.Mempool())
	require.NotNil(t, n.UTXOSet())
	require.Nil(t, n.P2P(), "P2P should be nil when EnableP2P is false")
}

func TestStartStopIsIdempotentAndOrdered(t *testing.T) {
	n := newTestNode(t)
	require.NoError(t, n.Start())
	require.NoError(t, n.Start(), "second Start should be a no-op")
	require.NoError(t, n.Stop())
	require.NoError(t, n.Stop(), "second Stop should be a no-op")
}
