package node

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

func TestCreateWalletPersistsUnderCFWallets(t *testing.T) {
	n := newTestNode(t)

	walletID, address, err := n.CreateWallet("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, walletID)
	require.NotEmpty(t, address)

	_, err = n.findWallet(walletID)
	require.NoError(t, err)
}

func TestCreateTransactionSignBroadcastRoundTrip(t *testing.T) {
	n := newTestNode(t)

	walletID, address, err := n.CreateWallet("hunter2")
	require.NoError(t, err)
	w, err := n.findWallet(walletID)
	require.NoError(t, err)
	fromRaw := domain.AddressBytes(w.signer.PublicKey, n.cfg.Params.AddressPrefix)
	fundAddress(t, n, fromRaw, 1_000_000)

	_, toAddress, err := n.CreateWallet("recipient password")
	require.NoError(t, err)

	tx, err := n.CreateTransaction(walletID, address, toAddress, 500, 1)
	require.NoError(t, err)
	txid := tx.TxID().String()

	_, err = n.SignTransaction(txid, "wrong password")
	require.Error(t, err, "SignTransaction should reject an incorrect password")

	signed, err := n.SignTransaction(txid, "hunter2")
	require.NoError(t, err)
	for i, in := range signed.Inputs {
		require.NotEmptyf(t, in.Signature, "input %d was not signed", i)
	}

	require.NoError(t, n.BroadcastTransaction(txid))
	require.Equal(t, 1, n.pool.Count())
}

func TestCreateTransactionInsufficientFunds(t *testing.T) {
	n := newTestNode(t)

	walletID, address, err := n.CreateWallet("pw")
	require.NoError(t, err)
	w, err := n.findWallet(walletID)
	require.NoError(t, err)
	fromRaw := domain.AddressBytes(w.signer.PublicKey, n.cfg.Params.AddressPrefix)
	fundAddress(t, n, fromRaw, 100)

	_, err = n.CreateTransaction(walletID, address, address, 1_000_000, 1)
	require.Error(t, err)
}

func TestCancelTransactionReleasesReservation(t *testing.T) {
	n := newTestNode(t)

	walletID, address, err := n.CreateWallet("pw")
	require.NoError(t, err)
	w, err := n.findWallet(walletID)
	require.NoError(t, err)
	fromRaw := domain.AddressBytes(w.signer.PublicKey, n.cfg.Params.AddressPrefix)
	fundAddress(t, n, fromRaw, 1_000_000)

	tx, err := n.CreateTransaction(walletID, address, address, 500, 1)
	require.NoError(t, err)
	txid := tx.TxID().String()

	require.NoError(t, n.CancelTransaction(txid))

	_, err = n.CreateTransaction(walletID, address, address, 500, 1)
	require.NoError(t, err, "CreateTransaction after cancel should succeed once reservation is released")
}
