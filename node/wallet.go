package node

import (
	"sort"
	"sync"

	"github.com/btcsuite/btcutil/base58"
	"github.com/google/uuid"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/crypto"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/errkind"
	"github.com/Shion-Kamoto/BTPC-sub008/eventbus"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
	"github.com/Shion-Kamoto/BTPC-sub008/p2p/wire"
	"github.com/Shion-Kamoto/BTPC-sub008/storage"
	"github.com/Shion-Kamoto/BTPC-sub008/utxo"
)

// wallet is an embedded signing identity living under CF_WALLETS, per
// spec.md §6's on-disk layout note. The password is never stored: only
// its SHA-512 hash, so sign_transaction can tell a wrong password from
// a missing key without ever persisting the secret itself. Wallet-file
// encryption of the underlying key material remains an external
// collaborator's concern per spec.md §1 -- this embedded form is the
// in-process convenience path, not the encrypted-at-rest one.
type wallet struct {
	id           uuid.UUID
	signer       *crypto.Signer
	passwordHash chainhash.Hash
}

// pendingSend tracks one in-flight wallet-send transaction between
// create_transaction and its eventual broadcast_transaction or
// cancel_transaction, keyed by the unsigned transaction's txid.
type pendingSend struct {
	walletID    uuid.UUID
	reservation *utxo.ReservationToken
	tx          *domain.Transaction
	signed      bool
}

// walletRegistry is the in-memory index over wallet and pendingSend,
// guarded by one mutex since wallet-send calls are infrequent relative
// to mempool/chain hot paths.
type walletRegistry struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*wallet
	sends   map[chainhash.Hash]*pendingSend
}

func newWalletRegistry() *walletRegistry {
	return &walletRegistry{
		wallets: make(map[uuid.UUID]*wallet),
		sends:   make(map[chainhash.Hash]*pendingSend),
	}
}

// CreateWallet generates a fresh ML-DSA signer, persists it under
// CF_WALLETS, and returns its wallet id and default receive address.
func (n *Node) CreateWallet(password string) (walletID string, address string, err error) {
	signer, err := crypto.GenerateSigner()
	if err != nil {
		return "", "", err
	}
	w := &wallet{
		id:           uuid.New(),
		signer:       signer,
		passwordHash: chainhash.Sum([]byte(password)),
	}

	n.wallets.mu.Lock()
	n.wallets.wallets[w.id] = w
	n.wallets.mu.Unlock()

	if err := n.persistWallet(w); err != nil {
		return "", "", err
	}

	addr := domain.EncodeAddress(signer.PublicKey, n.cfg.Params.AddressPrefix)
	logger.WalletLog.Infof("created wallet %s", w.id)
	return w.id.String(), addr, nil
}

func (n *Node) persistWallet(w *wallet) error {
	key := []byte("wallet:" + w.id.String())
	if err := n.store.Put(storage.CFWallets, key, w.signer.PublicKey); err != nil {
		return err
	}
	addr := domain.EncodeAddress(w.signer.PublicKey, n.cfg.Params.AddressPrefix)
	keyByAddr := []byte("wallet:" + w.id.String() + ":key:" + addr)
	return n.store.Put(storage.CFWallets, keyByAddr, w.signer.SecretBytes)
}

func (n *Node) findWallet(walletID string) (*wallet, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return nil, errkind.New(errkind.KeyNotFound, "malformed wallet id")
	}
	n.wallets.mu.Lock()
	w, ok := n.wallets.wallets[id]
	n.wallets.mu.Unlock()
	if !ok {
		return nil, errkind.New(errkind.KeyNotFound, "wallet not found")
	}
	return w, nil
}

// estimatedTxSize approximates a transaction's serialized size for fee
// calculation before it is fully built -- each input roughly
// headerless-outpoint(68) + ML-DSA public key + signature, each output
// amount(8) + address(~37).
func estimatedTxSize(numInputs, numOutputs int) uint64 {
	const perInput = 68 + 2592 + 4627 // outpoint + Dilithium5 pubkey + signature, rounded
	const perOutput = 8 + 37
	const overhead = 4 + 8 + 1 + 2 // version + locktime + fork_id + varints
	return uint64(overhead + numInputs*perInput + numOutputs*perOutput)
}

// CreateTransaction implements the create_transaction wallet-send
// method (spec.md §6): selects and reserves UTXOs owned by from
// sufficient to cover amount plus a fee_rate-derived fee, and returns
// an unsigned transaction awaiting SignTransaction. Reservation makes
// the selection exclusive: a second concurrent call against the same
// wallet cannot select the same outpoints (spec.md §8 scenario 4).
func (n *Node) CreateTransaction(walletID, from, to string, amount, feeRate uint64) (*domain.Transaction, error) {
	w, err := n.findWallet(walletID)
	if err != nil {
		return nil, err
	}

	fromPayload, err := domain.DecodeAddress(from, n.cfg.Params.AddressPrefix)
	if err != nil {
		return nil, errkind.Newf(errkind.InvalidAddress, "invalid from address: %v", err)
	}
	if _, err := domain.DecodeAddress(to, n.cfg.Params.AddressPrefix); err != nil {
		return nil, errkind.Newf(errkind.InvalidAddress, "invalid to address: %v", err)
	}
	fromRaw := domain.AddressBytes(w.signer.PublicKey, n.cfg.Params.AddressPrefix)
	if string(fromRaw[1:1+domain.AddressPayloadLen]) != string(fromPayload) {
		return nil, errkind.New(errkind.InvalidAddress, "from address does not belong to this wallet")
	}

	candidates := n.utxos.UnspentFor(fromRaw)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].UTXO.Amount > candidates[j].UTXO.Amount })

	tipHeight := n.chain.TipHeight()
	var selected []utxo.OutPointUTXO
	var total uint64
	var fee uint64
	for _, c := range candidates {
		if !c.UTXO.IsMature(tipHeight) {
			continue
		}
		selected = append(selected, c)
		total += c.UTXO.Amount
		fee = feeRate * estimatedTxSize(len(selected), 2)
		if total >= amount+fee {
			break
		}
	}
	if total < amount+fee {
		return nil, &errkind.Error{
			Kind:            errkind.InsufficientFunds,
			Available:       total,
			Required:        amount + fee,
			SuggestedAction: "reduce the amount or wait for more confirmations",
		}
	}

	outpoints := make([]domain.OutPoint, len(selected))
	for i, c := range selected {
		outpoints[i] = c.OutPoint
	}
	token, err := n.utxos.Reserve(outpoints, n.bus)
	if err != nil {
		return nil, errkind.New(errkind.UtxoLocked, "one or more outpoints are already reserved")
	}

	inputs := make([]*domain.TransactionInput, len(selected))
	for i, c := range selected {
		inputs[i] = &domain.TransactionInput{PreviousOutpoint: c.OutPoint, PublicKey: w.signer.PublicKey}
	}
	toRaw := base58.Decode(to)
	outputs := []*domain.TransactionOutput{{Amount: amount, Address: toRaw}}
	if change := total - amount - fee; change > 0 {
		outputs = append(outputs, &domain.TransactionOutput{Amount: change, Address: fromRaw})
	}

	tx := &domain.Transaction{
		Version:  1,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: 0,
		ForkID:   n.cfg.Params.ForkID,
	}
	txid := tx.TxID()
	n.utxos.BindTxID(token, txid)

	n.wallets.mu.Lock()
	n.wallets.sends[txid] = &pendingSend{walletID: w.id, reservation: token, tx: tx}
	n.wallets.mu.Unlock()

	n.bus.Publish(eventbus.EventTransactionInitiated, &eventbus.TransactionEvent{TxID: txid.String()})
	return tx, nil
}

// SignTransaction implements sign_transaction: signs every input of
// the pending transaction txID with walletID's key, failing with
// WalletLocked if password does not match the wallet that created it.
func (n *Node) SignTransaction(txIDHex string, password string) (*domain.Transaction, error) {
	txid, err := chainhash.NewHashFromStr(txIDHex)
	if err != nil {
		return nil, errkind.New(errkind.InvalidAmount, "malformed txid")
	}

	n.wallets.mu.Lock()
	send, ok := n.wallets.sends[txid]
	n.wallets.mu.Unlock()
	if !ok {
		return nil, errkind.New(errkind.UtxoNotFound, "no pending transaction for that txid")
	}

	n.wallets.mu.Lock()
	w := n.wallets.wallets[send.walletID]
	n.wallets.mu.Unlock()
	if w == nil {
		return nil, errkind.New(errkind.KeyNotFound, "owning wallet no longer available")
	}
	if w.passwordHash != chainhash.Sum([]byte(password)) {
		return nil, errkind.New(errkind.WalletLocked, "incorrect password")
	}

	n.bus.Publish(eventbus.EventTransactionSigningStarted, &eventbus.TransactionEvent{TxID: txIDHex})
	for i, in := range send.tx.Inputs {
		preimage, err := send.tx.SigningPreimage(i)
		if err != nil {
			return nil, errkind.Newf(errkind.SignatureFailed, "building signing preimage: %v", err)
		}
		digest := chainhash.Sum(preimage)
		sig, err := w.signer.Sign(digest[:])
		if err != nil {
			return nil, errkind.Newf(errkind.SignatureFailed, "signing input %d: %v", i, err)
		}
		in.Signature = sig
		n.bus.Publish(eventbus.EventTransactionInputSigned, &eventbus.TransactionEvent{TxID: txIDHex})
	}
	send.signed = true

	n.bus.Publish(eventbus.EventTransactionSigned, &eventbus.TransactionEvent{TxID: txIDHex})
	return send.tx, nil
}

// BroadcastTransaction implements broadcast_transaction: admits the
// fully signed transaction into the local mempool and announces it to
// peers, the same admission path an inbound network tx goes through.
func (n *Node) BroadcastTransaction(txIDHex string) error {
	txid, err := chainhash.NewHashFromStr(txIDHex)
	if err != nil {
		return errkind.New(errkind.InvalidAmount, "malformed txid")
	}

	n.wallets.mu.Lock()
	send, ok := n.wallets.sends[txid]
	n.wallets.mu.Unlock()
	if !ok {
		return errkind.New(errkind.UtxoNotFound, "no pending transaction for that txid")
	}
	if !send.signed {
		return errkind.New(errkind.SignatureFailed, "transaction has not been signed yet")
	}

	if err := n.pool.Admit(send.tx); err != nil {
		n.bus.Publish(eventbus.EventTransactionFailed, &eventbus.TransactionEvent{TxID: txIDHex, Reason: err.Error()})
		return &errkind.Error{Kind: errkind.BroadcastFailed, Message: err.Error(), Recoverable: true}
	}

	if n.p2p != nil {
		n.p2p.Broadcast(&wire.MsgInv{
			InvList: []wire.InvVect{{Type: wire.InvTypeTx, Hash: txid}},
		})
	}

	n.bus.Publish(eventbus.EventTransactionBroadcast, &eventbus.TransactionEvent{TxID: txIDHex})
	return nil
}

// CancelTransaction implements cancel_transaction: releases the UTXO
// reservation made by CreateTransaction without broadcasting,
// discarding the pending send.
func (n *Node) CancelTransaction(txIDHex string) error {
	txid, err := chainhash.NewHashFromStr(txIDHex)
	if err != nil {
		return errkind.New(errkind.InvalidAmount, "malformed txid")
	}

	n.wallets.mu.Lock()
	send, ok := n.wallets.sends[txid]
	if ok {
		delete(n.wallets.sends, txid)
	}
	n.wallets.mu.Unlock()
	if !ok {
		return errkind.New(errkind.UtxoNotFound, "no pending transaction for that txid")
	}

	n.utxos.Release(send.reservation, n.bus)
	return nil
}
