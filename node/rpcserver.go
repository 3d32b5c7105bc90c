// Dispatch for the rpcmodel method set (spec.md §6) against a Node
// handle. Each method here is the in-process trait call spec.md §9
// describes; an HTTP/JSON-RPC shim, if one is ever added, would do
// nothing more than marshal these same rpcmodel structs over the wire.
// Grounded on server/rpc/rpcserver.go's handler-per-command dispatch
// table, collapsed from a reflection-based command registry (absent
// from the retrieval pack, see rpcmodel/methods.go's package doc) to
// plain exported methods.
package node

import (
	"time"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/consensus"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/errkind"
	"github.com/Shion-Kamoto/BTPC-sub008/mining"
	"github.com/Shion-Kamoto/BTPC-sub008/p2p/wire"
	"github.com/Shion-Kamoto/BTPC-sub008/rpcmodel"
)

// GetBlockchainInfo implements getblockchaininfo.
func (n *Node) GetBlockchainInfo() *rpcmodel.BlockchainInfo {
	_, height, _ := n.chain.Tip()
	return &rpcmodel.BlockchainInfo{
		Height:     uint64(height),
		BestHash:   n.chain.TipHash().String(),
		Difficulty: consensus.Difficulty(n.chain.RequiredDifficulty(), n.cfg.Params),
		Network:    n.cfg.Params.Name,
	}
}

func parseHash(s string) (chainhash.Hash, error) {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return chainhash.Hash{}, errkind.Newf(errkind.InvalidAmount, "malformed hash: %v", err)
	}
	return h, nil
}

func (n *Node) confirmations(height uint32) uint64 {
	tip := n.chain.TipHeight()
	if height > tip {
		return 0
	}
	return uint64(tip-height) + 1
}

// GetBlock implements getblock(hash).
func (n *Node) GetBlock(cmd rpcmodel.GetBlockCmd) (*rpcmodel.BlockResult, error) {
	hash, err := parseHash(cmd.Hash)
	if err != nil {
		return nil, err
	}
	block, err := n.chain.BlockByHash(hash)
	if err != nil {
		return nil, errkind.New(errkind.UtxoNotFound, "block not found")
	}
	height, _ := n.chain.HeightByHash(hash)
	return &rpcmodel.BlockResult{
		Hash:          cmd.Hash,
		Height:        uint64(height),
		Confirmations: n.confirmations(height),
		Block:         block,
	}, nil
}

// GetBlockHeader implements getblockheader(hash).
func (n *Node) GetBlockHeader(cmd rpcmodel.GetBlockHeaderCmd) (*rpcmodel.BlockHeaderResult, error) {
	hash, err := parseHash(cmd.Hash)
	if err != nil {
		return nil, err
	}
	header, ok := n.chain.HeaderByHash(hash)
	if !ok {
		return nil, errkind.New(errkind.UtxoNotFound, "block header not found")
	}
	height, _ := n.chain.HeightByHash(hash)
	return &rpcmodel.BlockHeaderResult{
		Hash:          cmd.Hash,
		Height:        uint64(height),
		Confirmations: n.confirmations(height),
		Header:        &header,
	}, nil
}

// GetBlockHash implements getblockhash(height).
func (n *Node) GetBlockHash(cmd rpcmodel.GetBlockHashCmd) (*rpcmodel.BlockHashResult, error) {
	hash, err := n.chain.HashAtHeight(uint32(cmd.Height))
	if err != nil {
		return nil, errkind.New(errkind.UtxoNotFound, "no block at that height")
	}
	return &rpcmodel.BlockHashResult{Hash: hash.String()}, nil
}

// GetBlockCount implements getblockcount.
func (n *Node) GetBlockCount() *rpcmodel.BlockCountResult {
	return &rpcmodel.BlockCountResult{Height: uint64(n.chain.TipHeight())}
}

// GetTransaction implements gettransaction(txid). Only mempool-resident
// transactions are visible: there is no block transaction index, per
// the scope decision recorded in DESIGN.md.
func (n *Node) GetTransaction(cmd rpcmodel.GetTransactionCmd) (*rpcmodel.TransactionResult, error) {
	hash, err := parseHash(cmd.TxID)
	if err != nil {
		return nil, err
	}
	entry, ok := n.pool.Get(hash)
	if !ok {
		return nil, errkind.New(errkind.UtxoNotFound, "transaction not found in mempool, and no block transaction index is kept")
	}
	return &rpcmodel.TransactionResult{
		TxID:        cmd.TxID,
		InMempool:   true,
		Transaction: entry.Tx,
	}, nil
}

// SendRawTransaction implements sendrawtransaction(hex): admits an
// already-built, already-signed transaction into the mempool and
// announces it, the wallet-send path's broadcast step without the
// prior create/sign steps.
func (n *Node) SendRawTransaction(tx *domain.Transaction) (*rpcmodel.SendRawTransactionResult, error) {
	if err := n.pool.Admit(tx); err != nil {
		return nil, err
	}
	txid := tx.TxID()
	n.announceTx(txid)
	return &rpcmodel.SendRawTransactionResult{TxID: txid.String()}, nil
}

// ValidateTransaction implements validatetransaction(hex): runs tx
// through the same admission checks sendrawtransaction would, without
// actually inserting it into the pool.
func (n *Node) ValidateTransaction(tx *domain.Transaction) *rpcmodel.ValidateTransactionResult {
	if err := n.pool.Validate(tx); err != nil {
		return &rpcmodel.ValidateTransactionResult{Valid: false, Reason: err.Error()}
	}
	return &rpcmodel.ValidateTransactionResult{Valid: true}
}

// GetNetworkInfo implements getnetworkinfo.
func (n *Node) GetNetworkInfo() *rpcmodel.NetworkInfo {
	peers := 0
	if n.p2p != nil {
		peers = n.p2p.PeerCount()
	}
	return &rpcmodel.NetworkInfo{
		Network:         n.cfg.Params.Name,
		ProtocolVersion: wire.ProtocolVersion,
		ForkID:          uint8(n.cfg.Params.ForkID),
		PeerCount:       peers,
	}
}

// GetPeerInfo implements getpeerinfo.
func (n *Node) GetPeerInfo() []rpcmodel.PeerInfo {
	if n.p2p == nil {
		return nil
	}
	peers := n.p2p.Peers()
	out := make([]rpcmodel.PeerInfo, len(peers))
	for i, p := range peers {
		out[i] = rpcmodel.PeerInfo{
			Addr:           p.Addr(),
			Inbound:        p.Inbound(),
			StartHeight:    p.StartHeight(),
			UserAgent:      p.UserAgent(),
			ConnectedSince: p.ConnectedAt().Unix(),
		}
	}
	return out
}

// GetSyncInfo implements getsyncinfo.
func (n *Node) GetSyncInfo() *rpcmodel.SyncInfo {
	height := uint64(n.chain.TipHeight())
	return &rpcmodel.SyncInfo{
		Height:         height,
		HeaderHeight:   height,
		SyncPercentage: 100,
		Syncing:        false,
	}
}

// GetBlockTemplate implements getblocktemplate: hands an external
// miner the node's own currently-cached candidate when internal mining
// is running, or builds one on demand against the configured miner
// key otherwise.
func (n *Node) GetBlockTemplate(rpcmodel.GetBlockTemplateCmd) (*rpcmodel.BlockTemplateResult, error) {
	var tpl *mining.Template
	if n.miner != nil {
		tpl = n.miner.CurrentTemplate()
	}
	if tpl == nil {
		if len(n.cfg.MinerPublicKey) == 0 {
			return nil, errkind.New(errkind.NodeUnavailable, "no miner public key configured to build a template against")
		}
		tpl = mining.BuildTemplate(n.chain, n.pool, n.cfg.Params, n.cfg.MinerPublicKey, n.cfg.MinerCoinbase)
	}
	return &rpcmodel.BlockTemplateResult{
		Height:        tpl.Height,
		PreviousHash:  tpl.ParentHash.String(),
		Bits:          tpl.Target,
		CurTime:       tpl.Block.Header.Timestamp,
		CoinbaseValue: tpl.Block.Coinbase().Outputs[0].Amount,
		Transactions:  tpl.Block.Transactions[1:],
	}, nil
}

// SubmitBlock implements submitblock: a fully assembled, nonce-filled
// block is run through the same ProcessBlock path as a network-received
// block, so a submitted block earns its place on the chain through the
// ordinary validation/apply pipeline.
func (n *Node) SubmitBlock(cmd rpcmodel.SubmitBlockCmd) *rpcmodel.SubmitBlockResult {
	err := n.chain.ProcessBlock(cmd.Block, uint64(time.Now().Unix()))
	if err != nil {
		return &rpcmodel.SubmitBlockResult{Accepted: false, RejectReason: err.Error()}
	}
	n.AnnounceBlock(cmd.Block)
	return &rpcmodel.SubmitBlockResult{Accepted: true}
}

// GetMiningInfo implements getmininginfo.
func (n *Node) GetMiningInfo() *rpcmodel.MiningInfo {
	info := &rpcmodel.MiningInfo{
		Height:     uint64(n.chain.TipHeight()),
		Difficulty: consensus.Difficulty(n.chain.RequiredDifficulty(), n.cfg.Params),
	}
	if n.miner != nil {
		info.Mining = n.miner.Running()
		info.Workers = n.miner.Workers()
		info.LocalHashPS = n.miner.Hashrate()
	}
	return info
}

// EstimateFee implements estimatefee(tx_size_hint): the pool's current
// minimum accepted fee rate, a floor rather than a market-responsive
// estimate. tx_size_hint does not change the per-byte rate returned.
func (n *Node) EstimateFee(rpcmodel.EstimateFeeCmd) *rpcmodel.EstimateFeeResult {
	return &rpcmodel.EstimateFeeResult{SatPerByte: uint64(n.pool.MinFeeRate())}
}

// GetMempoolInfo implements getmempoolinfo.
func (n *Node) GetMempoolInfo() *rpcmodel.MempoolInfo {
	return &rpcmodel.MempoolInfo{
		Count:      n.pool.Count(),
		Bytes:      uint64(n.pool.TotalBytes()),
		MinFeeRate: uint64(n.pool.MinFeeRate()),
	}
}

// CreateTransactionRPC implements the create_transaction wallet-send
// method, wrapping Node.CreateTransaction with the rpcmodel request/
// result shape.
func (n *Node) CreateTransactionRPC(cmd rpcmodel.CreateTransactionCmd) (*rpcmodel.CreateTransactionResult, error) {
	tx, err := n.CreateTransaction(cmd.WalletID, cmd.From, cmd.To, cmd.Amount, cmd.FeeRate)
	if err != nil {
		return nil, err
	}
	var inputTotal uint64
	for _, in := range tx.Inputs {
		if u, ok := n.utxos.Get(in.PreviousOutpoint); ok {
			inputTotal += u.Amount
		}
	}
	var outputTotal uint64
	for _, out := range tx.Outputs {
		outputTotal += out.Amount
	}
	return &rpcmodel.CreateTransactionResult{
		TxID:        tx.TxID().String(),
		Unsigned:    tx,
		ReservedFee: inputTotal - outputTotal,
	}, nil
}

// SignTransactionRPC implements sign_transaction.
func (n *Node) SignTransactionRPC(cmd rpcmodel.SignTransactionCmd) (*rpcmodel.SignTransactionResult, error) {
	tx, err := n.SignTransaction(cmd.TxID, cmd.Password)
	if err != nil {
		return nil, err
	}
	return &rpcmodel.SignTransactionResult{TxID: cmd.TxID, Signed: tx}, nil
}

// BroadcastTransactionRPC implements broadcast_transaction.
func (n *Node) BroadcastTransactionRPC(cmd rpcmodel.BroadcastTransactionCmd) (*rpcmodel.BroadcastTransactionResult, error) {
	if err := n.BroadcastTransaction(cmd.TxID); err != nil {
		return nil, err
	}
	return &rpcmodel.BroadcastTransactionResult{TxID: cmd.TxID}, nil
}

// CancelTransactionRPC implements cancel_transaction.
func (n *Node) CancelTransactionRPC(cmd rpcmodel.CancelTransactionCmd) (*rpcmodel.CancelTransactionResult, error) {
	if err := n.CancelTransaction(cmd.TxID); err != nil {
		return nil, err
	}
	return &rpcmodel.CancelTransactionResult{Released: true}, nil
}

func (n *Node) announceTx(txid chainhash.Hash) {
	if n.p2p == nil {
		return
	}
	n.p2p.Broadcast(&wire.MsgInv{
		InvList: []wire.InvVect{{Type: wire.InvTypeTx, Hash: txid}},
	})
}
