// Package rpcmodel defines the request/result structs for BTPC's
// transport-agnostic RPC method set (spec.md §6). These are the typed
// trait spec.md §9 calls for in place of the source stack's
// inter-process HTTP/JSON loopback between node, miner and wallet
// binaries: a single process's components call these directly, with
// any network transport (JSON-RPC over HTTP, a Unix socket) layered on
// top as an opt-in shim that just marshals these same structs.
// Grounded on btcjson's per-method result-struct idiom
// (dagsvrcmds.go's one-struct-per-command, `json:` field tags, doc
// comment naming the wire method).
package rpcmodel

import "github.com/Shion-Kamoto/BTPC-sub008/domain"

// BlockchainInfo is the result of getblockchaininfo.
type BlockchainInfo struct {
	Height          uint64  `json:"height"`
	BestHash        string  `json:"best_hash"`
	Difficulty      float64 `json:"difficulty"`
	Network         string  `json:"network"`
	SyncPercentage  float64 `json:"sync_percentage"`
}

// GetBlockCmd is getblock(hash)'s request.
type GetBlockCmd struct {
	Hash string `json:"hash"`
}

// BlockResult is getblock's result: the block plus derived metadata a
// caller would otherwise compute itself.
type BlockResult struct {
	Hash          string   `json:"hash"`
	Height        uint64   `json:"height"`
	Confirmations uint64   `json:"confirmations"`
	Block         *domain.Block `json:"block"`
}

// GetBlockHeaderCmd is getblockheader(hash)'s request.
type GetBlockHeaderCmd struct {
	Hash string `json:"hash"`
}

// BlockHeaderResult is getblockheader's result.
type BlockHeaderResult struct {
	Hash          string             `json:"hash"`
	Height        uint64             `json:"height"`
	Confirmations uint64             `json:"confirmations"`
	Header        *domain.BlockHeader `json:"header"`
}

// GetBlockHashCmd is getblockhash(height)'s request.
type GetBlockHashCmd struct {
	Height uint64 `json:"height"`
}

// BlockHashResult is getblockhash's result.
type BlockHashResult struct {
	Hash string `json:"hash"`
}

// BlockCountResult is getblockcount's result.
type BlockCountResult struct {
	Height uint64 `json:"height"`
}

// GetTransactionCmd is gettransaction(txid)'s request.
type GetTransactionCmd struct {
	TxID string `json:"txid"`
}

// TransactionResult is gettransaction's result.
type TransactionResult struct {
	TxID          string               `json:"txid"`
	Confirmations uint64               `json:"confirmations"`
	BlockHash     string               `json:"block_hash,omitempty"`
	InMempool     bool                 `json:"in_mempool"`
	Transaction   *domain.Transaction  `json:"transaction"`
}

// SendRawTransactionCmd is sendrawtransaction(hex)'s request.
type SendRawTransactionCmd struct {
	HexTx string `json:"hex_tx"`
}

// SendRawTransactionResult is sendrawtransaction's result.
type SendRawTransactionResult struct {
	TxID string `json:"txid"`
}

// ValidateTransactionCmd is validatetransaction(hex)'s request.
type ValidateTransactionCmd struct {
	HexTx string `json:"hex_tx"`
}

// ValidateTransactionResult is validatetransaction's result.
type ValidateTransactionResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// NetworkInfo is the result of getnetworkinfo.
type NetworkInfo struct {
	Network         string `json:"network"`
	ProtocolVersion uint32 `json:"protocol_version"`
	ForkID          uint8  `json:"fork_id"`
	PeerCount       int    `json:"peer_count"`
}

// PeerInfo is one entry of getpeerinfo's result array.
type PeerInfo struct {
	Addr          string `json:"addr"`
	Inbound       bool   `json:"inbound"`
	StartHeight   uint32 `json:"start_height"`
	UserAgent     string `json:"user_agent"`
	ConnectedSince int64 `json:"connected_since"`
}

// SyncInfo is the result of getsyncinfo.
type SyncInfo struct {
	Height          uint64  `json:"height"`
	HeaderHeight    uint64  `json:"header_height"`
	SyncPercentage  float64 `json:"sync_percentage"`
	Syncing         bool    `json:"syncing"`
}

// GetBlockTemplateCmd is getblocktemplate's request. LongPollID is
// reserved for a future long-poll transport shim; the in-process trait
// ignores it and always returns the current template.
type GetBlockTemplateCmd struct {
	LongPollID string `json:"long_poll_id,omitempty"`
}

// BlockTemplateResult is getblocktemplate's result: enough of the
// candidate header and coinbase for an external miner to search nonces
// and reconstruct the full block to submit back via submitblock.
type BlockTemplateResult struct {
	Height        uint64              `json:"height"`
	PreviousHash  string              `json:"previous_hash"`
	Bits          uint32              `json:"bits"`
	CurTime       uint64              `json:"cur_time"`
	CoinbaseValue uint64              `json:"coinbase_value"`
	Transactions  []*domain.Transaction `json:"transactions"`
}

// SubmitBlockCmd is submitblock's request: a fully assembled block with
// its nonce already filled in by a miner.
type SubmitBlockCmd struct {
	Block *domain.Block `json:"block"`
}

// SubmitBlockResult is submitblock's result. RejectReason is empty on
// success.
type SubmitBlockResult struct {
	Accepted     bool   `json:"accepted"`
	RejectReason string `json:"reject_reason,omitempty"`
}

// MiningInfo is the result of getmininginfo.
type MiningInfo struct {
	Height         uint64  `json:"height"`
	Difficulty     float64 `json:"difficulty"`
	NetworkHashPS  float64 `json:"network_hash_ps"`
	LocalHashPS    float64 `json:"local_hash_ps"`
	Mining         bool    `json:"mining"`
	Workers        int     `json:"workers"`
}

// EstimateFeeCmd is estimatefee(tx_size_hint)'s request.
type EstimateFeeCmd struct {
	TxSizeHint uint32 `json:"tx_size_hint"`
}

// EstimateFeeResult is estimatefee's result, in satoshis per byte.
type EstimateFeeResult struct {
	SatPerByte uint64 `json:"sat_per_byte"`
}

// MempoolInfo is the result of getmempoolinfo.
type MempoolInfo struct {
	Count      int     `json:"count"`
	Bytes      uint64  `json:"bytes"`
	MinFeeRate uint64  `json:"min_fee_rate"`
}

// CreateTransactionCmd is the wallet-send create_transaction request.
type CreateTransactionCmd struct {
	WalletID string `json:"wallet_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   uint64 `json:"amount"`
	FeeRate  uint64 `json:"fee_rate"`
}

// CreateTransactionResult is create_transaction's result: an unsigned,
// UTXO-reserved transaction awaiting sign_transaction.
type CreateTransactionResult struct {
	TxID        string `json:"tx_id"`
	Unsigned    *domain.Transaction `json:"unsigned"`
	ReservedFee uint64 `json:"reserved_fee"`
}

// SignTransactionCmd is the wallet-send sign_transaction request.
type SignTransactionCmd struct {
	TxID     string `json:"tx_id"`
	Password string `json:"password"`
}

// SignTransactionResult is sign_transaction's result.
type SignTransactionResult struct {
	TxID   string              `json:"tx_id"`
	Signed *domain.Transaction `json:"signed"`
}

// BroadcastTransactionCmd is the wallet-send broadcast_transaction
// request.
type BroadcastTransactionCmd struct {
	TxID string `json:"tx_id"`
}

// BroadcastTransactionResult is broadcast_transaction's result.
type BroadcastTransactionResult struct {
	TxID string `json:"tx_id"`
}

// CancelTransactionCmd is the wallet-send cancel_transaction request:
// releases the UTXO reservation made by create_transaction without
// broadcasting.
type CancelTransactionCmd struct {
	TxID string `json:"tx_id"`
}

// CancelTransactionResult is cancel_transaction's result.
type CancelTransactionResult struct {
	Released bool `json:"released"`
}
