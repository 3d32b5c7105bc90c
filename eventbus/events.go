package eventbus

// EventName identifies one of BTPC's named event types, per spec.md
// §4.10. Payload shapes are documented next to each constant; the bus
// itself carries payloads as interface{} since subscribers for
// different event types want different concrete types.
type EventName string

// Transaction lifecycle events. Payload: *TransactionEvent.
const (
	EventTransactionInitiated      EventName = "transaction:initiated"
	EventTransactionValidated      EventName = "transaction:validated"
	EventTransactionSigningStarted EventName = "transaction:signing_started"
	EventTransactionInputSigned    EventName = "transaction:input_signed"
	EventTransactionSigned         EventName = "transaction:signed"
	EventTransactionBroadcast      EventName = "transaction:broadcast"
	EventTransactionMempoolAccept  EventName = "transaction:mempool_accepted"
	EventTransactionConfirmed      EventName = "transaction:confirmed"
	EventTransactionFailed         EventName = "transaction:failed"
	EventTransactionRetry          EventName = "transaction:retry"
)

// UTXO reservation events. Payload: *utxo.ReservationToken (declared in
// package utxo; the event bus itself stays decoupled from utxo's types
// by carrying interface{}, avoiding an import cycle since utxo imports
// eventbus to publish these).
const (
	EventUTXOReserved EventName = "utxo:reserved"
	EventUTXOReleased EventName = "utxo:released"
)

// Mempool events. Payload: *MempoolEvent.
const (
	EventMempoolTransactionAdded   EventName = "mempool:transaction_added"
	EventMempoolTransactionRemoved EventName = "mempool:transaction_removed"
	EventMempoolSizeUpdated        EventName = "mempool:size_updated"
)

// Chain manager events. Payload: *ChainEvent.
const (
	EventBlockchainBlockAdded        EventName = "blockchain:block_added"
	EventBlockchainBlockDisconnected EventName = "blockchain:block_disconnected"
	EventBlockchainStateUpdated      EventName = "blockchain:state_updated"
	EventBlockchainSyncProgress      EventName = "blockchain:sync_progress"
)

// Mining events. Payload: *MiningEvent.
const (
	EventMiningStarted         EventName = "mining:started"
	EventMiningStopped         EventName = "mining:stopped"
	EventMiningHashrateUpdated EventName = "mining:hashrate_updated"
	EventMiningBlockFound      EventName = "mining:block_found"
)

// Node lifecycle events. Payload: *NodeEvent.
const (
	EventNodeInitialized      EventName = "node:initialized"
	EventNodeShutdownStarted  EventName = "node:shutdown_started"
	EventNodeShutdownProgress EventName = "node:shutdown_progress"
	EventNodeShutdownComplete EventName = "node:shutdown_complete"
)

// Peer connection events. Payload: *PeerEvent.
const (
	EventPeerConnected    EventName = "p2p:peer_connected"
	EventPeerDisconnected EventName = "p2p:peer_disconnected"
)

// TransactionEvent is the payload for every transaction:* event.
type TransactionEvent struct {
	TxID    string
	Reason  string // set on failed/retry
	Attempt int    // set on retry
}

// MempoolEvent is the payload for every mempool:* event.
type MempoolEvent struct {
	TxID       string
	EntryCount int
	TotalBytes int64
}

// ChainEvent is the payload for every blockchain:* event.
type ChainEvent struct {
	BlockHash        string
	Height           uint32
	SyncPercentage   float64
	DisconnectedTxID []string
}

// MiningEvent is the payload for every mining:* event.
type MiningEvent struct {
	HashesPerSecond float64
	BlockHash       string
	Height          uint32
}

// NodeEvent is the payload for every node:* event.
type NodeEvent struct {
	Step    string
	Detail  string
	Elapsed float64 // seconds, set on shutdown_progress/complete
}

// PeerEvent is the payload for every p2p:* event.
type PeerEvent struct {
	Addr    string
	Inbound bool
	Reason  string // set on peer_disconnected
}
