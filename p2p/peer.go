package p2p

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shion-Kamoto/BTPC-sub008/chain"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/eventbus"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
	"github.com/Shion-Kamoto/BTPC-sub008/p2p/wire"
)

// Handshake and liveness timing, per spec.md §4.8.
const (
	HandshakeTimeout = 15 * time.Second
	PingInterval     = 120 * time.Second
	PongTimeout      = 20 * time.Second

	// outQueueDepth bounds a peer's outbound message backlog. A peer
	// that cannot keep up is disconnected rather than let the queue
	// grow without bound.
	outQueueDepth = 256
)

// Peer manages one connection to a remote node: the version/verack
// handshake, ping/pong liveness, and sequential inbound message
// processing dispatched to a Manager.
type Peer struct {
	conn    net.Conn
	addr    net.Addr
	inbound bool
	params  *netparams.Params

	manager *Manager

	outQueue chan wire.Message
	quit     chan struct{}
	wg       sync.WaitGroup

	handshakeDone int32 // atomic bool

	lastPingNonce uint64
	lastPingSent  time.Time
	lastPongAt    time.Time

	userAgent   string
	startHeight uint32
	connectedAt time.Time
}

func newPeer(conn net.Conn, inbound bool, params *netparams.Params, manager *Manager) *Peer {
	return &Peer{
		conn:        conn,
		addr:        conn.RemoteAddr(),
		inbound:     inbound,
		params:      params,
		manager:     manager,
		outQueue:    make(chan wire.Message, outQueueDepth),
		quit:        make(chan struct{}),
		connectedAt: time.Now(),
	}
}

// Addr returns the peer's remote address string.
func (p *Peer) Addr() string { return p.addr.String() }

// Inbound reports whether the connection was accepted rather than
// dialed.
func (p *Peer) Inbound() bool { return p.inbound }

// UserAgent returns the peer's self-reported user agent, empty before
// the handshake completes.
func (p *Peer) UserAgent() string { return p.userAgent }

// StartHeight returns the peer's chain height as of its version
// message.
func (p *Peer) StartHeight() uint32 { return p.startHeight }

// ConnectedAt returns when the connection was accepted or dialed.
func (p *Peer) ConnectedAt() time.Time { return p.connectedAt }

// queueMessage enqueues msg for the writer goroutine, dropping the
// connection if the peer's outbound backlog is already full.
func (p *Peer) queueMessage(msg wire.Message) {
	select {
	case p.outQueue <- msg:
	default:
		logger.P2PLog.Warnf("peer %s outbound queue full, disconnecting", p.Addr())
		p.Disconnect("outbound queue full")
	}
}

// Disconnect closes the peer's connection and stops its goroutines. It
// is safe to call more than once.
func (p *Peer) Disconnect(reason string) {
	select {
	case <-p.quit:
		return
	default:
		close(p.quit)
	}
	p.conn.Close()
	p.manager.removePeer(p, reason)
}

// run drives the handshake then the read/write pump loops until the
// connection closes. Blocks until Disconnect or an I/O error.
func (p *Peer) run() {
	if err := p.handshake(); err != nil {
		logger.P2PLog.Debugf("peer %s handshake failed: %v", p.Addr(), err)
		p.Disconnect("handshake failed")
		return
	}

	p.wg.Add(2)
	go p.writeLoop()
	go p.pingLoop()

	p.readLoop()
	p.wg.Wait()
}

func (p *Peer) handshake() error {
	p.conn.SetDeadline(time.Now().Add(HandshakeTimeout))
	defer p.conn.SetDeadline(time.Time{})

	local := wire.NetAddress{}
	remote := netAddressFromAddr(p.addr)

	version := &wire.MsgVersion{
		ProtocolVersion: wire.ProtocolVersion,
		Services:        0,
		Timestamp:       uint64(time.Now().Unix()),
		AddrMe:          local,
		AddrYou:         remote,
		Nonce:           p.manager.nonce,
		UserAgent:       "/btpc:0.1.0/",
		StartHeight:     p.manager.chain.TipHeight(),
		ForkID:          uint8(p.params.ForkID),
	}

	if !p.inbound {
		if _, err := wire.WriteMessage(p.conn, version, p.params.Magic); err != nil {
			return err
		}
	}

	msg, err := wire.ReadMessage(p.conn, p.params.Magic)
	if err != nil {
		return err
	}
	remoteVersion, ok := msg.(*wire.MsgVersion)
	if !ok {
		return fmt.Errorf("expected version message, got %s", msg.Command())
	}
	if remoteVersion.ForkID != uint8(p.params.ForkID) {
		return fmt.Errorf("peer fork ID %d does not match ours %d", remoteVersion.ForkID, p.params.ForkID)
	}
	if remoteVersion.ProtocolVersion < wire.ProtocolVersion {
		return fmt.Errorf("peer protocol version %d too old", remoteVersion.ProtocolVersion)
	}
	p.userAgent = remoteVersion.UserAgent
	p.startHeight = remoteVersion.StartHeight

	if p.inbound {
		if _, err := wire.WriteMessage(p.conn, version, p.params.Magic); err != nil {
			return err
		}
	}

	if _, err := wire.WriteMessage(p.conn, &wire.MsgVerAck{}, p.params.Magic); err != nil {
		return err
	}
	ack, err := wire.ReadMessage(p.conn, p.params.Magic)
	if err != nil {
		return err
	}
	if _, ok := ack.(*wire.MsgVerAck); !ok {
		return fmt.Errorf("expected verack, got %s", ack.Command())
	}

	atomic.StoreInt32(&p.handshakeDone, 1)
	p.manager.bus.Publish(eventbus.EventPeerConnected, &eventbus.PeerEvent{
		Addr: p.Addr(), Inbound: p.inbound,
	})
	return nil
}

// netAddressFromAddr builds a wire.NetAddress from a net.Addr, used to
// populate the version handshake's AddrMe/AddrYou fields.
func netAddressFromAddr(addr net.Addr) wire.NetAddress {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	ip := net.ParseIP(host)
	var na wire.NetAddress
	na.Timestamp = uint64(time.Now().Unix())
	if ip != nil {
		copy(na.IP[:], ip.To16())
	}
	var port uint16
	fmt.Sscanf(portStr, "%d", &port)
	na.Port = port
	return na
}

func (p *Peer) writeLoop() {
	defer p.wg.Done()
	for {
		select {
		case msg := <-p.outQueue:
			if _, err := wire.WriteMessage(p.conn, msg, p.params.Magic); err != nil {
				logger.P2PLog.Debugf("peer %s write error: %v", p.Addr(), err)
				p.Disconnect("write error")
				return
			}
		case <-p.quit:
			return
		}
	}
}

func (p *Peer) pingLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.lastPingNonce++
			p.lastPingSent = time.Now()
			p.queueMessage(&wire.MsgPing{Nonce: p.lastPingNonce})
			if time.Since(p.lastPongAt) > PingInterval+PongTimeout && !p.lastPongAt.IsZero() {
				logger.P2PLog.Warnf("peer %s timed out (no pong)", p.Addr())
				p.Disconnect("pong timeout")
				return
			}
		case <-p.quit:
			return
		}
	}
}

// readLoop sequentially reads and dispatches every inbound message for
// the connection's lifetime, per spec.md §4.8 ("per-peer sequential
// message processing").
func (p *Peer) readLoop() {
	for {
		msg, err := wire.ReadMessage(p.conn, p.params.Magic)
		if err != nil {
			if err != io.EOF {
				logger.P2PLog.Debugf("peer %s read error: %v", p.Addr(), err)
				p.manager.addrMgr.Misbehaved(p.Addr(), ProtocolViolationPenalty, err.Error())
			}
			p.Disconnect("read error")
			return
		}
		p.dispatch(msg)
	}
}

func (p *Peer) dispatch(msg wire.Message) {
	switch m := msg.(type) {
	case *wire.MsgPing:
		p.queueMessage(&wire.MsgPong{Nonce: m.Nonce})
	case *wire.MsgPong:
		p.lastPongAt = time.Now()
	case *wire.MsgGetAddr:
		addrs := p.manager.addrMgr.Best(wire.MaxAddrPerMsg)
		list := make([]*wire.NetAddress, 0, len(addrs))
		for _, a := range addrs {
			na := netAddressFromAddr(stringAddr(a))
			list = append(list, &na)
		}
		p.queueMessage(&wire.MsgAddr{AddrList: list})
	case *wire.MsgAddr:
		for _, a := range m.AddrList {
			ip := net.IP(a.IP[:])
			p.manager.addrMgr.AddOrTouch(net.JoinHostPort(ip.String(), fmt.Sprint(a.Port)))
		}
	case *wire.MsgGetHeaders:
		headers := p.manager.chain.LocateHeaders(chain.BlockLocator(m.BlockLocatorHashes), m.HashStop, wire.MaxHeadersPerMsg)
		ptrs := make([]*domain.BlockHeader, len(headers))
		for i := range headers {
			ptrs[i] = &headers[i]
		}
		p.queueMessage(&wire.MsgHeaders{Headers: ptrs})
	case *wire.MsgHeaders:
		p.manager.onHeaders(p, m.Headers)
	case *wire.MsgGetBlocks:
		p.manager.onGetBlocks(p, m)
	case *wire.MsgInv:
		p.manager.onInv(p, m)
	case *wire.MsgGetData:
		p.manager.onGetData(p, m)
	case *wire.MsgBlock:
		p.manager.onBlock(p, m.Block)
	case *wire.MsgTx:
		p.manager.onTx(p, m.Tx)
	case *wire.MsgReject:
		logger.P2PLog.Debugf("peer %s rejected %s: %s", p.Addr(), m.Message, m.Reason)
	default:
		logger.P2PLog.Debugf("peer %s sent unhandled command %s", p.Addr(), msg.Command())
	}
}

// stringAddr adapts a "host:port" string to net.Addr so the address
// book's plain-string entries can reuse netAddressFromAddr.
type stringAddrT string

func (s stringAddrT) Network() string { return "tcp" }
func (s stringAddrT) String() string  { return string(s) }

func stringAddr(s string) net.Addr { return stringAddrT(s) }
