// Package replicator implements the peer to peer protocol that keeps the
// ledger of connected nodes in sync. Peers exchange the full chain when they
// connect, and new transactions and blocks as they happen.
package replicator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/gorilla/websocket"
)

// DefaultPath is the route peers serve the replication websocket on.
const DefaultPath = "/v1/node/p2p"

// ErrShutdown is returned when a connection is attempted after Shutdown.
var ErrShutdown = errors.New("replicator is shut down")

// Ledger represents the behavior required from the local ledger to apply
// what peers send.
type Ledger interface {
	RetrieveChain() []database.Block
	ReplaceChain(candidate []database.Block) (bool, error)
	ExtendChain(block database.Block) error
	HasPending(tx database.Tx) bool
	AdmitTransaction(tx database.Tx) error
	QueryMempoolLength() int
}

// Config represents the configuration required to start replication.
type Config struct {
	Ledger    Ledger
	Path      string
	EvHandler func(v string, args ...any)
}

// Replicator manages the set of peer connections.
type Replicator struct {
	ledger    Ledger
	path      string
	evHandler func(v string, args ...any)
	upgrader  websocket.Upgrader
	dialer    *websocket.Dialer

	mu    sync.RWMutex
	conns map[*conn]struct{}
	shut  bool
	wg    sync.WaitGroup
}

// New constructs a replicator for the ledger.
func New(cfg Config) *Replicator {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}

	return &Replicator{
		ledger:    cfg.Ledger,
		path:      path,
		evHandler: ev,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		conns: make(map[*conn]struct{}),
	}
}

// Shutdown closes every connection and waits for the connection goroutines
// to terminate.
func (r *Replicator) Shutdown() {
	r.evHandler("replicator: shutdown: started")
	defer r.evHandler("replicator: shutdown: completed")

	r.mu.Lock()
	r.shut = true
	conns := make([]*conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		r.closeConn(c)
	}

	r.wg.Wait()
}

// =============================================================================

// Accept upgrades an inbound http request into a peer connection. The
// connection keeps running after Accept returns.
func (r *Replicator) Accept(w http.ResponseWriter, req *http.Request) error {
	c := newConn(req.RemoteAddr, false)

	ws, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		c.close()
		return fmt.Errorf("upgrade: %w", err)
	}

	return r.register(c, ws)
}

// Connect dials the peer at host and starts replicating with it.
func (r *Replicator) Connect(ctx context.Context, host string) error {
	c := newConn(host, true)

	u := url.URL{Scheme: "ws", Host: host, Path: r.path}
	ws, _, err := r.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		c.close()
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}

	return r.register(c, ws)
}

// IsConnected reports if there is an open outbound connection to host.
func (r *Replicator) IsConnected(host string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for c := range r.conns {
		if c.outbound && c.host == host && c.State() == ConnOpen {
			return true
		}
	}

	return false
}

// Peers returns the hosts of the open connections.
func (r *Replicator) Peers() []peer.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peers := make([]peer.Peer, 0, len(r.conns))
	for c := range r.conns {
		if c.State() == ConnOpen {
			peers = append(peers, peer.New(c.host))
		}
	}

	return peers
}

// Status reports the network status of the node.
func (r *Replicator) Status() peer.Status {
	chain := r.ledger.RetrieveChain()
	peers := r.Peers()

	status := peer.Status{
		ConnectedPeers:      len(peers),
		ChainLength:         len(chain),
		PendingTransactions: r.ledger.QueryMempoolLength(),
		Peers:               peers,
	}

	if len(chain) > 0 {
		status.LatestBlockHash = chain[len(chain)-1].Hash
	}

	return status
}

// =============================================================================

// Broadcast sends the message to every open connection. Delivery is best
// effort, a peer with a full queue or a failed socket misses the message and
// nothing is retried. It returns the number of peers the message was queued
// for.
func (r *Replicator) Broadcast(msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		r.evHandler("replicator: Broadcast: ERROR: %s", err)
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var sent int
	for c := range r.conns {
		if !c.enqueue(data) {
			r.evHandler("replicator: Broadcast: %s: peer[%s]: dropped, not open or queue full", msg.Type, c.host)
			continue
		}
		sent++
	}

	r.evHandler("replicator: Broadcast: %s: peers[%d]", msg.Type, sent)

	return sent
}

// BroadcastTransaction shares a transaction with every peer.
func (r *Replicator) BroadcastTransaction(tx database.Tx) int {
	msg, err := NewTransactionMessage(tx)
	if err != nil {
		r.evHandler("replicator: BroadcastTransaction: ERROR: %s", err)
		return 0
	}
	return r.Broadcast(msg)
}

// BroadcastBlock shares a newly mined block with every peer.
func (r *Replicator) BroadcastBlock(block database.Block) int {
	msg, err := NewBlockMessage(block)
	if err != nil {
		r.evHandler("replicator: BroadcastBlock: ERROR: %s", err)
		return 0
	}
	return r.Broadcast(msg)
}

// BroadcastChain shares the full local chain with every peer.
func (r *Replicator) BroadcastChain() int {
	msg, err := NewChainMessage(r.ledger.RetrieveChain())
	if err != nil {
		r.evHandler("replicator: BroadcastChain: ERROR: %s", err)
		return 0
	}
	return r.Broadcast(msg)
}

// RequestChain asks every peer to send its full chain.
func (r *Replicator) RequestChain() int {
	return r.Broadcast(NewRequestChainMessage())
}

// =============================================================================

// register opens the connection, starts its goroutines and pushes the local
// chain to the new peer.
func (r *Replicator) register(c *conn, ws *websocket.Conn) error {
	r.mu.Lock()
	if r.shut {
		r.mu.Unlock()
		ws.Close()
		c.close()
		return ErrShutdown
	}

	c.open(ws)
	r.conns[c] = struct{}{}
	r.wg.Add(2)
	r.mu.Unlock()

	r.evHandler("replicator: register: peer[%s] outbound[%v]: %s", c.host, c.outbound, c.State())
	r.evHandler("viewer: peer: connected: %s", c.host)

	go r.writeLoop(c)
	go r.readLoop(c)

	r.sendChain(c)

	return nil
}

// closeConn closes the connection and removes it from the set.
func (r *Replicator) closeConn(c *conn) {
	if !c.close() {
		return
	}

	r.mu.Lock()
	delete(r.conns, c)
	r.mu.Unlock()

	r.evHandler("replicator: closeConn: peer[%s]: %s", c.host, c.State())
	r.evHandler("viewer: peer: disconnected: %s", c.host)
}

// send queues a message for a single connection.
func (r *Replicator) send(c *conn, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.evHandler("replicator: send: ERROR: %s", err)
		return
	}

	if !c.enqueue(data) {
		r.evHandler("replicator: send: %s: peer[%s]: dropped, not open or queue full", msg.Type, c.host)
	}
}

// sendChain queues the full local chain for a single connection.
func (r *Replicator) sendChain(c *conn) {
	msg, err := NewChainMessage(r.ledger.RetrieveChain())
	if err != nil {
		r.evHandler("replicator: sendChain: ERROR: %s", err)
		return
	}

	r.send(c, msg)
}

// readLoop reads messages from the peer until the connection fails or is
// closed.
func (r *Replicator) readLoop(c *conn) {
	defer r.wg.Done()
	defer r.closeConn(c)

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.State() == ConnOpen && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.evHandler("replicator: readLoop: peer[%s]: ERROR: %s", c.host, err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.evHandler("replicator: readLoop: peer[%s]: malformed message: %s", c.host, err)
			continue
		}

		r.handle(c, msg)
	}
}

// writeLoop owns all data writes to the socket and keeps the connection
// alive with pings.
func (r *Replicator) writeLoop(c *conn) {
	defer r.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				r.evHandler("replicator: writeLoop: peer[%s]: ERROR: %s", c.host, err)
				r.closeConn(c)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				r.closeConn(c)
				return
			}

		case <-c.done:
			return
		}
	}
}
