package replicator

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Set of timing values for the websocket connections.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 20
)

// sendBuffer is the number of messages that can be queued for a peer. When
// the queue is full new messages for that peer are dropped.
const sendBuffer = 256

// =============================================================================

// ConnState represents the lifecycle of a peer connection.
type ConnState int

// Set of connection states. A connection only moves forward.
const (
	ConnConnecting ConnState = iota
	ConnOpen
	ConnClosed
)

// String implements the fmt.Stringer interface.
func (cs ConnState) String() string {
	switch cs {
	case ConnConnecting:
		return "connecting"
	case ConnOpen:
		return "open"
	case ConnClosed:
		return "closed"
	}
	return "unknown"
}

// =============================================================================

// conn represents a websocket connection to a single peer.
type conn struct {
	host     string
	outbound bool
	ws       *websocket.Conn
	send     chan []byte
	done     chan struct{}

	mu    sync.RWMutex
	state ConnState
}

func newConn(host string, outbound bool) *conn {
	return &conn{
		host:     host,
		outbound: outbound,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		state:    ConnConnecting,
	}
}

// State returns the current state of the connection.
func (c *conn) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// open moves a connecting connection to open.
func (c *conn) open(ws *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ConnConnecting {
		return false
	}

	c.ws = ws
	c.state = ConnOpen
	return true
}

// close moves the connection to closed and releases the socket. It reports
// false if the connection was already closed.
func (c *conn) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ConnClosed {
		return false
	}

	c.state = ConnClosed
	close(c.done)
	if c.ws != nil {
		c.ws.Close()
	}

	return true
}

// enqueue queues the data for the writer without blocking. It reports false
// if the connection is not open or the queue is full.
func (c *conn) enqueue(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state != ConnOpen {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
