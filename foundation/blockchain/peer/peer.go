// Package peer maintains the peer related information such as the set
// of known peers and the network status of the node.
package peer

import (
	"sync"
)

// Peer represents information about a Node in the network.
type Peer struct {
	Host string `json:"host"`
}

// New constructs a new peer value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// =============================================================================

// Status represents the network status of a node: who it is connected to
// and the size of its chain and pending pool.
type Status struct {
	ConnectedPeers      int    `json:"connected_peers"`
	ChainLength         int    `json:"chain_length"`
	PendingTransactions int    `json:"pending_transactions"`
	LatestBlockHash     string `json:"latest_block_hash"`
	Peers               []Peer `json:"peers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Len returns the number of peers in the set.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns a list of the known peers excluding the specified host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	return peers
}
