package worker

import (
	"context"
	"time"
)

// dialTimeout bounds a single attempt to connect to a peer.
const dialTimeout = 5 * time.Second

// peerOperations keeps the node connected to its configured peers.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	// Connect right away instead of waiting for the first tick.
	w.runPeersOperation()

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation dials the configured peers that are not connected and
// reports the network status.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	if w.replicator == nil {
		return
	}

	for _, peer := range w.knownPeers.Copy(w.host) {
		if w.isShutdown() {
			return
		}

		if w.replicator.IsConnected(peer.Host) {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		err := w.replicator.Connect(ctx, peer.Host)
		cancel()

		if err != nil {
			w.evHandler("worker: runPeersOperation: connect: %s: ERROR: %s", peer.Host, err)
			continue
		}

		w.evHandler("worker: runPeersOperation: connect: %s: connected", peer.Host)
	}

	status := w.replicator.Status()
	w.evHandler("worker: runPeersOperation: status: known[%d] peers[%d] blocks[%d] pending[%d] tip[%s]",
		w.knownPeers.Len(), status.ConnectedPeers, status.ChainLength, status.PendingTransactions, status.LatestBlockHash)
}
