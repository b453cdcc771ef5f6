// Package worker implements mining, peer updates, and transaction sharing for
// the ledger.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/ardanlabs/powledger/foundation/blockchain/replicator"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
)

// peerUpdateInterval represents the interval of dialing the configured peers
// that are not connected and reporting the network status.
const peerUpdateInterval = 10 * time.Second

// =============================================================================

// Config represents the systems the worker drives.
type Config struct {
	State      *state.State
	Replicator *replicator.Replicator
	KnownPeers *peer.PeerSet
	Host       string
	EvHandler  state.EventHandler
}

// Worker manages the POW workflows for the ledger.
type Worker struct {
	state       *state.State
	replicator  *replicator.Replicator
	knownPeers  *peer.PeerSet
	host        string
	wg          sync.WaitGroup
	ticker      *time.Ticker
	shut        chan struct{}
	startMining chan database.AccountID
	txSharing   chan database.Tx
	evHandler   state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(cfg Config) *Worker {
	ev := cfg.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	w := Worker{
		state:       cfg.State,
		replicator:  cfg.Replicator,
		knownPeers:  knownPeers,
		host:        cfg.Host,
		ticker:      time.NewTicker(peerUpdateInterval),
		shut:        make(chan struct{}),
		startMining: make(chan database.AccountID, 1),
		txSharing:   make(chan database.Tx, maxTxShareRequests),
		evHandler:   ev,
	}

	// Register this worker with the state package.
	cfg.State.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.peerOperations,
		w.miningOperations,
		w.shareTxOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work. A block being mined is
// abandoned.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation crediting the beneficiary. If
// there is already a signal pending in the channel, just return since a
// mining operation will start.
func (w *Worker) SignalStartMining(beneficiaryID database.AccountID) {
	select {
	case w.startMining <- beneficiaryID:
		w.evHandler("worker: SignalStartMining: mining signaled: beneficiary[%s]", beneficiaryID)
	default:
		w.evHandler("worker: SignalStartMining: mining already signaled")
	}
}

// SignalShareTx signals a share transaction operation. If
// maxTxShareRequests signals exist in the channel, we won't send these.
func (w *Worker) SignalShareTx(tx database.Tx) {
	select {
	case w.txSharing <- tx:
		w.evHandler("worker: SignalShareTx: share Tx signaled")
	default:
		w.evHandler("worker: SignalShareTx: queue full, transactions won't be shared.")
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
