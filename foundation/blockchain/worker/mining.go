package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case beneficiaryID := <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation(beneficiaryID)
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines the pending pool into a new block and shares the
// block with the connected peers.
func (w *Worker) runMiningOperation(beneficiaryID database.AccountID) {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Mining is only cancelled when the worker shuts down.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-w.shut:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
			cancel()
		case <-done:
		}
	}()

	t := time.Now()
	block, err := w.state.MinePendingBlock(ctx, beneficiaryID)
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	if err != nil {
		switch {
		case errors.Is(err, state.ErrChainChanged):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: %s", err)
			w.signalRemaining()
		case ctx.Err() != nil:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return
	}

	// WOW, we mined a block. Share the new block with the network.
	if w.replicator != nil {
		n := w.replicator.BroadcastBlock(block)
		w.evHandler("worker: runMiningOperation: MINING: block shared: blk[%d] peers[%d]", block.Index, n)
	}

	w.signalRemaining()
}

// signalRemaining starts another mining operation for the node's miner when
// auto mining is on and transactions were admitted while the last block was
// mined.
func (w *Worker) signalRemaining() {
	minerID := w.state.RetrieveMinerAccountID()
	if !w.state.IsAutoMine() || minerID == "" || w.isShutdown() {
		return
	}

	if length := w.state.QueryMempoolLength(); length > 0 {
		w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: Txs[%d]", length)
		w.SignalStartMining(minerID)
	}
}
