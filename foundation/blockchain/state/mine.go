package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// ErrChainChanged is returned when the chain tip moved while a block was
// being mined. The mined block no longer links to the tip and is discarded.
var ErrChainChanged = errors.New("chain changed while mining, block discarded")

// =============================================================================

// MinePendingBlock bundles the pending pool and a reward transaction for the
// beneficiary into a new block, performs the proof of work and appends the
// block to the chain. The pool is copied when mining starts, transactions
// admitted while mining stay pending for the next block. The lock is not
// held while mining so peers keep being serviced.
func (s *State) MinePendingBlock(ctx context.Context, beneficiaryID database.AccountID) (database.Block, error) {
	if beneficiaryID == "" {
		return database.Block{}, fmt.Errorf("mining: %w", ErrMissingAddress)
	}

	// Only one mining operation at a time, a second one would build on the
	// same tip and be discarded.
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	s.evHandler("state: MinePendingBlock: MINING: snapshot pending pool")

	s.mu.RLock()
	tip := s.latestBlock()
	pending := s.mempool.Copy()
	s.mu.RUnlock()

	txs := make([]database.Tx, 0, len(pending)+1)
	txs = append(txs, pending...)
	txs = append(txs, database.NewCoinbaseTx(beneficiaryID, s.genesis.MiningReward))

	// A block can't be older than the tip it builds on.
	timestamp := max(time.Now().UnixMilli(), tip.Timestamp)

	block := database.NewBlock(tip.Index+1, timestamp, txs, tip.Hash, s.genesis.Difficulty)

	s.evHandler("state: MinePendingBlock: MINING: perform POW: blk[%d] txs[%d]", block.Index, len(txs))

	if err := block.Mine(ctx, s.evHandler); err != nil {
		return database.Block{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latestBlock().Hash != tip.Hash {
		s.evHandler("state: MinePendingBlock: MINING: tip moved from[%s] to[%s]", tip.Hash, s.latestBlock().Hash)
		return database.Block{}, ErrChainChanged
	}

	if err := s.storage.Write(database.NewBlockData(block)); err != nil {
		return database.Block{}, fmt.Errorf("write blk[%d]: %w", block.Index, err)
	}
	s.chain = append(s.chain, block)

	s.mempool.DeleteIncluded(pending)
	s.writePending()

	s.evHandler("state: MinePendingBlock: MINING: added: blk[%d] hash[%s]", block.Index, block.Hash)
	s.evHandler("viewer: block: mined: blk[%d] hash[%s] txs[%d]", block.Index, block.Hash, len(block.Transactions))

	return block, nil
}
