package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// ErrInvalidChain is returned when a candidate chain fails validation.
var ErrInvalidChain = errors.New("chain is invalid")

// =============================================================================

// ReplaceChain adopts the candidate chain when it is valid and strictly
// longer than the local chain. A chain of equal or shorter length is ignored
// and false is returned with no error. An invalid longer chain is rejected
// with ErrInvalidChain and nothing changes. Pending transactions contained in
// an adopted chain are removed from the pool.
func (s *State) ReplaceChain(candidate []database.Block) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(candidate) <= len(s.chain) {
		s.evHandler("state: ReplaceChain: ignored: candidate[%d] local[%d]", len(candidate), len(s.chain))
		return false, nil
	}

	if !database.ValidateChain(candidate, s.evHandler) {
		s.evHandler("state: ReplaceChain: rejected: candidate[%d] is invalid", len(candidate))
		return false, ErrInvalidChain
	}

	chain := make([]database.Block, len(candidate))
	copy(chain, candidate)

	if err := database.WriteChain(s.storage, chain); err != nil {
		return false, fmt.Errorf("replace chain: %w", err)
	}
	s.chain = chain

	var included []database.Tx
	for _, block := range chain {
		included = append(included, block.Transactions...)
	}
	if n := s.mempool.DeleteIncluded(included); n > 0 {
		s.writePending()
	}

	tip := s.latestBlock()
	s.evHandler("state: ReplaceChain: replaced: blocks[%d] tip[%s]", len(s.chain), tip.Hash)
	s.evHandler("viewer: chain: replaced: blocks[%d] tip[%s]", len(s.chain), tip.Hash)

	return true, nil
}

// ExtendChain appends a block received from a peer when it builds directly on
// the local tip. Otherwise an error wrapping database.ErrBlockNotExtending is
// returned and nothing changes. Pending transactions included in the block
// are removed from the pool.
func (s *State) ExtendChain(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := block.ValidateExtension(s.latestBlock()); err != nil {
		s.evHandler("state: ExtendChain: dropped: blk[%d]: %s", block.Index, err)
		return err
	}

	if err := s.storage.Write(database.NewBlockData(block)); err != nil {
		return fmt.Errorf("write blk[%d]: %w", block.Index, err)
	}
	s.chain = append(s.chain, block)

	if n := s.mempool.DeleteIncluded(block.Transactions); n > 0 {
		s.writePending()
	}

	s.evHandler("state: ExtendChain: added: blk[%d] hash[%s]", block.Index, block.Hash)
	s.evHandler("viewer: block: received: blk[%d] hash[%s] txs[%d]", block.Index, block.Hash, len(block.Transactions))

	return nil
}

// ValidateChain reports if the candidate chain passes every chain rule.
func (s *State) ValidateChain(candidate []database.Block) bool {
	return database.ValidateChain(candidate, s.evHandler)
}

// IsValid reports if the local chain passes every chain rule.
func (s *State) IsValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return database.ValidateChain(s.chain, s.evHandler)
}
