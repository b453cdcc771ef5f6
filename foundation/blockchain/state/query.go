package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// BalanceOf derives the balance of the account from the committed chain.
// Pending transactions are not considered.
func (s *State) BalanceOf(accountID database.AccountID) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return database.Balance(s.chain, accountID)
}

// QueryAccounts returns the balance of every account found in the chain.
func (s *State) QueryAccounts() map[database.AccountID]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return database.Accounts(s.chain)
}

// QueryBlocksByAccount returns the set of blocks by account. If the account
// is empty, all blocks are returned.
func (s *State) QueryBlocksByAccount(accountID database.AccountID) []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := database.BlocksByAccount(s.chain, accountID)

	out := make([]database.Block, len(blocks))
	copy(out, blocks)
	return out
}

// QueryChainLength returns the number of blocks in the chain.
func (s *State) QueryChainLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.chain)
}

// QueryMempoolLength returns the current length of the pending pool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}
