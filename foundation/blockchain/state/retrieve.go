package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveMinerAccountID returns the account credited by this node's mining.
func (s *State) RetrieveMinerAccountID() database.AccountID {
	return s.minerAccountID
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latestBlock()
}

// RetrieveChain returns a copy of the chain starting with genesis.
func (s *State) RetrieveChain() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := make([]database.Block, len(s.chain))
	copy(chain, s.chain)
	return chain
}

// RetrieveMempool returns a copy of the pending pool in insertion order.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// IsAutoMine reports if wallet transactions start a mining operation.
func (s *State) IsAutoMine() bool {
	return s.autoMine
}
