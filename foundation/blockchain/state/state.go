// Package state is the core API for the ledger and implements all the
// business rules and processing. The State owns the chain and the pending
// pool and serializes every change to them.
package state

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and transaction sharing.
type Worker interface {
	Shutdown()
	SignalStartMining(beneficiaryID database.AccountID)
	SignalShareTx(tx database.Tx)
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	MinerAccountID database.AccountID
	Genesis        genesis.Genesis
	Storage        database.Storage
	AutoMine       bool
	EvHandler      EventHandler
}

// State manages the chain and the pending pool.
type State struct {
	mu       sync.RWMutex
	miningMu sync.Mutex

	minerAccountID database.AccountID
	autoMine       bool
	evHandler      EventHandler

	genesis genesis.Genesis
	chain   []database.Block
	mempool *mempool.Mempool
	storage database.Storage

	Worker Worker
}

// New constructs the ledger, loading the chain and pending pool from
// storage. A genesis block is written when the storage is empty.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	state := State{
		minerAccountID: cfg.MinerAccountID,
		autoMine:       cfg.AutoMine,
		evHandler:      ev,
		genesis:        cfg.Genesis,
		mempool:        mempool.New(),
		storage:        cfg.Storage,
	}

	if err := state.Load(); err != nil {
		return nil, err
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all mining and sharing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Make sure the database file is properly closed.
	return s.storage.Close()
}

// =============================================================================

// Load replaces the in memory chain and pending pool with what is in
// storage. An empty storage is seeded with the genesis block.
func (s *State) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: Load: started")
	defer s.evHandler("state: Load: completed")

	blocks, err := database.ReadChain(s.storage)
	if err != nil {
		return fmt.Errorf("reading chain: %w", err)
	}

	if len(blocks) == 0 {
		genesisBlock := database.NewGenesisBlock(s.genesis)
		if err := s.storage.Write(database.NewBlockData(genesisBlock)); err != nil {
			return fmt.Errorf("writing genesis: %w", err)
		}
		blocks = []database.Block{genesisBlock}
		s.evHandler("state: Load: genesis created: hash[%s]", genesisBlock.Hash)
	}

	if !database.ValidateChain(blocks, s.evHandler) {
		return fmt.Errorf("stored chain: %w", ErrInvalidChain)
	}

	if gb := database.NewGenesisBlock(s.genesis); gb.Hash != blocks[0].Hash {
		s.evHandler("state: Load: WARNING: stored genesis[%s] differs from configured genesis[%s]", blocks[0].Hash, gb.Hash)
	}

	pending, err := database.ReadPending(s.storage)
	if err != nil {
		return fmt.Errorf("reading pending: %w", err)
	}

	s.chain = blocks
	s.mempool.Truncate()
	for _, tx := range pending {
		s.mempool.Upsert(tx)
	}

	s.evHandler("state: Load: blocks[%d] pending[%d]", len(s.chain), s.mempool.Count())

	return nil
}

// Save writes the full chain and pending pool to storage.
func (s *State) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := database.WriteChain(s.storage, s.chain); err != nil {
		return err
	}

	return database.WritePending(s.storage, s.mempool.Copy())
}

// =============================================================================

// latestBlock returns the tip of the chain. The caller must hold the lock.
func (s *State) latestBlock() database.Block {
	return s.chain[len(s.chain)-1]
}

// writePending persists the pending pool. The caller must hold the lock.
func (s *State) writePending() {
	if err := database.WritePending(s.storage, s.mempool.Copy()); err != nil {
		s.evHandler("state: writePending: ERROR: %s", err)
	}
}
