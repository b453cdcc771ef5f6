// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"errors"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory using a slice. This implements the database.Storage
// interface.
type Memory struct {
	mu      sync.RWMutex
	blocks  []database.BlockData
	pending []database.TxData
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified database block and stores it in memory.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if uint64(len(m.blocks)) != blockData.Index {
		return errors.New("block is out of order")
	}

	m.blocks = append(m.blocks, blockData)

	return nil
}

// GetBlock searches the chain to locate and return the contents of
// the specified block by index.
func (m *Memory) GetBlock(num uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num >= uint64(len(m.blocks)) {
		return database.BlockData{}, errors.New("block does not exist")
	}

	return m.blocks[num], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Replace swaps the chain in memory for the specified blocks. Nothing
// changes when the blocks are out of order.
func (m *Memory) Replace(blocks []database.BlockData) error {
	for i, blockData := range blocks {
		if blockData.Index != uint64(i) {
			return errors.New("block is out of order")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = append([]database.BlockData(nil), blocks...)
	return nil
}

// WritePending replaces the pending pool in memory.
func (m *Memory) WritePending(txs []database.TxData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = append([]database.TxData(nil), txs...)
	return nil
}

// ReadPending returns a copy of the pending pool in memory.
func (m *Memory) ReadPending() ([]database.TxData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]database.TxData(nil), m.pending...), nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through and reading blocks in memory. This implements the database
// Iterator interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	blockData, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
	}

	mi.current++

	return blockData, err
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
