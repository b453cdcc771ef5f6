// Package database handles the ledger data types, the rules to validate
// them and the lower level support for persisting the chain and the pending
// pool.
package database

import (
	"fmt"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the chain and the
// pending pool.
//
// Replace swaps the stored chain for the specified blocks. Either every block
// is stored or the previously stored chain is kept.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Replace(blocks []BlockData) error
	WritePending(txs []TxData) error
	ReadPending() ([]TxData, error)
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks. Next returns an
// error once the end of the chain is reached and Done reports true.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// ReadChain reads every block from storage starting with genesis.
func ReadChain(storage Storage) ([]Block, error) {
	var blocks []Block

	iter := storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		if block.Index != uint64(len(blocks)) {
			return nil, fmt.Errorf("blk[%d]: out of order, expected blk[%d]", block.Index, len(blocks))
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}

// WriteChain replaces the chain in storage with the specified blocks. On
// failure the previously stored chain is left in place.
func WriteChain(storage Storage, blocks []Block) error {
	if err := storage.Replace(NewChainData(blocks)); err != nil {
		return fmt.Errorf("replace chain: %w", err)
	}

	return nil
}

// ReadPending reads the pending pool from storage.
func ReadPending(storage Storage) ([]Tx, error) {
	data, err := storage.ReadPending()
	if err != nil {
		return nil, err
	}

	return ToPending(data)
}

// WritePending replaces the pending pool in storage.
func WritePending(storage Storage, txs []Tx) error {
	return storage.WritePending(NewPendingData(txs))
}
