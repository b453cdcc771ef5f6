// Package disk implements the ability to read and write blocks to disk
// writing each block to a separate file.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// pendingFile is the name of the file holding the pending pool.
const pendingFile = "pending.json"

// Disk represents the serialization implementation for reading and storing
// blocks in their own separate files on disk. This implements the
// database.Storage interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified database block and stores it on disk in a
// file labeled with the block index.
func (d *Disk) Write(blockData database.BlockData) error {

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(blockData, "", "  ")
	if err != nil {
		return err
	}

	return writeFile(d.getPath(blockData.Index), data)
}

// GetBlock searches the chain on disk to locate and return the
// contents of the specified block by index.
func (d *Disk) GetBlock(num uint64) (database.BlockData, error) {

	// Open the block file for the specified number.
	f, err := os.OpenFile(d.getPath(num), os.O_RDONLY, 0600)
	if err != nil {
		return database.BlockData{}, err
	}
	defer f.Close()

	// Decode the contents of the block.
	var blockData database.BlockData
	if err := json.NewDecoder(f).Decode(&blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("decoding blk[%d]: %w", num, err)
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (d *Disk) ForEach() database.Iterator {
	return &diskIterator{disk: d}
}

// Replace swaps the block files on disk for the specified blocks. Every
// block is written to a staging directory first, so a failed write leaves
// the stored chain untouched. The pending pool is untouched.
func (d *Disk) Replace(blocks []database.BlockData) error {
	staging, err := os.MkdirTemp(d.dbPath, "replace-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	for i, blockData := range blocks {
		if blockData.Index != uint64(i) {
			return fmt.Errorf("blk[%d]: out of order, expected blk[%d]", blockData.Index, i)
		}

		data, err := json.MarshalIndent(blockData, "", "  ")
		if err != nil {
			return err
		}

		if err := os.WriteFile(path.Join(staging, blockName(blockData.Index)), data, 0600); err != nil {
			return err
		}
	}

	// Move the staged blocks in and remove any block beyond the new tip.
	for _, blockData := range blocks {
		name := blockName(blockData.Index)
		if err := os.Rename(path.Join(staging, name), path.Join(d.dbPath, name)); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(d.dbPath)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		num, err := strconv.ParseUint(strings.TrimSuffix(entry.Name(), ".json"), 10, 64)
		if err != nil || num < uint64(len(blocks)) {
			continue
		}

		if err := os.Remove(path.Join(d.dbPath, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// WritePending replaces the pending pool file on disk.
func (d *Disk) WritePending(txs []database.TxData) error {
	if txs == nil {
		txs = []database.TxData{}
	}

	data, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return err
	}

	return writeFile(path.Join(d.dbPath, pendingFile), data)
}

// ReadPending reads the pending pool file from disk. A missing file is an
// empty pool.
func (d *Disk) ReadPending() ([]database.TxData, error) {
	data, err := os.ReadFile(path.Join(d.dbPath, pendingFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var txs []database.TxData
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("decoding pending: %w", err)
	}

	return txs, nil
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(blockNum uint64) string {
	return path.Join(d.dbPath, blockName(blockNum))
}

// blockName forms the file name of the specified block.
func blockName(blockNum uint64) string {
	return strconv.FormatUint(blockNum, 10) + ".json"
}

// writeFile writes the data to a temporary file first and renames it so a
// crash never leaves a partially written file behind.
func writeFile(name string, data []byte) error {
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmp, name)
}

// =============================================================================

// diskIterator represents the iteration implementation for walking
// through and reading blocks on disk. This implements the database
// Iterator interface.
type diskIterator struct {
	disk    *Disk  // Access to the disk storage API.
	current uint64 // Current block number being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from disk.
func (di *diskIterator) Next() (database.BlockData, error) {
	if di.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	blockData, err := di.disk.GetBlock(di.current)
	if errors.Is(err, fs.ErrNotExist) {
		di.eoc = true
	}
	di.current++

	return blockData, err
}

// Done returns the end of chain value.
func (di *diskIterator) Done() bool {
	return di.eoc
}
