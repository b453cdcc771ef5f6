// Package boltdb implements the ability to read and write blocks to a
// single bolt database file.
package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	bolt "go.etcd.io/bbolt"
)

// Set of bucket and key names used in the database file.
var (
	blocksBucket  = []byte("blocks")
	pendingBucket = []byte("pending")
	pendingKey    = []byte("txs")
)

// errBlockNotFound is returned when the block index does not exist.
var errBlockNotFound = errors.New("block does not exist")

// Bolt represents the serialization implementation for reading and storing
// blocks in a bolt database keyed by block index. This implements the
// database.Storage interface.
type Bolt struct {
	db *bolt.DB
}

// New opens or creates the database file and makes sure the buckets exist.
func New(dbFile string) (*Bolt, error) {
	db, err := bolt.Open(dbFile, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbFile, err)
	}

	f := func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(blocksBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(pendingBucket)
		return err
	}

	if err := db.Update(f); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close closes the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Write stores the block under its index.
func (b *Bolt) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	f := func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).Put(toKey(blockData.Index), data)
	}

	return b.db.Update(f)
}

// GetBlock returns the block stored under the index.
func (b *Bolt) GetBlock(num uint64) (database.BlockData, error) {
	var blockData database.BlockData

	f := func(tx *bolt.Tx) error {
		data := tx.Bucket(blocksBucket).Get(toKey(num))
		if data == nil {
			return errBlockNotFound
		}
		return json.Unmarshal(data, &blockData)
	}

	if err := b.db.View(f); err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (b *Bolt) ForEach() database.Iterator {
	return &boltIterator{storage: b}
}

// Replace swaps every stored block for the specified blocks inside a single
// transaction. The pending pool is untouched.
func (b *Bolt) Replace(blocks []database.BlockData) error {
	f := func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(blocksBucket); err != nil {
			return err
		}

		bucket, err := tx.CreateBucket(blocksBucket)
		if err != nil {
			return err
		}

		for i, blockData := range blocks {
			if blockData.Index != uint64(i) {
				return fmt.Errorf("blk[%d]: out of order, expected blk[%d]", blockData.Index, i)
			}

			data, err := json.Marshal(blockData)
			if err != nil {
				return err
			}

			if err := bucket.Put(toKey(blockData.Index), data); err != nil {
				return err
			}
		}

		return nil
	}

	return b.db.Update(f)
}

// WritePending replaces the pending pool.
func (b *Bolt) WritePending(txs []database.TxData) error {
	if txs == nil {
		txs = []database.TxData{}
	}

	data, err := json.Marshal(txs)
	if err != nil {
		return err
	}

	f := func(tx *bolt.Tx) error {
		return tx.Bucket(pendingBucket).Put(pendingKey, data)
	}

	return b.db.Update(f)
}

// ReadPending returns the pending pool, empty if never written.
func (b *Bolt) ReadPending() ([]database.TxData, error) {
	var txs []database.TxData

	f := func(tx *bolt.Tx) error {
		data := tx.Bucket(pendingBucket).Get(pendingKey)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &txs)
	}

	if err := b.db.View(f); err != nil {
		return nil, err
	}

	return txs, nil
}

// toKey encodes the index big endian so keys sort in chain order.
func toKey(num uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, num)
	return key
}

// =============================================================================

// boltIterator represents the iteration implementation for walking
// through and reading blocks from the database. This implements the
// database Iterator interface.
type boltIterator struct {
	storage *Bolt
	current uint64
	eoc     bool
}

// Next retrieves the next block from the database.
func (bi *boltIterator) Next() (database.BlockData, error) {
	if bi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	blockData, err := bi.storage.GetBlock(bi.current)
	if errors.Is(err, errBlockNotFound) {
		bi.eoc = true
	}
	bi.current++

	return blockData, err
}

// Done returns the end of chain value.
func (bi *boltIterator) Done() bool {
	return bi.eoc
}
