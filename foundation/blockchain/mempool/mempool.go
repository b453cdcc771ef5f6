// Package mempool maintains the pending pool of unconfirmed transactions
// for the ledger.
package mempool

import (
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Mempool represents a cache of transactions organized by their unique key
// (from, to, amount, timestamp). Transactions are kept in the order they
// were added.
type Mempool struct {
	mu   sync.RWMutex
	keys map[string]struct{}
	pool []database.Tx
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{
		keys: make(map[string]struct{}),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Exists reports if a transaction with the same unique key is in the pool.
func (mp *Mempool) Exists(tx database.Tx) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.keys[tx.UniqueKey()]
	return exists
}

// Upsert appends the transaction to the pool if its unique key is not
// already present. It returns the number of transactions in the pool and
// whether the transaction was added.
func (mp *Mempool) Upsert(tx database.Tx) (int, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key := tx.UniqueKey()
	if _, exists := mp.keys[key]; exists {
		return len(mp.pool), false
	}

	mp.keys[key] = struct{}{}
	mp.pool = append(mp.pool, tx)

	return len(mp.pool), true
}

// DeleteIncluded removes every pool transaction whose unique key matches
// one of the specified transactions. It returns the number removed.
func (mp *Mempool) DeleteIncluded(txs []database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	remove := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		key := tx.UniqueKey()
		if _, exists := mp.keys[key]; exists {
			remove[key] = struct{}{}
		}
	}

	if len(remove) == 0 {
		return 0
	}

	pool := make([]database.Tx, 0, len(mp.pool)-len(remove))
	for _, tx := range mp.pool {
		key := tx.UniqueKey()
		if _, exists := remove[key]; exists {
			delete(mp.keys, key)
			continue
		}
		pool = append(pool, tx)
	}
	mp.pool = pool

	return len(remove)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.keys = make(map[string]struct{})
	mp.pool = nil
}

// Copy returns a copy of the pool in insertion order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.Tx, len(mp.pool))
	copy(cpy, mp.pool)
	return cpy
}
