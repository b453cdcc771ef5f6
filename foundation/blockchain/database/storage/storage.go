// Package storage selects the storage implementation a node persists its
// chain and pending pool with.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/boltdb"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
)

// Set of supported storage kinds.
const (
	KindDisk   = "disk"
	KindBolt   = "bolt"
	KindMemory = "memory"
)

// boltFile is the name of the database file inside the db path.
const boltFile = "ledger.db"

// Open constructs the storage of the specified kind rooted at dbPath.
func Open(kind string, dbPath string) (database.Storage, error) {
	switch kind {
	case KindDisk:
		return disk.New(dbPath)

	case KindBolt:
		if err := os.MkdirAll(dbPath, 0755); err != nil {
			return nil, err
		}
		return boltdb.New(filepath.Join(dbPath, boltFile))

	case KindMemory:
		return memory.New(), nil
	}

	return nil, fmt.Errorf("unknown storage kind %q", kind)
}
