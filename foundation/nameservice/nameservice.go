// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the ledger accounts.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	accounts map[database.AccountID]string
	names    map[string]database.AccountID
}

// New constructs a name service with the accounts from the key files found
// under root. A key file is named <name>.ecdsa.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[database.AccountID]string),
		names:    make(map[string]database.AccountID),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("loading %s: %w", fileName, err)
		}

		accountID := database.PublicKeyToAccountID(privateKey.PublicKey)
		name := strings.TrimSuffix(filepath.Base(fileName), ".ecdsa")

		ns.accounts[accountID] = name
		ns.names[name] = accountID

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified account. The account itself is
// returned when there is no name for it.
func (ns *NameService) Lookup(accountID database.AccountID) string {
	name, exists := ns.accounts[accountID]
	if !exists {
		return string(accountID)
	}
	return name
}

// AccountID returns the account for the specified name.
func (ns *NameService) AccountID(name string) (database.AccountID, bool) {
	accountID, exists := ns.names[name]
	return accountID, exists
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[database.AccountID]string {
	cpy := make(map[database.AccountID]string, len(ns.accounts))
	for accountID, name := range ns.accounts {
		cpy[accountID] = name
	}
	return cpy
}
