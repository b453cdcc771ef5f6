// Package commands contains the functionality for the admin tool.
package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Balances writes the balance of every account in the stored chain, or only
// the specified account.
func Balances(w io.Writer, strg database.Storage, account string) error {
	blocks, err := database.ReadChain(strg)
	if err != nil {
		return err
	}

	if len(blocks) == 0 {
		return fmt.Errorf("no blocks in storage")
	}

	fmt.Fprintf(w, "LatestBlockHash: %s\n\n", blocks[len(blocks)-1].Hash)

	if account != "" {
		accountID, err := database.ToAccountID(account)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Account: %s  Balance: %d\n", accountID, database.Balance(blocks, accountID))
		return nil
	}

	bals := database.Accounts(blocks)

	accountIDs := make([]database.AccountID, 0, len(bals))
	for accountID := range bals {
		accountIDs = append(accountIDs, accountID)
	}
	sort.Slice(accountIDs, func(i, j int) bool { return accountIDs[i] < accountIDs[j] })

	for _, accountID := range accountIDs {
		fmt.Fprintf(w, "Account: %s  Balance: %d\n", accountID, bals[accountID])
	}

	return nil
}
