package database

import (
	"errors"
	"fmt"
)

// ValidateChain walks every block after genesis and checks the stored hash
// matches the block content, the block links to its predecessor, indexes
// follow the block position, every transaction is valid and timestamps
// never go backwards. Only pass or fail
// is returned, the reason for a failure is sent to the event handler.
func ValidateChain(blocks []Block, evHandler func(v string, args ...any)) bool {
	if err := checkChain(blocks); err != nil {
		evHandler("database: ValidateChain: INVALID: %s", err)
		return false
	}

	return true
}

// checkChain performs the chain validation and reports the first failure.
func checkChain(blocks []Block) error {
	if len(blocks) == 0 {
		return errors.New("chain has no blocks")
	}

	if blocks[0].Index != 0 {
		return fmt.Errorf("blk[%d]: first block must have index 0", blocks[0].Index)
	}

	for i := 1; i < len(blocks); i++ {
		cur, prev := blocks[i], blocks[i-1]

		if cur.Index != uint64(i) {
			return fmt.Errorf("blk[%d]: index doesn't match position[%d]", cur.Index, i)
		}

		if hash := cur.ComputeHash(); hash != cur.Hash {
			return fmt.Errorf("blk[%d]: hash[%s] doesn't match computed hash[%s]", cur.Index, cur.Hash, hash)
		}

		if cur.PreviousHash != prev.Hash {
			return fmt.Errorf("blk[%d]: previous hash[%s] doesn't match hash[%s] of blk[%d]", cur.Index, cur.PreviousHash, prev.Hash, prev.Index)
		}

		if err := cur.validateTransactions(); err != nil {
			return fmt.Errorf("blk[%d]: %w", cur.Index, err)
		}

		if cur.Timestamp < prev.Timestamp {
			return fmt.Errorf("blk[%d]: timestamp[%d] is before timestamp[%d] of blk[%d]", cur.Index, cur.Timestamp, prev.Timestamp, prev.Index)
		}
	}

	return nil
}

// =============================================================================

// Balance derives the balance of the account by walking every transaction
// in the chain. Incoming amounts are added and outgoing amounts subtracted.
func Balance(blocks []Block, account AccountID) int64 {
	var balance int64

	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if tx.FromAddress == account && !tx.IsCoinbase() {
				balance -= int64(tx.Amount)
			}
			if tx.ToAddress == account {
				balance += int64(tx.Amount)
			}
		}
	}

	return balance
}

// Accounts derives the balance of every account found in the chain.
func Accounts(blocks []Block) map[AccountID]int64 {
	accounts := make(map[AccountID]int64)

	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if !tx.IsCoinbase() {
				accounts[tx.FromAddress] -= int64(tx.Amount)
			}
			accounts[tx.ToAddress] += int64(tx.Amount)
		}
	}

	return accounts
}

// BlocksByAccount returns the blocks holding a transaction that involves
// the account. An empty account returns every block.
func BlocksByAccount(blocks []Block, account AccountID) []Block {
	if account == "" {
		return blocks
	}

	var out []Block
	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if tx.FromAddress == account || tx.ToAddress == account {
				out = append(out, block)
				break
			}
		}
	}

	return out
}
