package commands

import (
	"fmt"
	"io"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Chain writes every stored block and its transactions.
func Chain(w io.Writer, strg database.Storage) error {
	blocks, err := database.ReadChain(strg)
	if err != nil {
		return err
	}

	for _, block := range blocks {
		fmt.Fprintf(w, "Block: %d  Hash: %s  Prev: %s  Nonce: %d  Mined: %t  Txs: %d\n",
			block.Index, block.Hash, block.PreviousHash, block.Nonce, block.IsMined(), len(block.Transactions))
		for _, tx := range block.Transactions {
			fmt.Fprintf(w, "    %s\n", tx)
		}
	}

	return nil
}

// Pending writes the stored pending transactions.
func Pending(w io.Writer, strg database.Storage) error {
	txs, err := database.ReadPending(strg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Pending: %d\n", len(txs))
	for _, tx := range txs {
		fmt.Fprintf(w, "    %s\n", tx)
	}

	return nil
}

// Validate checks the stored chain against every chain rule.
func Validate(w io.Writer, strg database.Storage, evHandler func(v string, args ...any)) error {
	blocks, err := database.ReadChain(strg)
	if err != nil {
		return err
	}

	if !database.ValidateChain(blocks, evHandler) {
		fmt.Fprintf(w, "Chain of %d blocks is INVALID\n", len(blocks))
		return fmt.Errorf("chain is invalid")
	}

	fmt.Fprintf(w, "Chain of %d blocks is valid\n", len(blocks))
	return nil
}
