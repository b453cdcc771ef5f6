package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type txView struct {
	Hash     string `json:"hash"`
	FromName string `json:"fromName"`
	ToName   string `json:"toName"`
	Amount   uint64 `json:"amount"`
	Coinbase bool   `json:"coinbase"`
}

type blockView struct {
	Index        uint64   `json:"index"`
	Hash         string   `json:"hash"`
	PreviousHash string   `json:"previousHash"`
	Nonce        uint64   `json:"nonce"`
	Transactions []txView `json:"transactions"`
}

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the blocks of the node's chain",
	RunE:  chainRun,
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Print the node's pending transactions",
	RunE:  pendingRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(pendingCmd)
}

func chainRun(cmd *cobra.Command, args []string) error {
	var blocks []blockView
	if err := get(fmt.Sprintf("%s/v1/blocks/list", nodeURL), &blocks); err != nil {
		return err
	}

	for _, b := range blocks {
		fmt.Printf("blk[%d] hash[%s] prev[%s] nonce[%d]\n", b.Index, b.Hash, b.PreviousHash, b.Nonce)
		for _, tx := range b.Transactions {
			printTx(tx)
		}
	}
	return nil
}

func pendingRun(cmd *cobra.Command, args []string) error {
	var txs []txView
	if err := get(fmt.Sprintf("%s/v1/tx/uncommitted/list", nodeURL), &txs); err != nil {
		return err
	}

	for _, tx := range txs {
		printTx(tx)
	}
	return nil
}

func printTx(tx txView) {
	from := tx.FromName
	if tx.Coinbase {
		from = "reward"
	}
	fmt.Printf("    %s -> %s: %d (%s)\n", from, tx.ToName, tx.Amount, tx.Hash)
}
