package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine the pending transactions for this wallet",
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

func mineRun(cmd *cobra.Command, args []string) error {
	_, accountID, err := loadAccount()
	if err != nil {
		return err
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := get(fmt.Sprintf("%s/v1/mining/signal/%s", nodeURL, accountID), &resp); err != nil {
		return err
	}

	fmt.Println(resp.Status)
	return nil
}
