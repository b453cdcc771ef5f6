package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type accountInfo struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

type accounts struct {
	LatestBlock string        `json:"latestBlock"`
	Uncommitted int           `json:"uncommitted"`
	Accounts    []accountInfo `json:"accounts"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance from the committed chain.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	_, accountID, err := loadAccount()
	if err != nil {
		return err
	}

	var acts accounts
	if err := get(fmt.Sprintf("%s/v1/accounts/list/%s", nodeURL, accountID), &acts); err != nil {
		return err
	}

	fmt.Println("For Account:", accountID)
	if len(acts.Accounts) > 0 {
		fmt.Println(acts.Accounts[0].Balance)
	}
	return nil
}
