package cmd

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		privateKey, accountID, err := loadAccount()
		if err != nil {
			return err
		}

		toID, err := database.ToAccountID(to)
		if err != nil {
			return fmt.Errorf("to: %w", err)
		}

		hash, err := sendWithDetails(nodeURL, privateKey, accountID, toID, amount)
		if err != nil {
			return err
		}

		fmt.Println(hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account receiving the amount.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
}

func sendWithDetails(url string, privateKey *ecdsa.PrivateKey, from database.AccountID, to database.AccountID, amount uint64) (string, error) {
	tx, err := database.NewTx(from, to, amount).Sign(privateKey)
	if err != nil {
		return "", err
	}

	var resp struct {
		Hash string `json:"hash"`
	}
	if err := post(fmt.Sprintf("%s/v1/tx/submit", url), database.NewTxData(tx), &resp); err != nil {
		return "", err
	}

	return resp.Hash, nil
}
