package cmd

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/spf13/cobra"
)

var privateURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the network status of a node",
	RunE:  statusRun,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&privateURL, "private-url", "n", "http://localhost:9080", "Url of the node's private api.")
}

func statusRun(cmd *cobra.Command, args []string) error {
	var status peer.Status
	if err := get(fmt.Sprintf("%s/v1/node/status", privateURL), &status); err != nil {
		return err
	}

	fmt.Printf("peers[%d] blocks[%d] pending[%d] tip[%s]\n",
		status.ConnectedPeers, status.ChainLength, status.PendingTransactions, status.LatestBlockHash)
	for _, p := range status.Peers {
		fmt.Println("    ", p.Host)
	}
	return nil
}
