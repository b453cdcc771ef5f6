// This program is a simple wallet for the ledger.
package main

import (
	"github.com/ardanlabs/powledger/app/wallet/cli/cmd"
)

func main() {
	cmd.Execute()
}
