package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_NameService(t *testing.T) {
	t.Log("Given the need to resolve account names from key files.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the folder holds two key files and other files.", testID)
		{
			root := t.TempDir()

			ids := make(map[string]database.AccountID)
			for _, name := range []string{"alice", "miner1"} {
				pk, err := crypto.GenerateKey()
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to generate a key: %v", failed, testID, err)
				}
				if err := crypto.SaveECDSA(filepath.Join(root, name+".ecdsa"), pk); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to save the key: %v", failed, testID, err)
				}
				ids[name] = database.PublicKeyToAccountID(pk.PublicKey)
			}

			if err := os.WriteFile(filepath.Join(root, "README"), []byte("keys"), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write a file: %v", failed, testID, err)
			}

			ns, err := nameservice.New(root)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the name service: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to load the name service.", success, testID)

			if n := len(ns.Copy()); n != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould find two accounts, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould find two accounts.", success, testID)

			for name, id := range ids {
				if got := ns.Lookup(id); got != name {
					t.Fatalf("\t%s\tTest %d:\tShould resolve %s, got %s.", failed, testID, name, got)
				}
				if got, exists := ns.AccountID(name); !exists || got != id {
					t.Fatalf("\t%s\tTest %d:\tShould resolve the account for %s.", failed, testID, name)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould resolve names and accounts both ways.", success, testID)

			unknown := database.AccountID("0x00")
			if got := ns.Lookup(unknown); got != string(unknown) {
				t.Fatalf("\t%s\tTest %d:\tShould return the account when there is no name, got %s.", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould return the account when there is no name.", success, testID)
		}
	}
}
