package storage_test

import (
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Open(t *testing.T) {
	t.Log("Given the need to select a storage implementation by name.")
	{
		for testID, kind := range []string{storage.KindDisk, storage.KindBolt, storage.KindMemory} {
			f := func(t *testing.T) {
				strg, err := storage.Open(kind, t.TempDir())
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to open %s storage: %v", failed, testID, kind, err)
				}
				defer strg.Close()

				txs, err := strg.ReadPending()
				if err != nil || len(txs) != 0 {
					t.Fatalf("\t%s\tTest %d:\tShould start with no pending transactions: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to open %s storage.", success, testID, kind)
			}

			t.Run(kind, f)
		}

		testID := 3
		if _, err := storage.Open("sqlite", t.TempDir()); err == nil {
			t.Fatalf("\t%s\tTest %d:\tShould reject an unknown kind.", failed, testID)
		}
		t.Logf("\t%s\tTest %d:\tShould reject an unknown kind.", success, testID)
	}
}
