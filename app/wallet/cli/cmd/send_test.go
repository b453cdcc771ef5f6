package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

func Test_Send(t *testing.T) {
	privateKey, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("converting key: %v", err)
	}
	from := database.PublicKeyToAccountID(privateKey.PublicKey)

	other, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	to := database.PublicKeyToAccountID(other.PublicKey)

	t.Log("Given the need to submit signed transactions to a node.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the node accepts the transaction.", testID)
		{
			var received database.Tx
			h := func(w http.ResponseWriter, r *http.Request) {
				var td database.TxData
				json.NewDecoder(r.Body).Decode(&td)

				tx, err := database.ToTx(td)
				if err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				received = tx

				json.NewEncoder(w).Encode(map[string]string{"hash": tx.CalculateHash()})
			}
			srv := httptest.NewServer(http.HandlerFunc(h))
			defer srv.Close()

			hash, err := sendWithDetails(srv.URL, privateKey, from, to, 25)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to send.", success, testID)

			if valid, err := received.IsValid(); !valid || err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould send a validly signed transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould send a validly signed transaction.", success, testID)

			if hash != received.CalculateHash() || received.Amount != 25 || received.ToAddress != to {
				t.Fatalf("\t%s\tTest %d:\tShould send the requested transfer.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould send the requested transfer.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the node rejects the transaction.", testID)
		{
			h := func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				json.NewEncoder(w).Encode(errs.Response{Error: "not enough balance"})
			}
			srv := httptest.NewServer(http.HandlerFunc(h))
			defer srv.Close()

			_, err := sendWithDetails(srv.URL, privateKey, from, to, 25)
			if err == nil || err.Error() != "not enough balance" {
				t.Fatalf("\t%s\tTest %d:\tShould report the node's error, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report the node's error.", success, testID)
		}
	}
}
