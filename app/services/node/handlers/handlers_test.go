package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/app/services/node/handlers"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/ardanlabs/powledger/foundation/blockchain/replicator"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/blockchain/worker"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	aliceKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	bobKey   = "aed31b6b5a0ea4ff6a2b0dca14e8a8f6bfb5b0c21ba7bb9ff4c3f4b8b6dc2c1e"
)

// Test owns state for running and shutting down tests.
type Test struct {
	t       *testing.T
	state   *state.State
	public  http.Handler
	private http.Handler
}

func newTest(t *testing.T) *Test {
	noop := func(v string, args ...any) {}

	root := t.TempDir()
	for name, hexKey := range map[string]string{"alice": aliceKey, "bob": bobKey} {
		pk, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			t.Fatalf("converting key: %v", err)
		}
		if err := crypto.SaveECDSA(filepath.Join(root, name+".ecdsa"), pk); err != nil {
			t.Fatalf("saving key: %v", err)
		}
	}

	ns, err := nameservice.New(root)
	if err != nil {
		t.Fatalf("loading name service: %v", err)
	}

	st, err := state.New(state.Config{
		Genesis:   genesis.Default(),
		Storage:   memory.New(),
		EvHandler: noop,
	})
	if err != nil {
		t.Fatalf("constructing state: %v", err)
	}

	rep := replicator.New(replicator.Config{
		Ledger:    st,
		EvHandler: noop,
	})

	worker.Run(worker.Config{
		State:      st,
		Replicator: rep,
		KnownPeers: peer.NewPeerSet(),
		EvHandler:  noop,
	})

	t.Cleanup(func() {
		rep.Shutdown()
		st.Shutdown()
	})

	log := zap.NewNop().Sugar()

	cfg := handlers.MuxConfig{
		Log:        log,
		State:      st,
		Replicator: rep,
		NS:         ns,
		Evts:       events.New("viewer:"),
	}

	return &Test{
		t:       t,
		state:   st,
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
	}
}

func (test *Test) do(h http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			test.t.Fatalf("encoding body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	return w
}

func signedTx(t *testing.T, fromKey string, toKey string, amount uint64) database.TxData {
	from, err := crypto.HexToECDSA(fromKey)
	if err != nil {
		t.Fatalf("converting key: %v", err)
	}
	to, err := crypto.HexToECDSA(toKey)
	if err != nil {
		t.Fatalf("converting key: %v", err)
	}

	fromID := database.PublicKeyToAccountID(from.PublicKey)
	toID := database.PublicKeyToAccountID(to.PublicKey)

	tx, err := database.NewTx(fromID, toID, amount).Sign(from)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	return database.NewTxData(tx)
}

// =============================================================================

func Test_Public(t *testing.T) {
	test := newTest(t)

	t.Log("Given the need to work with the ledger through the public api.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen reading the genesis information.", testID)
		{
			w := test.do(test.public, http.MethodGet, "/v1/genesis/list", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200, got %d.", failed, testID, w.Code)
			}

			var gen genesis.Genesis
			if err := json.NewDecoder(w.Body).Decode(&gen); err != nil || gen.Difficulty != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould receive the genesis: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould receive the genesis.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen submitting bad transactions.", testID)
		{
			w := test.do(test.public, http.MethodPost, "/v1/tx/submit", `{"toAddress":"0x01","unknown":1}`)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould reject an unknown field with 400, got %d.", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an unknown field with 400.", success, testID)

			td := signedTx(t, aliceKey, bobKey, 10)
			w = test.do(test.public, http.MethodPost, "/v1/tx/submit", td)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("\t%s\tTest %d:\tShould reject a transaction with no balance with 422, got %d: %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a transaction with no balance with 422.", success, testID)

			td.Amount = 5
			w = test.do(test.public, http.MethodPost, "/v1/tx/submit", td)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould reject a tampered transaction with 400, got %d: %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a tampered transaction with 400.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining for an account name.", testID)
		{
			w := test.do(test.public, http.MethodGet, "/v1/mining/signal/alice", nil)
			if w.Code != http.StatusAccepted {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 202, got %d.", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 202.", success, testID)

			deadline := time.Now().Add(10 * time.Second)
			for test.state.QueryChainLength() != 2 && time.Now().Before(deadline) {
				time.Sleep(20 * time.Millisecond)
			}
			if n := test.state.QueryChainLength(); n != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould mine a block, got %d blocks.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould mine a block.", success, testID)

			w = test.do(test.public, http.MethodGet, "/v1/accounts/list/alice", nil)
			if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"balance":50`) {
				t.Fatalf("\t%s\tTest %d:\tShould report the reward balance: %d %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould report the reward balance.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen submitting a funded transaction.", testID)
		{
			w := test.do(test.public, http.MethodPost, "/v1/tx/submit", signedTx(t, aliceKey, bobKey, 10))
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200, got %d: %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200.", success, testID)

			w = test.do(test.public, http.MethodGet, "/v1/tx/uncommitted/list", nil)

			var txs []map[string]any
			if err := json.NewDecoder(w.Body).Decode(&txs); err != nil || len(txs) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould list one pending transaction: %v", failed, testID, err)
			}
			if txs[0]["toName"] != "bob" {
				t.Fatalf("\t%s\tTest %d:\tShould resolve the receiver name, got %v.", failed, testID, txs[0]["toName"])
			}
			t.Logf("\t%s\tTest %d:\tShould list one pending transaction.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen querying blocks.", testID)
		{
			w := test.do(test.public, http.MethodGet, "/v1/blocks/list/notanaccount", nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould reject a bad account with 400, got %d.", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a bad account with 400.", success, testID)

			w = test.do(test.public, http.MethodGet, "/v1/blocks/list", nil)

			var blocks []map[string]any
			if err := json.NewDecoder(w.Body).Decode(&blocks); err != nil || len(blocks) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould list every block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould list every block.", success, testID)
		}
	}
}

func Test_Private(t *testing.T) {
	test := newTest(t)

	t.Log("Given the need to report the node status to peers.")
	{
		testID := 0
		w := test.do(test.private, http.MethodGet, "/v1/node/status", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200, got %d.", failed, testID, w.Code)
		}

		var status peer.Status
		if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
			t.Fatalf("\t%s\tTest %d:\tShould decode the status: %v", failed, testID, err)
		}
		if status.ChainLength != 1 || status.ConnectedPeers != 0 || status.LatestBlockHash == "" {
			t.Fatalf("\t%s\tTest %d:\tShould report a fresh node: %+v", failed, testID, status)
		}
		t.Logf("\t%s\tTest %d:\tShould report a fresh node.", success, testID)
	}
}
